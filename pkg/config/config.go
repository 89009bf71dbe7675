// Package config loads the YAML documents that describe sluice jobs and the
// named connector blocks they refer to.
//
// Three documents are involved:
//
//   - the job list, a YAML sequence of job specs
//   - the sources map, connector name to field map
//   - the targets map, connector name to field map
//
// Values of the form ${VAR} are substituted from the process environment
// before parsing.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/sluice/pkg/errors"
)

// Reserved connector fields.
const (
	FieldName = "name"
	FieldType = "type"
)

// ConnectorSpec is the raw field map describing one source or target.
// Every spec carries at least a name and a type; all other fields are
// interpreted by the connector registered for the type.
type ConnectorSpec map[string]interface{}

// Name returns the connector name, or "" when absent
func (c ConnectorSpec) Name() string {
	return c.str(FieldName)
}

// Type returns the connector type discriminator, or "" when absent
func (c ConnectorSpec) Type() string {
	return c.str(FieldType)
}

func (c ConnectorSpec) str(key string) string {
	if c == nil {
		return ""
	}
	switch v := c[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(yamlScalar(v))
	}
}

// Clone returns a deep copy of the spec
func (c ConnectorSpec) Clone() ConnectorSpec {
	if c == nil {
		return ConnectorSpec{}
	}
	out := make(ConnectorSpec, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case ConnectorSpec:
		return t.Clone()
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// JobSpec is one entry of the job list
type JobSpec struct {
	Name   string        `yaml:"name"`
	Tags   []string      `yaml:"tags,omitempty"`
	Source ConnectorSpec `yaml:"source,omitempty"`
	Target ConnectorSpec `yaml:"target,omitempty"`
}

// HasName reports whether the spec can become a runnable job
func (j JobSpec) HasName() bool {
	return strings.TrimSpace(j.Name) != ""
}

// HasTag reports whether tag is one of the spec's tags
func (j JobSpec) HasTag(tag string) bool {
	for _, t := range j.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// LoadJobs reads a job list document
func LoadJobs(path string) ([]JobSpec, error) {
	var jobs []JobSpec
	if err := Load(path, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// LoadConnectors reads a sources or targets document
func LoadConnectors(path string) (map[string]ConnectorSpec, error) {
	var specs map[string]ConnectorSpec
	if err := Load(path, &specs); err != nil {
		return nil, err
	}
	if specs == nil {
		specs = map[string]ConnectorSpec{}
	}
	return specs, nil
}

// Load loads a configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from operator configuration
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", filePath)
	}
	if err := Parse(data, config); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file").
			WithDetail("path", filePath)
	}
	return nil
}

// Parse decodes YAML content after environment substitution
func Parse(data []byte, config interface{}) error {
	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML")
	}
	return nil
}

// Save writes a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write config file")
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

func yamlScalar(v interface{}) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(string(out), "\n")
}
