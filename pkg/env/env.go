// Package env resolves the process-level settings sluice reads from the
// environment. Every slot is optional: an unset or empty variable reports
// ok=false and callers decide whether that is fatal.
package env

import (
	"strings"

	"github.com/spf13/viper"
)

// Prefix is prepended to every variable name.
const Prefix = "SLUICE"

// Slot names, exposed as SLUICE_<SLOT> in upper case.
const (
	LogPath       = "log_path"
	JobsConfig    = "jobs_config"
	SourcesConfig = "sources_config"
	TargetsConfig = "targets_config"
)

// Environment is a snapshot of the resolved slots.
type Environment struct {
	values map[string]string
}

// Resolve reads the slots from the process environment.
func Resolve() Environment {
	v := viper.New()
	v.SetEnvPrefix(Prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	values := make(map[string]string, 4)
	for _, slot := range []string{LogPath, JobsConfig, SourcesConfig, TargetsConfig} {
		_ = v.BindEnv(slot)
		if s := strings.TrimSpace(v.GetString(slot)); s != "" {
			values[slot] = s
		}
	}
	return Environment{values: values}
}

// FromMap builds an Environment from explicit values, keyed by slot name.
func FromMap(values map[string]string) Environment {
	m := make(map[string]string, len(values))
	for k, val := range values {
		if strings.TrimSpace(val) != "" {
			m[k] = val
		}
	}
	return Environment{values: m}
}

// VarName returns the environment variable backing a slot.
func VarName(slot string) string {
	return Prefix + "_" + strings.ToUpper(slot)
}

func (e Environment) lookup(slot string) (string, bool) {
	s, ok := e.values[slot]
	return s, ok
}

// LogPath returns the log directory.
func (e Environment) LogPath() (string, bool) { return e.lookup(LogPath) }

// JobsPath returns the jobs configuration file.
func (e Environment) JobsPath() (string, bool) { return e.lookup(JobsConfig) }

// SourcesPath returns the named sources configuration file.
func (e Environment) SourcesPath() (string, bool) { return e.lookup(SourcesConfig) }

// TargetsPath returns the named targets configuration file.
func (e Environment) TargetsPath() (string, bool) { return e.lookup(TargetsConfig) }
