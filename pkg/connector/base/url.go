package base

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/ajitpratap0/sluice/pkg/errors"
)

var urlVarPattern = regexp.MustCompile(`^\{([A-Za-z0-9_]+)\}$`)

// ExpandPath replaces every path segment of the form {var} with vars[var]
func ExpandPath(path string, vars map[string]string) (string, error) {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		m := urlVarPattern.FindStringSubmatch(p)
		if m == nil {
			continue
		}
		v, ok := vars[m[1]]
		if !ok || v == "" {
			return "", errors.New(errors.ErrorTypeConfig,
				fmt.Sprintf("url variable %q is not defined", m[1]))
		}
		parts[i] = url.PathEscape(v)
	}
	return strings.Join(parts, "/"), nil
}

// BuildURL resolves path against baseURL and appends params
func BuildURL(baseURL, path string, params map[string]string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid baseurl")
	}
	if base.Scheme == "" || base.Host == "" {
		return "", errors.New(errors.ErrorTypeConfig, fmt.Sprintf("baseurl %q must be absolute", baseURL))
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid path")
	}
	u := base.ResolveReference(ref)
	if len(params) > 0 {
		q := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			q.Set(k, params[k])
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
