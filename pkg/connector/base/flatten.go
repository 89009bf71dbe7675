package base

import (
	"sort"
	"strconv"
)

// Flatten turns nested maps and slices into a single-level record whose keys
// join the path with sep ("a_b_0"). Keys listed in exclude are skipped at
// every level. The returned key order is stable: map keys sorted, slice
// elements in index order.
func Flatten(v interface{}, sep string, exclude ...string) ([]string, map[string]interface{}) {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	out := map[string]interface{}{}
	var keys []string

	var walk func(x interface{}, prefix string)
	walk = func(x interface{}, prefix string) {
		switch t := x.(type) {
		case map[string]interface{}:
			names := make([]string, 0, len(t))
			for k := range t {
				if !skip[k] {
					names = append(names, k)
				}
			}
			sort.Strings(names)
			for _, k := range names {
				walk(t[k], prefix+k+sep)
			}
		case []interface{}:
			for i, e := range t {
				walk(e, prefix+strconv.Itoa(i)+sep)
			}
		default:
			key := prefix
			if len(key) >= len(sep) {
				key = key[:len(key)-len(sep)]
			}
			if _, seen := out[key]; !seen {
				keys = append(keys, key)
			}
			out[key] = t
		}
	}
	walk(v, "")
	return keys, out
}
