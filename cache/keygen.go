package cache

import (
	"sort"
	"strings"
)

// KeyFor builds a stable cache key from a resource path and its parameters.
// Parameters are serialized in sorted order so that logically identical
// requests always collide to the same key regardless of construction order.
func KeyFor(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return path + "?" + strings.Join(parts, "&")
}
