package vectorindex

import (
	"fmt"
	"strings"
)

// MatchesFilter reports whether payload satisfies every key/value pair in
// filter. Keys may use dotted paths ("metadata.category") to reach into
// nested maps. Values are compared by their string form, mirroring the
// match semantics remote backends apply.
func MatchesFilter(payload, filter map[string]interface{}) bool {
	for key, want := range filter {
		got, ok := lookupPath(payload, key)
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func lookupPath(payload map[string]interface{}, key string) (interface{}, bool) {
	parts := strings.Split(key, ".")
	var current interface{} = payload
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
