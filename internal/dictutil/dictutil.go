// Package dictutil provides generic lookup and filter helpers over nested
// map structures, as produced by decoding service JSON responses.
package dictutil

// FindByKey returns the first map in list whose top-level value under key
// equals value. It does not search nested maps, since keys like "id" recur
// at every depth. Returns nil when no map matches.
func FindByKey(list []map[string]any, key string, value any) map[string]any {
	for _, m := range list {
		if m[key] == value {
			return m
		}
	}
	return nil
}

// FindByIDOrName returns the first map matching the given id (preferred) or
// name, under the standard "id"/"name" keys. The second return is false when
// neither id nor name was provided or nothing matched.
func FindByIDOrName(list []map[string]any, id, name string) (map[string]any, bool) {
	key, val := "", ""
	switch {
	case id != "":
		key, val = "id", id
	case name != "":
		key, val = "name", name
	default:
		return nil, false
	}
	for _, m := range list {
		if m[key] == val {
			return m, true
		}
	}
	return nil, false
}

// FilterMap returns the entries of m whose key passes every key filter and
// whose value passes every value filter.
func FilterMap(m map[string]any, keyFilters []func(string) bool, valFilters []func(any) bool) map[string]any {
	out := make(map[string]any)
outer:
	for k, v := range m {
		for _, f := range keyFilters {
			if !f(k) {
				continue outer
			}
		}
		for _, f := range valFilters {
			if !f(v) {
				continue outer
			}
		}
		out[k] = v
	}
	return out
}

// FilterSlice keeps the maps whose value under every key of by is contained
// in that key's allowed set.
func FilterSlice(list []map[string]any, by map[string][]any) []map[string]any {
	var remaining []map[string]any
outer:
	for _, m := range list {
		for key, allowed := range by {
			found := false
			for _, want := range allowed {
				if m[key] == want {
					found = true
					break
				}
			}
			if !found {
				continue outer
			}
		}
		remaining = append(remaining, m)
	}
	return remaining
}

// PathExists reports whether the same key path descends through both maps.
func PathExists(a, b map[string]any, path []string) bool {
	for i, key := range path {
		av, aok := a[key]
		bv, bok := b[key]
		if !aok || !bok {
			return false
		}
		if i == len(path)-1 {
			return true
		}
		a, aok = av.(map[string]any)
		b, bok = bv.(map[string]any)
		if !aok || !bok {
			return false
		}
	}
	return len(path) == 0
}

// Get descends a key path through nested maps, returning false if any hop is
// missing or not a map.
func Get(m map[string]any, path ...string) (any, bool) {
	var cur any = m
	for _, key := range path {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetString is Get for string-valued leaves; missing or non-string yields "".
func GetString(m map[string]any, path ...string) string {
	v, ok := Get(m, path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetBool is Get for bool-valued leaves; missing or non-bool yields false.
func GetBool(m map[string]any, path ...string) bool {
	v, ok := Get(m, path...)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GetSlice is Get for list-valued leaves, normalizing []any elements to maps.
// Missing, non-list, or non-map elements yield nil.
func GetSlice(m map[string]any, path ...string) []map[string]any {
	v, ok := Get(m, path...)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if node, ok := item.(map[string]any); ok {
			out = append(out, node)
		}
	}
	return out
}
