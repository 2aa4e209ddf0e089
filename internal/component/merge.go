package component

import (
	"fmt"
	"reflect"
	"sort"
)

// fragment is one component's parsed contribution to a merged document.
type fragment struct {
	id    string
	value any
}

// mergeFragments folds fragments in resolution order into an initially
// empty root object. Earlier-resolved (dependency) components establish
// keys that later components extend or error against. The same policy
// serves both the JSON-like and the YAML-like tree: both are decoded to
// map[string]any / []any / scalars before they get here.
func mergeFragments(frags []fragment) (map[string]any, error) {
	root := make(map[string]any)
	for _, f := range frags {
		merged, err := mergeValue(root, f.value, f.id, "$")
		if err != nil {
			return nil, err
		}
		root = merged.(map[string]any)
	}
	return root, nil
}

func mergeValue(dst, src any, srcID, path string) (any, error) {
	switch d := dst.(type) {
	case map[string]any:
		s, ok := src.(map[string]any)
		if !ok {
			return equalOrConflict(dst, src, srcID, path)
		}
		for _, k := range sortedKeys(s) {
			sv := s[k]
			sub := path + "." + k
			dv, exists := d[k]
			if !exists {
				d[k] = sv
				continue
			}
			if reflect.DeepEqual(dv, sv) {
				continue
			}
			merged, err := mergeValue(dv, sv, srcID, sub)
			if err != nil {
				return nil, err
			}
			d[k] = merged
		}
		return d, nil

	case []any:
		s, ok := src.([]any)
		if !ok {
			return equalOrConflict(dst, src, srcID, path)
		}
		out := make([]any, 0, len(d)+len(s))
		out = append(out, d...)
		out = append(out, s...)
		// Scalar arrays of a single type deduplicate by value, keeping
		// first occurrence. Arrays containing objects never deduplicate.
		if isSingleTypeScalarArray(out) {
			out = dedupScalars(out)
		}
		return out, nil

	default:
		return equalOrConflict(dst, src, srcID, path)
	}
}

// equalOrConflict accepts identical values as a no-op and reports every
// other pairing as a merge conflict at path.
func equalOrConflict(dst, src any, srcID, path string) (any, error) {
	if reflect.DeepEqual(dst, src) {
		return dst, nil
	}
	if scalarKind(dst) != "" && scalarKind(src) != "" {
		return nil, &MergeError{Path: path, ComponentID: srcID}
	}
	return nil, &MergeError{Path: path, ComponentID: srcID, TypeMismatch: true}
}

// scalarKind classifies a value as "string", "bool", "number", or "" for
// containers and nulls. YAML and JSON decode numbers differently (int vs
// float64); both count as number.
func scalarKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64, float64:
		return "number"
	default:
		return ""
	}
}

func isSingleTypeScalarArray(vals []any) bool {
	if len(vals) == 0 {
		return true
	}
	kind := scalarKind(vals[0])
	if kind == "" {
		return false
	}
	for _, v := range vals[1:] {
		if scalarKind(v) != kind {
			return false
		}
	}
	return true
}

func dedupScalars(vals []any) []any {
	seen := make(map[string]bool, len(vals))
	out := vals[:0]
	for _, v := range vals {
		k := fmt.Sprintf("%v", v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
