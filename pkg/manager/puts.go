package manager

import (
	"fmt"
	"io"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Puts writes a command's return value to w following the fixed
// normalization rules, and reports whether the value signals invocation
// failure:
//
//   - nil writes nothing at all;
//   - a string writes the string with exactly one trailing newline
//     normalized on; an empty string is a single newline;
//   - true writes "OK", false writes "FAILED" and signals failure;
//   - a []string writes each element on its own line, trailing line break
//     characters stripped;
//   - a mapping writes one "key: value" line per pair — insertion order
//     for an ordered map, sorted keys for a plain map (which carries no
//     insertion order); a nil value renders empty and a nested mapping
//     value renders its own values joined by single spaces;
//   - anything else writes its plain textual representation plus newline.
func Puts(w io.Writer, v any) (failed bool) {
	switch r := v.(type) {
	case nil:
		return false
	case bool:
		if r {
			fmt.Fprintln(w, "OK")
			return false
		}
		fmt.Fprintln(w, "FAILED")
		return true
	case string:
		// Strip at most the one line break Fprintln re-adds, so a value
		// that deliberately ends in blank lines keeps all but one.
		r = strings.TrimSuffix(r, "\n")
		r = strings.TrimSuffix(r, "\r")
		fmt.Fprintln(w, r)
	case []string:
		for _, line := range r {
			fmt.Fprintln(w, strings.TrimRight(line, "\r\n"))
		}
	case *orderedmap.OrderedMap[string, string]:
		for pair := r.Oldest(); pair != nil; pair = pair.Next() {
			putsPair(w, pair.Key, pair.Value)
		}
	case *orderedmap.OrderedMap[string, any]:
		for pair := r.Oldest(); pair != nil; pair = pair.Next() {
			putsPair(w, pair.Key, pair.Value)
		}
	case map[string]string:
		for _, k := range sortedKeys(r) {
			putsPair(w, k, r[k])
		}
	case map[string]any:
		for _, k := range sortedKeys(r) {
			putsPair(w, k, r[k])
		}
	default:
		fmt.Fprintln(w, r)
	}
	return false
}

func putsPair(w io.Writer, k string, v any) {
	fmt.Fprintf(w, "%s: %s\n", k, renderValue(v))
}

// renderValue flattens one mapping value to a single line.
func renderValue(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case map[string]string:
		parts := make([]string, 0, len(r))
		for _, k := range sortedKeys(r) {
			parts = append(parts, r[k])
		}
		return strings.Join(parts, " ")
	case map[string]any:
		parts := make([]string, 0, len(r))
		for _, k := range sortedKeys(r) {
			parts = append(parts, renderValue(r[k]))
		}
		return strings.Join(parts, " ")
	case *orderedmap.OrderedMap[string, string]:
		var parts []string
		for pair := r.Oldest(); pair != nil; pair = pair.Next() {
			parts = append(parts, pair.Value)
		}
		return strings.Join(parts, " ")
	case *orderedmap.OrderedMap[string, any]:
		var parts []string
		for pair := r.Oldest(); pair != nil; pair = pair.Next() {
			parts = append(parts, renderValue(pair.Value))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(r)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
