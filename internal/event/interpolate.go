package event

import "strings"

// Interpolate scans expected for the non-greedy token "{{<path>}}" and
// replaces each occurrence with Stringify(Get(tree, trimmed-path)), or the
// empty string when the path is absent or null. This lets a rule's expected
// value reference another field of the same event being evaluated (e.g. a
// "contains" check against a specific indexed sub-record).
func Interpolate(tree Tree, expected string) string {
	var out strings.Builder
	rest := expected

	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			out.WriteString(rest)
			break
		}

		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			out.WriteString(rest)
			break
		}
		end += start

		out.WriteString(rest[:start])

		path := strings.TrimSpace(rest[start+2 : end])
		out.WriteString(Stringify(Get(tree, path)))

		rest = rest[end+2:]
	}

	return out.String()
}
