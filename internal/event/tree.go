// Package event represents upstream sign-in, security-alert and audit-log
// records as a single open, semi-structured tree and provides the dotted-path
// accessor, comparison operators and template interpolation that the rule
// evaluator is built on.
package event

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Tree is a semi-structured value: a JSON object, a JSON array, a scalar, or
// nil. Upstream payloads are decoded straight into a Tree (via Decode) and
// never coerced into a fixed schema beyond the fields rules actually ask for.
type Tree = interface{}

// Decode unmarshals raw upstream JSON into a Tree.
func Decode(raw []byte) (Tree, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// absentMarker is the type of Absent, which Get returns when a dotted path
// does not resolve. It is
// distinct from a present nil so callers (Operator, Interpolator) can tell
// "the field is explicitly null" from "the field doesn't exist" when they
// need to, even though §4.1/§4.2 of the spec treat both as non-existent for
// exists/equals purposes.
type absentMarker struct{}

// Absent is the sentinel value returned by Get for a path that does not
// resolve. It compares equal to itself and to nothing else.
var Absent = absentMarker{}

// IsAbsent reports whether a Get result represents an absent or null value,
// per the accessor contract in spec §4.1.
func IsAbsent(v Tree) bool {
	if v == nil {
		return true
	}
	_, ok := v.(absentMarker)
	return ok
}

// Get reads a dotted path out of tree. path is a non-empty string of
// segments separated by '.'. For each segment: if the current node is a
// mapping, the segment is looked up as a key; if it is an ordered sequence,
// the segment is parsed as a base-10 non-negative integer index and
// dereferenced; otherwise Get returns Absent. A null/absent intermediate
// short-circuits to Absent. Get never panics.
func Get(tree Tree, path string) Tree {
	if path == "" {
		return Absent
	}

	current := tree
	for _, segment := range strings.Split(path, ".") {
		if IsAbsent(current) {
			return Absent
		}

		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[segment]
			if !ok {
				return Absent
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return Absent
			}
			current = node[idx]
		default:
			return Absent
		}
	}

	return current
}

// Stringify renders a Tree value as text using its natural textual
// representation. Absent and null both render as the empty string for
// interpolation purposes (see Interpolate); callers that need to distinguish
// "absent" from "the text undefined" should check IsAbsent first.
func Stringify(v Tree) string {
	if IsAbsent(v) {
		return ""
	}

	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		// Collections and anything else stringify via their default JSON
		// rendering. Comparisons against collections are not a supported
		// pattern (spec §4.2); this keeps the result stable, just unspecified
		// in shape.
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
