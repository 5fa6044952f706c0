// Package sanitize HTML-escapes string values in inbound request data.
// It is total: every input produces an output, nothing ever fails.
package sanitize

import "strings"

//nolint:gochecknoglobals // fixed escaping table
var replacer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

func String(s string) string {
	return replacer.Replace(s)
}

// Input escapes string values; anything else passes through unchanged.
func Input(v any) any {
	if s, ok := v.(string); ok {
		return String(s)
	}
	return v
}

// Object walks a decoded JSON structure and escapes every string leaf,
// preserving the structure and all non-string leaves (numbers, booleans,
// null) as-is.
func Object(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Object(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Object(item)
		}
		return out
	default:
		return Input(v)
	}
}
