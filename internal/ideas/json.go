package ideas

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("```(?:json|JSON)?\\s*\\n?|\\n?```")

func stripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

// decodeArray reads a top-level JSON array out of model output. The text is
// tried as-is after removing code fences, then cut down to the outermost
// brackets. ok is false when neither yields an array.
func decodeArray(text string) ([]json.RawMessage, bool) {
	items, _, ok := decodeArraySliced(text)
	return items, ok
}

// decodeObjects is decodeArray for arrays of objects. A bracket slice taken
// out of surrounding prose only counts when every element is an object.
func decodeObjects(text string) ([]json.RawMessage, bool) {
	items, sliced, ok := decodeArraySliced(text)
	if !ok {
		return nil, false
	}
	if sliced {
		for _, raw := range items {
			if !isObject(raw) {
				return nil, false
			}
		}
	}
	return items, true
}

func decodeArraySliced(text string) (items []json.RawMessage, sliced, ok bool) {
	trimmed := stripFences(text)
	if trimmed == "" {
		return nil, false, false
	}
	var out []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, false, true
	}
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start < 0 || end <= start {
		return nil, false, false
	}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &out); err != nil {
		return nil, false, false
	}
	return out, true, true
}

func isObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

// asIndex accepts JSON numbers with no fractional part.
func asIndex(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
