// game/payload.go
package game

// Payload is the free-form body of a player intent, decoded from JSON at
// the gateway. Success conditions read it through the typed accessors so a
// malformed field simply fails the condition instead of panicking.
type Payload map[string]any

// String returns the string value for key, or "" when absent or not a
// string.
func (p Payload) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the numeric value for key. JSON numbers decode to float64;
// an int stored by a test is accepted too.
func (p Payload) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Strings returns the value for key as a string slice. Both []string and
// the []any produced by JSON decoding are accepted.
func (p Payload) Strings(key string) ([]string, bool) {
	switch v := p[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// Merge returns the puzzle's accumulated data with this payload folded in.
// Existing keys are overwritten; the original map is not mutated.
func (p Payload) Merge(into map[string]any) map[string]any {
	merged := make(map[string]any, len(into)+len(p))
	for k, v := range into {
		merged[k] = v
	}
	for k, v := range p {
		merged[k] = v
	}
	return merged
}
