package utils

// ToStringSlice reads a claim that may hold a list or a single string. Decoded JSON
// arrays arrive as []any; non-string elements are skipped.
func ToStringSlice(v any) []string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []string:
		return append([]string(nil), s...)
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
