package mongo

// Sanitize recursively removes nil-valued keys from document maps before
// a merge-write. Inside a merge update a nil entry would null the remote
// field instead of leaving it alone, so unset optional fields must be
// dropped. Empty strings, empty slices and empty maps are real values
// and are preserved.
func Sanitize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			out[k] = Sanitize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Sanitize(item)
		}
		return out
	default:
		return v
	}
}
