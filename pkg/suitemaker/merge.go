package suitemaker

// Merge overlays src onto dst in place.
//
// The data key is always replaced. Mappings are updated key by key, lists
// are appended to the existing list and every other value replaces the
// existing one.
func Merge(dst, src map[string]any) {
	for key, val := range src {
		if key == "data" {
			dst[key] = val
			continue
		}
		switch v := val.(type) {
		case map[string]any:
			existing, ok := dst[key].(map[string]any)
			if !ok {
				dst[key] = deepCopy(v)
				continue
			}
			updated := make(map[string]any, len(existing)+len(v))
			for k, item := range existing {
				updated[k] = item
			}
			for k, item := range v {
				updated[k] = item
			}
			dst[key] = updated
		case []any:
			existing, _ := dst[key].([]any)
			joined := make([]any, 0, len(existing)+len(v))
			joined = append(joined, existing...)
			joined = append(joined, v...)
			dst[key] = joined
		default:
			dst[key] = val
		}
	}
}

// deepCopy copies the mappings and lists of v. Other values are shared.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
