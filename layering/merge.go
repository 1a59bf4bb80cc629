package layering

import formopts "github.com/goliatone/go-form-options"

// MergeValues composes value sets ordered from strongest to weakest. A key
// present in a stronger set wins even when its value is nil.
func MergeValues(layers ...formopts.Values) formopts.Values {
	merged := formopts.Values{}
	for i := len(layers) - 1; i >= 0; i-- {
		for key, value := range layers[i] {
			merged[key] = value
		}
	}
	return merged
}
