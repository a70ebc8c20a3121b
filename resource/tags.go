package resource

import "maps"

// MergeTags overlays desired tags onto the observed tags of a resource. With
// appendTags set, observed tags missing from the desired set are preserved;
// otherwise the desired tags replace the observed set entirely. The reported
// flag is true whenever the merged result differs from the observed tags.
func MergeTags(observed, desired map[string]string, appendTags bool) (bool, map[string]string) {
	if !appendTags {
		merged := make(map[string]string, len(desired))
		maps.Copy(merged, desired)
		return !maps.Equal(observed, desired), merged
	}

	merged := make(map[string]string, len(observed)+len(desired))
	maps.Copy(merged, observed)

	changed := false
	for key, value := range desired {
		if current, found := observed[key]; !found || current != value {
			changed = true
		}
		merged[key] = value
	}

	return changed, merged
}
