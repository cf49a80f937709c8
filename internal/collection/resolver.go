package collection

import "strings"

// Wildcard selects every partition.
const Wildcard = "all"

// Resolve maps a free-text folder label onto the partitions to search.
// The wildcard returns the whole list. Otherwise a candidate set built from
// the raw label, its sanitized form, and the lowercase variants of both is
// matched exactly against the partition names; when nothing matches exactly,
// substring containment in either direction between the sanitized lowercase
// label and each partition name decides. Returns an empty slice, never an
// error, when nothing matches; callers own the fallback behavior.
func Resolve(label string, partitions []string) []string {
	if strings.EqualFold(label, Wildcard) {
		out := make([]string, len(partitions))
		copy(out, partitions)
		return out
	}
	if label == "" || len(partitions) == 0 {
		return nil
	}

	candidates := make(map[string]struct{}, 4)
	for _, c := range []string{label, Sanitize(label), strings.ToLower(label), strings.ToLower(Sanitize(label))} {
		candidates[c] = struct{}{}
	}

	var matched []string
	for _, p := range partitions {
		if _, ok := candidates[p]; ok {
			matched = append(matched, p)
		}
	}
	if len(matched) > 0 {
		return matched
	}

	needle := strings.ToLower(Sanitize(label))
	for _, p := range partitions {
		lower := strings.ToLower(p)
		if strings.Contains(lower, needle) || strings.Contains(needle, lower) {
			matched = append(matched, p)
		}
	}
	return matched
}
