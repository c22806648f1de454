package disease

import (
	"sort"
	"strings"
)

// Catalog sort modes.
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortMostSearched = "most-searched"
	SortAlphabetical = "alphabetical"
)

var validSortModes = map[string]bool{
	SortNewest:       true,
	SortOldest:       true,
	SortMostSearched: true,
	SortAlphabetical: true,
}

// ValidSortMode reports whether mode is a known catalog sort.
func ValidSortMode(mode string) bool {
	return validSortModes[mode]
}

// Filter returns the diseases whose name, causal agent, or any host species
// contains the query, case-insensitively. An empty query returns the input
// unchanged.
func Filter(diseases []*Disease, query string) []*Disease {
	if query == "" {
		return diseases
	}
	q := strings.ToLower(query)

	var out []*Disease
	for _, d := range diseases {
		if matches(d, q) {
			out = append(out, d)
		}
	}
	return out
}

func matches(d *Disease, q string) bool {
	if strings.Contains(strings.ToLower(d.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(d.CausalAgent), q) {
		return true
	}
	for _, h := range d.Hosts {
		if strings.Contains(strings.ToLower(h.AnimalName), q) {
			return true
		}
	}
	return false
}

// Sort orders the diseases by the given mode. The sort is stable so records
// that compare equal keep their incoming order. Unknown modes fall back to
// newest-first. The input slice is not modified.
func Sort(diseases []*Disease, mode string) []*Disease {
	out := make([]*Disease, len(diseases))
	copy(out, diseases)

	switch mode {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt < out[j].CreatedAt
		})
	case SortMostSearched:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].SearchCount > out[j].SearchCount
		})
	case SortAlphabetical:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	default: // SortNewest
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt > out[j].CreatedAt
		})
	}
	return out
}
