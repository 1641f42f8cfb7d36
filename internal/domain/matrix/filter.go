package matrix

import (
	"sort"
	"strings"
)

// FilterParameters applies a library filter to an already loaded catalog.
// Query matches name or description case-insensitively; category and status
// must match exactly (case-insensitive). Results are ordered by category,
// then name.
func FilterParameters(catalog []Parameter, filter ParameterFilter) []Parameter {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	category := strings.TrimSpace(filter.Category)
	status := strings.TrimSpace(filter.Status)

	out := make([]Parameter, 0, len(catalog))
	for _, p := range catalog {
		if category != "" && !strings.EqualFold(categoryOf(p), category) {
			continue
		}
		if status != "" && !strings.EqualFold(p.Status, status) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, p)
	}
	sortParameters(out)
	return out
}

// Categories counts parameters per category, optionally restricted to one
// status, sorted by category name.
func Categories(catalog []Parameter, status string) []CategoryCount {
	counts := map[string]int{}
	for _, p := range catalog {
		if status != "" && !strings.EqualFold(p.Status, status) {
			continue
		}
		counts[categoryOf(p)]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		out = append(out, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Category) < strings.ToLower(out[j].Category)
	})
	return out
}

func categoryOf(p Parameter) string {
	if strings.TrimSpace(p.Category) == "" {
		return DefaultCategory
	}
	return p.Category
}

func sortParameters(params []Parameter) {
	sort.SliceStable(params, func(i, j int) bool {
		ci, cj := strings.ToLower(categoryOf(params[i])), strings.ToLower(categoryOf(params[j]))
		if ci != cj {
			return ci < cj
		}
		return strings.ToLower(params[i].Name) < strings.ToLower(params[j].Name)
	})
}
