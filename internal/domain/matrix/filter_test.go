package matrix

import "testing"

func testCatalog() []Parameter {
	return []Parameter{
		{ID: "1", Name: "Code Quality", Description: "Readable, tested code", Category: "Technical", Status: ParameterStatusActive},
		{ID: "2", Name: "Communication", Description: "Clear written updates", Category: "Soft Skills", Status: ParameterStatusActive},
		{ID: "3", Name: "Architecture", Description: "System design", Category: "Technical", Status: ParameterStatusInactive},
		{ID: "4", Name: "Punctuality", Description: "", Category: "", Status: ParameterStatusActive},
	}
}

func TestFilterParameters(t *testing.T) {
	tests := []struct {
		name   string
		filter ParameterFilter
		want   []string
	}{
		{name: "no filter sorts by category then name", filter: ParameterFilter{}, want: []string{"4", "2", "3", "1"}},
		{name: "query matches description", filter: ParameterFilter{Query: "WRITTEN"}, want: []string{"2"}},
		{name: "query matches name", filter: ParameterFilter{Query: "arch"}, want: []string{"3"}},
		{name: "category is case insensitive", filter: ParameterFilter{Category: "technical"}, want: []string{"3", "1"}},
		{name: "empty category falls back to default", filter: ParameterFilter{Category: DefaultCategory}, want: []string{"4"}},
		{name: "status filter", filter: ParameterFilter{Category: "Technical", Status: ParameterStatusActive}, want: []string{"1"}},
		{name: "no match", filter: ParameterFilter{Query: "leadership"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterParameters(testCatalog(), tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d parameters, got %d (%+v)", len(tt.want), len(got), got)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestCategories(t *testing.T) {
	all := Categories(testCatalog(), "")
	if len(all) != 3 {
		t.Fatalf("expected 3 categories, got %+v", all)
	}
	if all[0].Category != DefaultCategory || all[2].Category != "Technical" || all[2].Count != 2 {
		t.Fatalf("unexpected categories: %+v", all)
	}

	active := Categories(testCatalog(), ParameterStatusActive)
	for _, c := range active {
		if c.Category == "Technical" && c.Count != 1 {
			t.Fatalf("expected one active technical parameter, got %d", c.Count)
		}
	}
}
