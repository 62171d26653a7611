package view

import (
	"net/url"
	"testing"

	"taskboard/internal/model"
)

func sampleTasks() []model.Task {
	work := "work"
	notes := "Milk and BREAD"
	return []model.Task{
		{ID: "1", Title: "Buy milk", Priority: model.PriorityLow, IsToday: true, Description: &notes},
		{ID: "2", Title: "Report", Priority: model.PriorityHigh, CategoryID: &work,
			Assignees: []model.TaskAssignee{{UserID: "u1"}}},
		{ID: "3", Title: "Old report", Priority: model.PriorityHigh, CategoryID: &work, IsCompleted: true, IsToday: true},
		{ID: "4", Title: "Call mom", Priority: model.PriorityMedium, IsCompleted: true},
	}
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseTab(t *testing.T) {
	cases := map[string]Tab{
		"":          TabAll,
		"all":       TabAll,
		" Today ":   TabToday,
		"COMPLETED": TabCompleted,
		"archive":   TabAll,
	}
	for in, want := range cases {
		if got := ParseTab(in); got != want {
			t.Errorf("ParseTab(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVisibleTabs(t *testing.T) {
	tasks := sampleTasks()
	cases := []struct {
		tab  Tab
		want []string
	}{
		{TabAll, []string{"1", "2"}},
		{TabToday, []string{"1", "3"}},
		{TabCompleted, []string{"3", "4"}},
	}
	for _, tc := range cases {
		got := ids(Visible(tasks, tc.tab, model.TaskFilter{}))
		if !equal(got, tc.want) {
			t.Errorf("tab %s: got %v, want %v", tc.tab, got, tc.want)
		}
	}
}

func TestVisibleWithFilter(t *testing.T) {
	tasks := sampleTasks()
	cases := []struct {
		name   string
		tab    Tab
		filter model.TaskFilter
		want   []string
	}{
		{"category", TabCompleted, model.TaskFilter{CategoryID: "work"}, []string{"3"}},
		{"assignee", TabAll, model.TaskFilter{AssigneeID: "u1"}, []string{"2"}},
		{"priority", TabToday, model.TaskFilter{Priority: model.PriorityHigh}, []string{"3"}},
		{"search title", TabAll, model.TaskFilter{Search: "MILK"}, []string{"1"}},
		{"search description", TabToday, model.TaskFilter{Search: "bread"}, []string{"1"}},
		{"no match", TabAll, model.TaskFilter{Search: "zzz"}, []string{}},
	}
	for _, tc := range cases {
		got := ids(Visible(tasks, tc.tab, tc.filter))
		if !equal(got, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCounts(t *testing.T) {
	counts := Counts(sampleTasks(), model.TaskFilter{})
	if counts[TabAll] != 2 || counts[TabToday] != 2 || counts[TabCompleted] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	counts = Counts(sampleTasks(), model.TaskFilter{CategoryID: "work"})
	if counts[TabAll] != 1 || counts[TabToday] != 1 || counts[TabCompleted] != 1 {
		t.Fatalf("unexpected filtered counts: %v", counts)
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{
		"categoryId":  {"work"},
		"assigneeId":  {" u1 "},
		"priority":    {"high"},
		"isToday":     {"true"},
		"isCompleted": {"0"},
		"search":      {"report"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.CategoryID != "work" || f.AssigneeID != "u1" || f.Priority != model.PriorityHigh || f.Search != "report" {
		t.Fatalf("unexpected filter %+v", f)
	}
	if f.IsToday == nil || !*f.IsToday || f.IsCompleted == nil || *f.IsCompleted {
		t.Fatalf("flags not parsed: %+v", f)
	}

	empty, err := ParseFilter(url.Values{"isToday": {""}})
	if err != nil || !empty.Empty() {
		t.Fatalf("empty values must not filter: %+v, %v", empty, err)
	}

	for _, q := range []url.Values{{"isToday": {"maybe"}}, {"isCompleted": {"2"}}, {"priority": {"SOON"}}} {
		if _, err := ParseFilter(q); err == nil {
			t.Errorf("expected error for %v", q)
		}
	}
}

func TestQueryRoundTrip(t *testing.T) {
	yes := true
	in := model.TaskFilter{CategoryID: "work", Priority: model.PriorityLow, Search: "a b", IsToday: &yes}
	q := Query(TabCompleted, in)
	if ParseTab(q.Get("tab")) != TabCompleted {
		t.Fatalf("tab lost: %v", q)
	}
	out, err := ParseFilter(q)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.CategoryID != in.CategoryID || out.Priority != in.Priority || out.Search != in.Search || out.IsToday == nil || !*out.IsToday {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if got := Query(TabAll, model.TaskFilter{}).Encode(); got != "" {
		t.Fatalf("empty query = %q", got)
	}
}
