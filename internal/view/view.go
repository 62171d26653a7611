// Package view computes the subset of an already loaded task list that a
// front end shows for a tab and filter.
package view

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"taskboard/internal/model"
)

// Tab selects which tasks a board shows.
type Tab string

const (
	TabAll       Tab = "all"
	TabToday     Tab = "today"
	TabCompleted Tab = "completed"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabAll, TabToday, TabCompleted}

// ParseTab maps a query value onto a tab. Anything unknown is TabAll.
func ParseTab(s string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case TabToday:
		return TabToday
	case TabCompleted:
		return TabCompleted
	default:
		return TabAll
	}
}

func (t Tab) Label() string {
	switch t {
	case TabToday:
		return "Today"
	case TabCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// includes applies the tab rule. "all" means every task still open.
func (t Tab) includes(task model.Task) bool {
	switch t {
	case TabToday:
		return task.IsToday
	case TabCompleted:
		return task.IsCompleted
	default:
		return !task.IsCompleted
	}
}

// Visible returns the tasks passing both the tab and the filter, keeping
// their order.
func Visible(tasks []model.Task, tab Tab, filter model.TaskFilter) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if tab.includes(task) && filter.Match(task) {
			out = append(out, task)
		}
	}
	return out
}

// Counts reports how many tasks each tab would show under filter.
func Counts(tasks []model.Task, filter model.TaskFilter) map[Tab]int {
	counts := make(map[Tab]int, len(Tabs))
	for _, task := range tasks {
		if !filter.Match(task) {
			continue
		}
		for _, tab := range Tabs {
			if tab.includes(task) {
				counts[tab]++
			}
		}
	}
	return counts
}

// ParseFilter reads the task filter from query parameters: categoryId,
// assigneeId, priority, isToday, isCompleted and search. Empty values do
// not filter.
func ParseFilter(q url.Values) (model.TaskFilter, error) {
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }

	f := model.TaskFilter{
		CategoryID: get("categoryId"),
		AssigneeID: get("assigneeId"),
		Search:     get("search"),
	}
	if v := get("priority"); v != "" {
		p, err := model.ParsePriority(v)
		if err != nil {
			return f, err
		}
		f.Priority = p
	}
	var err error
	if f.IsToday, err = parseFlag(get("isToday"), "isToday"); err != nil {
		return f, err
	}
	if f.IsCompleted, err = parseFlag(get("isCompleted"), "isCompleted"); err != nil {
		return f, err
	}
	return f, nil
}

func parseFlag(v, key string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, v)
	}
	return &b, nil
}

// Query is the inverse of ParseFilter plus the tab, for building links.
func Query(tab Tab, f model.TaskFilter) url.Values {
	q := url.Values{}
	if tab != TabAll {
		q.Set("tab", string(tab))
	}
	set := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	set("categoryId", f.CategoryID)
	set("assigneeId", f.AssigneeID)
	set("priority", string(f.Priority))
	set("search", f.Search)
	if f.IsToday != nil {
		q.Set("isToday", strconv.FormatBool(*f.IsToday))
	}
	if f.IsCompleted != nil {
		q.Set("isCompleted", strconv.FormatBool(*f.IsCompleted))
	}
	return q
}
