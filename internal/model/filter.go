package model

import (
	"strings"

	"gorm.io/gorm"
)

// TaskFilter narrows a task listing. Zero-valued fields do not filter; the
// boolean flags are pointers so that "absent" differs from "false".
type TaskFilter struct {
	CategoryID  string
	AssigneeID  string
	Priority    Priority
	IsToday     *bool
	IsCompleted *bool
	Search      string
}

// taskCondition pairs a SQL predicate with its in-memory equivalent.
type taskCondition struct {
	query string
	args  []any
	match func(Task) bool
}

func (f TaskFilter) conditions() []taskCondition {
	var conds []taskCondition

	if f.CategoryID != "" {
		id := f.CategoryID
		conds = append(conds, taskCondition{
			query: "tasks.category_id = ?",
			args:  []any{id},
			match: func(t Task) bool { return t.CategoryID != nil && *t.CategoryID == id },
		})
	}
	if f.AssigneeID != "" {
		id := f.AssigneeID
		conds = append(conds, taskCondition{
			query: "EXISTS (SELECT 1 FROM task_assignees WHERE task_assignees.task_id = tasks.id AND task_assignees.user_id = ?)",
			args:  []any{id},
			match: func(t Task) bool { return t.HasAssignee(id) },
		})
	}
	if f.Priority != "" {
		p := f.Priority
		conds = append(conds, taskCondition{
			query: "tasks.priority = ?",
			args:  []any{string(p)},
			match: func(t Task) bool { return t.Priority == p },
		})
	}
	if f.IsToday != nil {
		v := *f.IsToday
		conds = append(conds, taskCondition{
			query: "tasks.is_today = ?",
			args:  []any{v},
			match: func(t Task) bool { return t.IsToday == v },
		})
	}
	if f.IsCompleted != nil {
		v := *f.IsCompleted
		conds = append(conds, taskCondition{
			query: "tasks.is_completed = ?",
			args:  []any{v},
			match: func(t Task) bool { return t.IsCompleted == v },
		})
	}
	if f.Search != "" {
		needle := FoldCase(f.Search)
		pattern := "%" + escapeLike(needle) + "%"
		conds = append(conds, taskCondition{
			query: `(` + FoldFunc + `(tasks.title) LIKE ? ESCAPE '\' OR ` + FoldFunc + `(COALESCE(tasks.description, '')) LIKE ? ESCAPE '\')`,
			args:  []any{pattern, pattern},
			match: func(t Task) bool {
				if strings.Contains(FoldCase(t.Title), needle) {
					return true
				}
				return t.Description != nil && strings.Contains(FoldCase(*t.Description), needle)
			},
		})
	}

	return conds
}

// Scope adds the filter's predicates to a query over the tasks table.
func (f TaskFilter) Scope(db *gorm.DB) *gorm.DB {
	for _, c := range f.conditions() {
		db = db.Where(c.query, c.args...)
	}
	return db
}

// Match reports whether an already loaded task passes the filter. The task
// must carry its assignees for AssigneeID to be evaluated.
func (f TaskFilter) Match(t Task) bool {
	for _, c := range f.conditions() {
		if !c.match(t) {
			return false
		}
	}
	return true
}

// Empty reports whether the filter has no active field.
func (f TaskFilter) Empty() bool {
	return len(f.conditions()) == 0
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// FoldFunc is the SQL function the store registers on every connection to
// fold text the same way FoldCase does. SQLite's LOWER only folds A-Z.
const FoldFunc = "fold_case"

// FoldCase lowers every cased letter, so "МОЛОКО" and "молоко" compare equal.
func FoldCase(s string) string {
	return strings.ToLower(s)
}
