package model

import (
	"fmt"
	"strings"
)

// Priority ranks tasks. Higher ranks sort first.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Priorities lists every priority from lowest to highest rank.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority accepts a priority name in any letter case.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank returns 1 for LOW through 4 for URGENT, and 0 for unknown values.
func (p Priority) Rank() int {
	for i, known := range Priorities {
		if p == known {
			return i + 1
		}
	}
	return 0
}

// priorityRankSQL mirrors Rank for ORDER BY clauses.
func priorityRankSQL(column string) string {
	var sb strings.Builder
	sb.WriteString("CASE ")
	sb.WriteString(column)
	for _, p := range Priorities {
		fmt.Fprintf(&sb, " WHEN '%s' THEN %d", p, p.Rank())
	}
	sb.WriteString(" ELSE 0 END")
	return sb.String()
}
