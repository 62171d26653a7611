package model

import (
	"fmt"
	"strings"
	"time"
)

// RepeatType is the cadence of a recurring task.
type RepeatType string

const (
	RepeatDaily    RepeatType = "DAILY"
	RepeatWeekdays RepeatType = "WEEKDAYS"
	RepeatWeekly   RepeatType = "WEEKLY"
	RepeatMonthly  RepeatType = "MONTHLY"
)

// RepeatTypes lists every repeat type.
var RepeatTypes = []RepeatType{RepeatDaily, RepeatWeekdays, RepeatWeekly, RepeatMonthly}

// ParseRepeatType accepts a repeat type name in any letter case.
func ParseRepeatType(s string) (RepeatType, error) {
	rt := RepeatType(strings.ToUpper(strings.TrimSpace(s)))
	switch rt {
	case RepeatDaily, RepeatWeekdays, RepeatWeekly, RepeatMonthly:
		return rt, nil
	default:
		return "", fmt.Errorf("unknown repeat type %q", s)
	}
}

// RepeatRule is stored recurrence configuration owned by exactly one task.
// Nothing expands it into concrete occurrences.
type RepeatRule struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Type      RepeatType `gorm:"size:16;not null" json:"type"`
	Interval  int        `gorm:"not null" json:"interval"`
	Days      Weekdays   `json:"days"`
	EndDate   *time.Time `json:"endDate"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	TaskID    string     `gorm:"size:36;not null;uniqueIndex" json:"taskId"`
}

// Describe renders the rule as text, e.g. "every 2 weeks on Sun,Wed until 2026-06-01".
func (r RepeatRule) Describe() string {
	var unit string
	switch r.Type {
	case RepeatDaily:
		unit = "day"
	case RepeatWeekdays:
		unit = "weekday"
	case RepeatWeekly:
		unit = "week"
	case RepeatMonthly:
		unit = "month"
	default:
		unit = strings.ToLower(string(r.Type))
	}
	text := "every " + unit
	if r.Interval > 1 {
		text = fmt.Sprintf("every %d %ss", r.Interval, unit)
	}
	if r.Type == RepeatWeekly && !r.Days.Empty() {
		text += " on " + r.Days.String()
	}
	if r.EndDate != nil {
		text += " until " + r.EndDate.Format("2006-01-02")
	}
	return text
}
