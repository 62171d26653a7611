package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"taskboard/internal/service"
)

type CreateCategoryIn struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CreateUserIn struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RepeatRuleIn struct {
	Type     string     `json:"type"`
	Interval int        `json:"interval"`
	Days     []int      `json:"days"`
	EndDate  *Timestamp `json:"endDate"`
}

type CreateTaskIn struct {
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	CategoryID  *string       `json:"categoryId"`
	Priority    string        `json:"priority"`
	DueDate     *Timestamp    `json:"dueDate"`
	IsToday     bool          `json:"isToday"`
	AssigneeIDs []string      `json:"assigneeIds"`
	RepeatRule  *RepeatRuleIn `json:"repeatRule"`
}

// UpdateTaskIn is a partial update: absent fields stay unchanged, null
// clears the nullable ones.
type UpdateTaskIn struct {
	Title       *string                     `json:"title"`
	Description service.Nullable[string]    `json:"description"`
	CategoryID  service.Nullable[string]    `json:"categoryId"`
	Priority    *string                     `json:"priority"`
	DueDate     service.Nullable[Timestamp] `json:"dueDate"`
	IsToday     *bool                       `json:"isToday"`
	IsCompleted *bool                       `json:"isCompleted"`
	AssigneeIDs *[]string                   `json:"assigneeIds"`
}

// Timestamp accepts RFC 3339 timestamps and plain dates (2006-01-02, read
// as UTC midnight). An empty string is the zero value.
type Timestamp time.Time

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if v, err := time.Parse(layout, s); err == nil {
			*t = Timestamp(v)
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (t *Timestamp) ptr() *time.Time {
	if t == nil || time.Time(*t).IsZero() {
		return nil
	}
	v := time.Time(*t)
	return &v
}

func (in CreateTaskIn) toInput() service.TaskInput {
	out := service.TaskInput{
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Priority:    in.Priority,
		DueDate:     in.DueDate.ptr(),
		IsToday:     in.IsToday,
		AssigneeIDs: in.AssigneeIDs,
	}
	if in.RepeatRule != nil {
		out.RepeatRule = &service.RepeatRuleInput{
			Type:     in.RepeatRule.Type,
			Interval: in.RepeatRule.Interval,
			Days:     in.RepeatRule.Days,
			EndDate:  in.RepeatRule.EndDate.ptr(),
		}
	}
	return out
}

func (in UpdateTaskIn) toPatch() service.TaskPatch {
	p := service.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Priority:    in.Priority,
		IsToday:     in.IsToday,
		IsCompleted: in.IsCompleted,
		AssigneeIDs: in.AssigneeIDs,
	}
	if in.DueDate.Set {
		p.DueDate = service.Nullable[time.Time]{Set: true, Value: in.DueDate.Value.ptr()}
	}
	return p
}
