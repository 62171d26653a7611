package service

import (
	"context"
	"strings"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description *string
	CategoryID  *string
	Priority    string
	DueDate     *time.Time
	IsToday     bool
	AssigneeIDs []string
	RepeatRule  *RepeatRuleInput
}

// RepeatRuleInput describes the recurrence attached at creation time.
type RepeatRuleInput struct {
	Type     string
	Interval int
	Days     []int
	EndDate  *time.Time
}

// TaskPatch is a partial update. Nil pointers and unset Nullables leave the
// field alone. A non-nil AssigneeIDs replaces the assignee set, so an empty
// slice clears it.
type TaskPatch struct {
	Title       *string
	Description Nullable[string]
	CategoryID  Nullable[string]
	Priority    *string
	DueDate     Nullable[time.Time]
	IsToday     *bool
	IsCompleted *bool
	AssigneeIDs *[]string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	repo *repository.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo *repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

// CreateTask stores a task created by actorID with its assignees and repeat
// rule in one transaction and returns the detail view.
func (s *TaskService) CreateTask(ctx context.Context, actorID string, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, badArgs("title is required")
	}
	if actorID == "" {
		return nil, badArgs("creator is required")
	}

	priority := model.PriorityMedium
	if input.Priority != "" {
		p, err := model.ParsePriority(input.Priority)
		if err != nil {
			return nil, badArgs("%v", err)
		}
		priority = p
	}

	task := model.Task{
		Title:       title,
		Description: trimmedOrNil(input.Description),
		Priority:    priority,
		DueDate:     input.DueDate,
		IsToday:     input.IsToday,
		CategoryID:  trimmedOrNil(input.CategoryID),
		CreatorID:   actorID,
	}
	for _, userID := range dedupe(input.AssigneeIDs) {
		task.Assignees = append(task.Assignees, model.TaskAssignee{UserID: userID})
	}

	if input.RepeatRule != nil {
		rule, err := buildRepeatRule(*input.RepeatRule)
		if err != nil {
			return nil, err
		}
		task.RepeatRule = rule
	}

	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, translate(err, "task")
	}
	return s.GetTask(ctx, task.ID)
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "task")
	}
	return task, nil
}

// ListTasks returns the tasks passing filter: today first, then by priority, newest first.
func (s *TaskService) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, badArgs("unknown priority %q", filter.Priority)
	}
	return s.repo.List(ctx, filter)
}

// UpdateTask applies patch and returns the updated detail view. Changing
// IsCompleted sets CompletedAt to now (true) or clears it (false).
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	fields := map[string]any{}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, badArgs("title must not be empty")
		}
		fields["title"] = title
	}
	if patch.Description.Set {
		fields["description"] = trimmedOrNil(patch.Description.Value)
	}
	if patch.CategoryID.Set {
		fields["category_id"] = trimmedOrNil(patch.CategoryID.Value)
	}
	if patch.Priority != nil {
		p, err := model.ParsePriority(*patch.Priority)
		if err != nil {
			return nil, badArgs("%v", err)
		}
		fields["priority"] = string(p)
	}
	if patch.DueDate.Set {
		fields["due_date"] = patch.DueDate.Value
	}
	if patch.IsToday != nil {
		fields["is_today"] = *patch.IsToday
	}
	if patch.IsCompleted != nil {
		fields["is_completed"] = *patch.IsCompleted
		if *patch.IsCompleted {
			now := s.now()
			fields["completed_at"] = &now
		} else {
			fields["completed_at"] = (*time.Time)(nil)
		}
	}

	changes := repository.TaskChanges{Fields: fields}
	if patch.AssigneeIDs != nil {
		ids := dedupe(*patch.AssigneeIDs)
		changes.AssigneeIDs = &ids
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, translate(err, "task")
	}
	return s.GetTask(ctx, id)
}

// SetCompleted is UpdateTask limited to the completion flag.
func (s *TaskService) SetCompleted(ctx context.Context, id string, completed bool) (*model.Task, error) {
	return s.UpdateTask(ctx, id, TaskPatch{IsCompleted: &completed})
}

// SetToday is UpdateTask limited to the today flag.
func (s *TaskService) SetToday(ctx context.Context, id string, today bool) (*model.Task, error) {
	return s.UpdateTask(ctx, id, TaskPatch{IsToday: &today})
}

// DeleteTask removes a task with its assignees and repeat rule. Deleting a
// missing task reports ErrNotFound.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	return translate(s.repo.Delete(ctx, id), "task")
}

func buildRepeatRule(in RepeatRuleInput) (*model.RepeatRule, error) {
	rt, err := model.ParseRepeatType(in.Type)
	if err != nil {
		return nil, badArgs("%v", err)
	}
	interval := in.Interval
	switch {
	case interval == 0:
		interval = 1
	case interval < 0:
		return nil, badArgs("repeat interval must be positive, got %d", interval)
	}
	days, err := model.NewWeekdays(in.Days...)
	if err != nil {
		return nil, badArgs("%v", err)
	}
	if rt != model.RepeatWeekly {
		days = 0
	}
	return &model.RepeatRule{
		Type:     rt,
		Interval: interval,
		Days:     days,
		EndDate:  in.EndDate,
	}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
