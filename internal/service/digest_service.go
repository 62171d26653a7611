package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// DigestService builds human-readable summaries of open work.
type DigestService struct {
	taskRepo *repository.TaskRepository
}

func NewDigestService(taskRepo *repository.TaskRepository) *DigestService {
	return &DigestService{taskRepo: taskRepo}
}

// TodaySummary lists the open tasks assigned to assigneeID (all open tasks
// when empty): those marked for today, then overdue ones, then those due in
// the next 48 hours. The result is Telegram-flavoured HTML.
func (s *DigestService) TodaySummary(ctx context.Context, assigneeID string, now time.Time) (string, error) {
	open := false
	tasks, err := s.taskRepo.List(ctx, model.TaskFilter{AssigneeID: assigneeID, IsCompleted: &open})
	if err != nil {
		return "", err
	}

	var today, overdue, soon []model.Task
	for _, task := range tasks {
		switch {
		case task.IsToday:
			today = append(today, task)
		case task.DueDate != nil && now.After(*task.DueDate):
			overdue = append(overdue, task)
		case task.DueDate != nil && task.DueDate.Sub(now) <= 48*time.Hour:
			soon = append(soon, task)
		}
	}
	byDue := func(list []model.Task) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].DueDate.Before(*list[j].DueDate)
		})
	}
	byDue(overdue)
	byDue(soon)

	var builder strings.Builder
	builder.WriteString("📋 <b>Today</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	writeSection(&builder, "🔥 <b>Marked for today</b>\n", "— nothing marked for today\n", today, now)
	builder.WriteString("\n")
	writeSection(&builder, "⚠️ <b>Overdue</b>\n", "— nothing overdue\n", overdue, now)
	builder.WriteString("\n")
	writeSection(&builder, "⏳ <b>Due soon</b>\n", "— nothing due in the next two days\n", soon, now)

	return strings.TrimSpace(builder.String()), nil
}

func writeSection(b *strings.Builder, header, empty string, tasks []model.Task, now time.Time) {
	b.WriteString(header)
	if len(tasks) == 0 {
		b.WriteString(empty)
		return
	}
	for _, task := range tasks {
		b.WriteString(FormatTaskLine(task, now))
	}
}

// FormatTaskLine renders one task as an HTML line with priority, category and due date.
func FormatTaskLine(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := priorityIcon(task.Priority)
	if task.IsCompleted {
		icon = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))

	if task.Category != nil {
		if name := strings.TrimSpace(task.Category.Name); name != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
		}
	}

	if task.DueDate != nil && !task.IsCompleted {
		d := task.DueDate.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s — <b>overdue</b>", d.Format("2006-01-02")))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s · ≈%d d left", d.Format("2006-01-02"), daysLeft))
		}
	}

	if task.RepeatRule != nil {
		sb.WriteString(fmt.Sprintf("\n   ♻️ %s", task.RepeatRule.Describe()))
	}

	sb.WriteString(fmt.Sprintf("\n   <code>%s</code>", task.ID))
	sb.WriteByte('\n')
	return sb.String()
}

func priorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "🔴"
	case model.PriorityHigh:
		return "🟠"
	case model.PriorityLow:
		return "⚪"
	default:
		return "🟢"
	}
}
