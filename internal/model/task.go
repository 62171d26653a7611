package model

import (
	"time"

	"gorm.io/gorm"
)

// Task represents a single to-do item. CompletedAt is set exactly when IsCompleted is true.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description *string    `json:"description"`
	Priority    Priority   `gorm:"size:16;not null;index" json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	IsToday     bool       `gorm:"not null;index" json:"isToday"`
	IsCompleted bool       `gorm:"not null;index" json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt"`
	CategoryID  *string    `gorm:"size:36;index" json:"categoryId"`
	CreatorID   string     `gorm:"size:36;not null;index" json:"creatorId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Category   *Category      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"category"`
	Creator    *User          `gorm:"foreignKey:CreatorID;constraint:OnDelete:RESTRICT" json:"creator"`
	Assignees  []TaskAssignee `gorm:"constraint:OnDelete:CASCADE" json:"assignees"`
	RepeatRule *RepeatRule    `gorm:"constraint:OnDelete:CASCADE" json:"repeatRule"`
}

// TaskAssignee links a task to one assigned user.
type TaskAssignee struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	TaskID string `gorm:"size:36;not null;uniqueIndex:idx_task_assignee" json:"taskId"`
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_task_assignee;index" json:"userId"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"user"`
}

// DetailPreloads attaches everything a task detail response carries.
func DetailPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Creator").
		Preload("Assignees.User").
		Preload("RepeatRule")
}

// DetailOrder sorts tasks: today first, then by priority rank, newest first.
func DetailOrder(db *gorm.DB) *gorm.DB {
	return db.
		Order("tasks.is_today DESC").
		Order(priorityRankSQL("tasks.priority") + " DESC").
		Order("tasks.created_at DESC")
}

// AssigneeIDs returns the ids of the assigned users.
func (t Task) AssigneeIDs() []string {
	ids := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.UserID)
	}
	return ids
}

// HasAssignee reports whether userID is among the task's assignees.
func (t Task) HasAssignee(userID string) bool {
	for _, a := range t.Assignees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
