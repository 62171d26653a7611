package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// MissingReferenceError reports ids a task refers to that do not exist.
type MissingReferenceError struct {
	Kind string
	IDs  []string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.Kind, strings.Join(e.IDs, ", "))
}

// TaskChanges is a partial task update. Fields holds column values keyed by
// column name; AssigneeIDs, when non-nil, replaces the whole assignee set.
type TaskChanges struct {
	Fields      map[string]any
	AssigneeIDs *[]string
}

// TaskRepository handles CRUD for tasks and the rows they own.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create stores the task together with its assignees and repeat rule, all or nothing.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if task.CategoryID != nil {
			if err := checkRefs(tx, "category", &model.Category{}, []string{*task.CategoryID}); err != nil {
				return err
			}
		}
		if err := checkRefs(tx, "user", &model.User{}, append([]string{task.CreatorID}, task.AssigneeIDs()...)); err != nil {
			return err
		}
		return tx.Omit("Category", "Creator").Create(task).Error
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Get returns the task with its category, creator, assignees and repeat rule.
func (r *TaskRepository) Get(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Scopes(model.DetailPreloads).Where("tasks.id = ?", id).First(&task).Error; err != nil {
		return nil, fmt.Errorf("find task %s: %w", id, err)
	}
	normalize(&task)
	return &task, nil
}

// List returns the tasks passing filter in display order, fully loaded.
func (r *TaskRepository) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Scopes(model.DetailPreloads, filter.Scope, model.DetailOrder).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		normalize(&tasks[i])
	}
	return tasks, nil
}

// Update applies changes in one transaction. The assignee set is replaced
// before the task columns are written.
func (r *TaskRepository) Update(ctx context.Context, id string, changes TaskChanges) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Task
		if err := tx.Select("id").Where("id = ?", id).First(&existing).Error; err != nil {
			return err
		}

		if v, ok := changes.Fields["category_id"]; ok {
			if categoryID, isSet := v.(*string); isSet && categoryID != nil {
				if err := checkRefs(tx, "category", &model.Category{}, []string{*categoryID}); err != nil {
					return err
				}
			}
		}

		if changes.AssigneeIDs != nil {
			ids := *changes.AssigneeIDs
			if err := checkRefs(tx, "user", &model.User{}, ids); err != nil {
				return err
			}
			if err := tx.Where("task_id = ?", id).Delete(&model.TaskAssignee{}).Error; err != nil {
				return fmt.Errorf("clear assignees: %w", err)
			}
			if len(ids) > 0 {
				rows := make([]model.TaskAssignee, 0, len(ids))
				for _, userID := range ids {
					rows = append(rows, model.TaskAssignee{TaskID: id, UserID: userID})
				}
				if err := tx.Omit("User").Create(&rows).Error; err != nil {
					return fmt.Errorf("insert assignees: %w", err)
				}
			}
		}

		if len(changes.Fields) > 0 {
			if err := tx.Model(&model.Task{ID: id}).Updates(changes.Fields).Error; err != nil {
				return fmt.Errorf("update columns: %w", err)
			}
		} else if changes.AssigneeIDs != nil {
			if err := tx.Model(&model.Task{ID: id}).Update("updated_at", tx.NowFunc()).Error; err != nil {
				return fmt.Errorf("touch task: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

// Delete removes the task, its assignees and its repeat rule. The child rows
// are deleted explicitly as well as through the foreign key cascade.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.TaskAssignee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.RepeatRule{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func checkRefs(tx *gorm.DB, kind string, table any, ids []string) error {
	missing, err := missingIDs(tx, table, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &MissingReferenceError{Kind: kind, IDs: missing}
	}
	return nil
}

// normalize makes an unassigned task serialize its assignees as [] rather than null.
func normalize(task *model.Task) {
	if task.Assignees == nil {
		task.Assignees = []model.TaskAssignee{}
	}
}
