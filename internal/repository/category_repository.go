package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskboard/internal/model"
)

// CategoryRepository manages task categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListWithCounts returns every category by ascending order, each with its task count.
func (r *CategoryRepository) ListWithCounts(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Select("categories.*, (SELECT COUNT(*) FROM tasks WHERE tasks.category_id = categories.id) AS task_count").
		Order(`categories."order" ASC`).
		Order("categories.created_at ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateNext inserts a category whose order is one past the current maximum
// (1 for the first category). The order is computed by the INSERT itself, so
// concurrent creates never read the same maximum.
func (r *CategoryRepository) CreateNext(ctx context.Context, category *model.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now()
	db := r.db.WithContext(ctx)
	err := db.Exec(
		`INSERT INTO categories (id, name, color, "order", created_at, updated_at)
		 SELECT ?, ?, ?, COALESCE(MAX("order"), 0) + 1, ?, ? FROM categories`,
		category.ID, category.Name, category.Color, now, now,
	).Error
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	if err := db.Where("id = ?", category.ID).First(category).Error; err != nil {
		return fmt.Errorf("reload category: %w", err)
	}
	return nil
}

// Upsert stores a category with a caller-chosen id, leaving an existing row untouched.
func (r *CategoryRepository) Upsert(ctx context.Context, category *model.Category) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(category).Error; err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	if err := db.Where("id = ?", category.ID).First(category).Error; err != nil {
		return fmt.Errorf("reload category: %w", err)
	}
	return nil
}
