package service

import (
	"context"
	"strings"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const defaultCategoryColor = "#6B7280"

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns categories by display order with their task counts.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListWithCounts(ctx)
}

// Create appends a category after the last one in display order.
func (s *CategoryService) Create(ctx context.Context, name, color string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badArgs("name is required")
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = defaultCategoryColor
	}

	category := model.Category{Name: name, Color: color}
	if err := s.repo.CreateNext(ctx, &category); err != nil {
		return nil, translate(err, "category")
	}
	return &category, nil
}
