package service

import (
	"context"
	"fmt"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// SeedResult counts the demonstration records present after seeding.
type SeedResult struct {
	Users      int `json:"users"`
	Categories int `json:"categories"`
	Tasks      int `json:"tasks"`
}

// SeedService populates a store with demonstration data.
type SeedService struct {
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	taskRepo   *repository.TaskRepository
	tasks      *TaskService
}

func NewSeedService(users *repository.UserRepository, categories *repository.CategoryRepository, taskRepo *repository.TaskRepository, tasks *TaskService) *SeedService {
	return &SeedService{users: users, categories: categories, taskRepo: taskRepo, tasks: tasks}
}

// Seed upserts demo users and categories. Sample tasks are only inserted into
// a store without tasks, so running Seed twice changes nothing.
func (s *SeedService) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult

	people := []struct{ name, email string }{
		{DefaultActorName, DefaultActorEmail},
		{"Chulsoo Kim", "user1@example.com"},
		{"Younghee Lee", "user2@example.com"},
	}
	users := make([]*model.User, 0, len(people))
	for _, p := range people {
		email := p.email
		u, err := s.users.EnsureByEmail(ctx, model.User{Name: p.name, Email: &email})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", p.email, err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	categories := []model.Category{
		{ID: "work", Name: "Work", Color: "#3B82F6", Order: 1},
		{ID: "personal", Name: "Personal", Color: "#10B981", Order: 2},
		{ID: "shopping", Name: "Shopping", Color: "#F59E0B", Order: 3},
	}
	for i := range categories {
		if err := s.categories.Upsert(ctx, &categories[i]); err != nil {
			return res, fmt.Errorf("seed category %s: %w", categories[i].ID, err)
		}
	}
	res.Categories = len(categories)

	existing, err := s.taskRepo.Count(ctx)
	if err != nil {
		return res, err
	}
	if existing > 0 {
		return res, nil
	}

	admin := users[0].ID
	samples := []TaskInput{
		{
			Title:       "Draft the project plan",
			Description: strPtr("Write and review the plan for the new project"),
			Priority:    string(model.PriorityHigh),
			IsToday:     true,
			CategoryID:  strPtr("work"),
			AssigneeIDs: []string{users[0].ID, users[1].ID},
		},
		{
			Title:       "Work out",
			Description: strPtr("One hour at the gym"),
			Priority:    string(model.PriorityMedium),
			IsToday:     true,
			CategoryID:  strPtr("personal"),
			AssigneeIDs: []string{users[0].ID},
			RepeatRule:  &RepeatRuleInput{Type: string(model.RepeatWeekdays), Interval: 1},
		},
		{
			Title:       "Groceries",
			Description: strPtr("Weekend shopping list"),
			Priority:    string(model.PriorityLow),
			CategoryID:  strPtr("shopping"),
			AssigneeIDs: []string{users[2].ID},
			RepeatRule:  &RepeatRuleInput{Type: string(model.RepeatWeekly), Interval: 1, Days: []int{0}},
		},
	}
	for _, in := range samples {
		if _, err := s.tasks.CreateTask(ctx, admin, in); err != nil {
			return res, fmt.Errorf("seed task %q: %w", in.Title, err)
		}
		res.Tasks++
	}
	return res, nil
}

func strPtr(s string) *string { return &s }
