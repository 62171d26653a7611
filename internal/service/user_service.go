package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// Placeholder actor used when a task is created with no known user.
const (
	DefaultActorName  = "Admin"
	DefaultActorEmail = "admin@example.com"
)

// UserService lists users and resolves the actor behind a request.
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.ListAll(ctx)
}

func (s *UserService) Create(ctx context.Context, name, email string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badArgs("name is required")
	}
	user := model.User{Name: name}
	if email = strings.TrimSpace(email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, badArgs("invalid email %q", email)
		}
		user.Email = &email
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// ResolveActor returns the user acting on a request. A non-empty id must name
// an existing user. An empty id falls back to the oldest user, creating the
// placeholder user when the store has none.
func (s *UserService) ResolveActor(ctx context.Context, id string) (*model.User, error) {
	if id = strings.TrimSpace(id); id != "" {
		user, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, badArgs("unknown user %q", id)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve actor: %w", err)
		}
		return user, nil
	}

	user, err := s.repo.Oldest(ctx)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		email := DefaultActorEmail
		return s.repo.EnsureByEmail(ctx, model.User{Name: DefaultActorName, Email: &email})
	default:
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
}

// TelegramActor maps a chat user onto a stored user.
func (s *UserService) TelegramActor(ctx context.Context, telegramID int64, name string) (*model.User, error) {
	return s.repo.UpsertFromTelegram(ctx, telegramID, strings.TrimSpace(name))
}
