package service

import (
	"context"
	"log"
	"time"

	"hackmate/internal/model"
	"hackmate/internal/repository"
)

// UserService handles business logic for user profiles
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetByID retrieves a user by ID without any privacy projection.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetProfile returns the view of userID that viewerID is allowed to see.
func (s *UserService) GetProfile(ctx context.Context, userID, viewerID string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.VisibleTo(viewerID), nil
}

// UpdateProfile merges update into the stored profile. Ownership is checked
// by the caller.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update *model.ProfileUpdate) (*model.User, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return user, nil
	}

	update.Apply(user)
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[UserService] UpdateProfile OK: user=%s", userID)
	return user, nil
}

// Count returns the number of registered users.
func (s *UserService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
