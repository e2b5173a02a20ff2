package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackmate/internal/model"
)

func strPtr(s string) *string { return &s }

func TestUserService_GetProfile_PrivateProjection(t *testing.T) {
	// ARRANGE
	avatar := "https://cdn.example.com/a.png"
	private := &model.User{
		ID:        "u1",
		Name:      "Linus",
		Email:     "linus@example.com",
		Github:    "torvalds",
		AvatarURL: &avatar,
		Privacy:   model.PrivacyPrivate,
		Skills:    model.StringList{"c"},
		Wins:      3,
	}
	svc := NewUserService(&mockUserRepository{getByIDFn: usersByID(private)})

	// ACT
	asStranger, err := svc.GetProfile(context.Background(), "u1", "someone")
	require.NoError(t, err)
	asOwner, err := svc.GetProfile(context.Background(), "u1", "u1")
	require.NoError(t, err)

	// ASSERT
	assert.Equal(t, "Linus", asStranger.Name)
	assert.Equal(t, &avatar, asStranger.AvatarURL)
	assert.Empty(t, asStranger.Email)
	assert.Empty(t, asStranger.Github)
	assert.Empty(t, asStranger.Skills)
	assert.Zero(t, asStranger.Wins)

	assert.Equal(t, "linus@example.com", asOwner.Email)
	assert.Equal(t, 3, asOwner.Wins)
}

func TestUserService_GetProfile_NotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepository{})

	_, err := svc.GetProfile(context.Background(), "missing", "viewer")

	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserService_UpdateProfile_MergesFields(t *testing.T) {
	// ARRANGE
	repo := &mockUserRepository{getByIDFn: usersByID(&model.User{
		ID:      "u1",
		Name:    "Old",
		Github:  "old-gh",
		Privacy: model.PrivacyPublic,
	})}
	svc := NewUserService(repo)
	skills := []string{"go", " ", "sql"}

	// ACT
	updated, err := svc.UpdateProfile(context.Background(), "u1", &model.ProfileUpdate{
		Name:    strPtr("  New Name "),
		Privacy: strPtr(model.PrivacyPrivate),
		Skills:  &skills,
	})

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "old-gh", updated.Github)
	assert.Equal(t, model.PrivacyPrivate, updated.Privacy)
	assert.Equal(t, model.StringList{"go", "sql"}, updated.Skills)
	require.Len(t, repo.updateCalls, 1)
}

func TestUserService_UpdateProfile_Invalid(t *testing.T) {
	repo := &mockUserRepository{getByIDFn: usersByID(&model.User{ID: "u1", Name: "A"})}
	svc := NewUserService(repo)

	_, err := svc.UpdateProfile(context.Background(), "u1", &model.ProfileUpdate{Privacy: strPtr("friends-only")})

	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, repo.updateCalls)
}
