package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hackmate/internal/model"
	"hackmate/internal/repository"
)

// Identity is the result of a successful sign-up with an identity provider.
type Identity struct {
	// UID becomes the User id.
	UID string
	// PasswordHashed is stored on the User when the provider does not keep
	// secrets itself.
	PasswordHashed string
}

// IdentityProvider verifies email+secret pairs and hands out the stable id
// that the Identity Store uses as the User id.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, secret string) (*Identity, error)
	// SignIn returns the uid bound to email, or model.ErrInvalidCredentials.
	SignIn(ctx context.Context, email, secret string) (string, error)
	// ChangeSecret verifies current and installs next. The returned hash is
	// empty when the provider keeps the secret.
	ChangeSecret(ctx context.Context, user *model.User, current, next string) (string, error)
	// Remove undoes a SignUp whose profile or session could not be stored.
	Remove(ctx context.Context, uid string) error
}

// PasswordIdentity keeps bcrypt hashes on the User row.
type PasswordIdentity struct {
	users repository.UserRepository
	cost  int
}

func NewPasswordIdentity(users repository.UserRepository, cost int) *PasswordIdentity {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordIdentity{users: users, cost: cost}
}

func (p *PasswordIdentity) SignUp(ctx context.Context, email, secret string) (*Identity, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &Identity{UID: uuid.NewString(), PasswordHashed: string(hashed)}, nil
}

func (p *PasswordIdentity) SignIn(ctx context.Context, email, secret string) (string, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Don't reveal whether the email exists
			return "", model.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(secret)); err != nil {
		return "", model.ErrInvalidCredentials
	}
	return user.ID, nil
}

func (p *PasswordIdentity) ChangeSecret(ctx context.Context, user *model.User, current, next string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(current)); err != nil {
		return "", model.ErrInvalidCredentials
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Remove is a no-op: nothing outlives a failed profile insert.
func (p *PasswordIdentity) Remove(ctx context.Context, uid string) error {
	return nil
}
