package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hackmate/internal/config"
	"hackmate/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 3600,
		BcryptCost:         bcrypt.MinCost,
	}
}

// newAuthFixture wires an AuthService whose user store remembers created users.
func newAuthFixture() (*AuthService, *mockUserRepository, *memRefreshTokenRepository) {
	stored := map[string]*model.User{}
	repo := &mockUserRepository{}
	repo.createFn = func(ctx context.Context, user *model.User) error {
		stored[user.ID] = user
		return nil
	}
	repo.getByIDFn = func(ctx context.Context, id string) (*model.User, error) {
		if u, ok := stored[id]; ok {
			return u, nil
		}
		return nil, model.ErrUserNotFound
	}
	repo.getByEmailFn = func(ctx context.Context, email string) (*model.User, error) {
		for _, u := range stored {
			if u.Email == email {
				return u, nil
			}
		}
		return nil, model.ErrUserNotFound
	}
	repo.existsByEmailFn = func(ctx context.Context, email string) (bool, error) {
		_, err := repo.getByEmailFn(ctx, email)
		return err == nil, nil
	}
	repo.updatePasswordFn = func(ctx context.Context, id, hashed string) error {
		stored[id].PasswordHashed = hashed
		return nil
	}

	repo.deleteFn = func(ctx context.Context, id string) error {
		delete(stored, id)
		return nil
	}

	tokens := newMemRefreshTokenRepository()
	cfg := testConfig()
	svc := NewAuthService(repo, tokens, NewPasswordIdentity(repo, cfg.BcryptCost), cfg)
	return svc, repo, tokens
}

func validRegistration() *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "engine42",
		Skills:   []string{" go ", "", "rust"},
	}
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestAuthService_Register_Success(t *testing.T) {
	// ARRANGE
	svc, repo, tokens := newAuthFixture()
	req := validRegistration()

	// ACT
	session, err := svc.Register(context.Background(), req)

	// ASSERT
	require.NoError(t, err)
	require.NotNil(t, session.User)
	assert.Equal(t, session.UserID, session.User.ID)
	assert.Equal(t, model.PrivacyPublic, session.User.Privacy)
	assert.Equal(t, model.StringList{"go", "rust"}, session.User.Skills)
	assert.Empty(t, session.User.HackathonsAttended)
	assert.Zero(t, session.User.Collaborations)
	assert.Zero(t, session.User.Wins)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	// Verify the password was hashed, not stored in plain text
	require.Len(t, repo.createCalls, 1)
	assert.NotEqual(t, req.Password, repo.createCalls[0].PasswordHashed)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createCalls[0].PasswordHashed), []byte(req.Password)))

	assert.Equal(t, 1, tokens.activeFor(session.UserID))
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration())

	assert.ErrorIs(t, err, model.ErrEmailAlreadyExists)
	assert.Len(t, repo.createCalls, 1)
}

func TestAuthService_Register_RollsBackWhenSessionFails(t *testing.T) {
	// ARRANGE
	svc, repo, tokens := newAuthFixture()
	tokens.createFn = func(ctx context.Context, token *model.RefreshToken) error {
		return errors.New("token store down")
	}

	// ACT
	session, err := svc.Register(context.Background(), validRegistration())

	// ASSERT
	require.Error(t, err)
	assert.Nil(t, session)
	require.Len(t, repo.createCalls, 1)
	assert.Equal(t, []string{repo.createCalls[0].ID}, repo.deletedIDs)

	// The same email registers once the token store recovers
	tokens.createFn = nil
	session, err = svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.User.Email)
}

func TestAuthService_Sessions_GetDistinctTokenIDs(t *testing.T) {
	// ARRANGE
	svc, _, tokens := newAuthFixture()
	registered, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	// ACT
	_, err = svc.Login(context.Background(), &model.LoginRequest{Email: "ada@example.com", Password: "engine42"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), &model.LoginRequest{Email: "ada@example.com", Password: "engine42"})

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, 3, tokens.activeFor(registered.UserID))
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *model.RegisterRequest)
		field string
	}{
		{"missing name", func(r *model.RegisterRequest) { r.Name = "  " }, "name"},
		{"bad email", func(r *model.RegisterRequest) { r.Email = "ada" }, "email"},
		{"missing password", func(r *model.RegisterRequest) { r.Password = "" }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newAuthFixture()
			req := validRegistration()
			tt.edit(req)

			_, err := svc.Register(context.Background(), req)

			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, repo.createCalls)
		})
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, _ := newAuthFixture()
	registered, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), &model.LoginRequest{Email: "ada@example.com", Password: "engine42"})

	require.NoError(t, err)
	assert.Equal(t, registered.UserID, session.UserID)

	userID, err := svc.ParseAccessToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, userID)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	tests := []struct {
		name string
		req  model.LoginRequest
	}{
		{"wrong password", model.LoginRequest{Email: "ada@example.com", Password: "wrong-one"}},
		{"unknown email", model.LoginRequest{Email: "nobody@example.com", Password: "engine42"}},
		{"email differs in case", model.LoginRequest{Email: "ADA@example.com", Password: "engine42"}},
		{"empty", model.LoginRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), &tt.req)
			assert.ErrorIs(t, err, model.ErrInvalidCredentials)
		})
	}
}

// =============================================================================
// TOKEN TESTS
// =============================================================================

func TestAuthService_RefreshTokens_Rotates(t *testing.T) {
	svc, _, tokens := newAuthFixture()
	session, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	pair, userID, err := svc.RefreshTokens(context.Background(), session.RefreshToken)

	require.NoError(t, err)
	assert.Equal(t, session.UserID, userID)
	assert.NotEqual(t, session.RefreshToken, pair.RefreshToken)
	assert.Equal(t, 1, tokens.activeFor(userID))
}

func TestAuthService_RefreshTokens_ReuseRevokesFamily(t *testing.T) {
	svc, _, tokens := newAuthFixture()
	session, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	_, _, err = svc.RefreshTokens(context.Background(), session.RefreshToken)
	require.NoError(t, err)

	_, _, err = svc.RefreshTokens(context.Background(), session.RefreshToken)

	assert.ErrorIs(t, err, model.ErrRefreshTokenReused)
	assert.Equal(t, 0, tokens.activeFor(session.UserID))
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	svc, _, tokens := newAuthFixture()
	session, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	assert.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	assert.NoError(t, svc.Logout(context.Background(), ""))
	assert.NoError(t, svc.Logout(context.Background(), "never-issued"))
	assert.Equal(t, 0, tokens.activeFor(session.UserID))
}

func TestAuthService_ParseAccessToken_Rejects(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.ParseAccessToken("not-a-jwt")

	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

// =============================================================================
// CHANGE PASSWORD TESTS
// =============================================================================

func TestAuthService_ChangePassword(t *testing.T) {
	svc, repo, tokens := newAuthFixture()
	session, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), session.UserID, &model.ChangePasswordRequest{
		CurrentPassword: "engine42",
		NewPassword:     "analytical",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{session.UserID}, repo.updatePasswordIDs)
	assert.Equal(t, 0, tokens.activeFor(session.UserID))

	_, err = svc.Login(context.Background(), &model.LoginRequest{Email: "ada@example.com", Password: "engine42"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), &model.LoginRequest{Email: "ada@example.com", Password: "analytical"})
	assert.NoError(t, err)
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	session, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), session.UserID, &model.ChangePasswordRequest{
		CurrentPassword: "nope-nope",
		NewPassword:     "analytical",
	})

	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.Empty(t, repo.updatePasswordIDs)
}

func TestAuthService_ChangePassword_TooShort(t *testing.T) {
	svc, _, _ := newAuthFixture()

	err := svc.ChangePassword(context.Background(), "u1", &model.ChangePasswordRequest{
		CurrentPassword: "engine42",
		NewPassword:     "abc",
	})

	assert.ErrorIs(t, err, model.ErrValidation)
}
