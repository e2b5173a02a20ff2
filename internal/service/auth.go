package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hackmate/internal/config"
	"hackmate/internal/model"
	"hackmate/internal/repository"
)

// AuthService handles registration, login and sessions with refresh token
// rotation and reuse detection.
type AuthService struct {
	users            repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	identity         IdentityProvider
	config           *config.Config
}

func NewAuthService(
	users repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	identity IdentityProvider,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		users:            users,
		refreshTokenRepo: refreshTokenRepo,
		identity:         identity,
		config:           cfg,
	}
}

// Register creates the identity and the profile, then opens a session.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailAlreadyExists
	}

	identity, err := s.identity.SignUp(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	avatar := req.AvatarURL
	if avatar == nil && s.config.DefaultAvatarURL != "" {
		def := s.config.DefaultAvatarURL
		avatar = &def
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:                 identity.UID,
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		PasswordHashed:     identity.PasswordHashed,
		Github:             req.Github,
		AvatarURL:          avatar,
		Privacy:            model.PrivacyPublic,
		Skills:             model.SplitList(strings.Join(req.Skills, ",")),
		HackathonsAttended: model.StringList{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if rmErr := s.identity.Remove(ctx, identity.UID); rmErr != nil {
			log.Printf("[AuthService] Register rollback FAILED: uid=%s err=%v", identity.UID, rmErr)
		}
		return nil, err
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		s.rollbackRegister(ctx, user.ID)
		return nil, err
	}

	log.Printf("[AuthService] Register OK: user=%s", user.ID)
	return session, nil
}

// rollbackRegister removes the profile and the identity of a registration
// that could not open its session.
func (s *AuthService) rollbackRegister(ctx context.Context, uid string) {
	if err := s.users.Delete(ctx, uid); err != nil {
		log.Printf("[AuthService] Register rollback FAILED: user=%s err=%v", uid, err)
	}
	if err := s.identity.Remove(ctx, uid); err != nil {
		log.Printf("[AuthService] Register rollback FAILED: uid=%s err=%v", uid, err)
	}
}

// Login verifies the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, model.ErrInvalidCredentials
	}

	uid, err := s.identity.SignIn(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Identity without a profile
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	return s.openSession(ctx, user)
}

// Logout revokes the presented refresh token. Missing or unknown tokens are
// not an error.
func (s *AuthService) Logout(ctx context.Context, refreshTokenRaw string) error {
	if refreshTokenRaw == "" {
		return nil
	}
	err := s.RevokeRefreshToken(ctx, refreshTokenRaw)
	if errors.Is(err, model.ErrRefreshTokenNotFound) {
		return nil
	}
	return err
}

// ChangePassword verifies current and installs next.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req *model.ChangePasswordRequest) error {
	if len(req.NewPassword) < model.MinSecretLength {
		return model.NewValidationError("new_password", fmt.Sprintf("password must be at least %d characters", model.MinSecretLength))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hashed, err := s.identity.ChangeSecret(ctx, user, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	if hashed != "" {
		if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
			return err
		}
	}

	// Sessions opened with the old password are cut off
	if err := s.RevokeAllUserTokens(ctx, userID); err != nil {
		log.Printf("[AuthService] ChangePassword revoke FAILED: user=%s err=%v", userID, err)
	}
	log.Printf("[AuthService] ChangePassword OK: user=%s", userID)
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *model.User) (*model.Session, error) {
	pair, err := s.GenerateTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		UserID:       user.ID,
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// GenerateTokenPair issues a new access token and persists a refresh token.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID string) (*model.TokenPair, error) {
	pair, _, err := s.issueTokenPair(ctx, userID)
	return pair, err
}

// issueTokenPair also returns the id of the stored refresh token.
func (s *AuthService) issueTokenPair(ctx context.Context, userID string) (*model.TokenPair, string, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshTokenRaw := uuid.New().String()

	now := time.Now().UTC()
	refreshToken := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: s.hashToken(refreshTokenRaw),
		ExpiresAt: now.Add(time.Duration(s.config.RefreshTokenMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, refreshToken.ID, nil
}

// RefreshTokens validates the refresh token and rotates a new pair.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshTokenRaw string) (*model.TokenPair, string, error) {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, s.hashToken(refreshTokenRaw))
	if err != nil {
		return nil, "", model.ErrRefreshTokenNotFound
	}

	if token.IsRevoked() {
		if err := s.revokeTokenFamily(ctx, token); err != nil {
			log.Printf("[AuthService] Reuse revoke FAILED: user=%s err=%v", token.UserID, err)
		}
		return nil, "", model.ErrRefreshTokenReused
	}

	if token.IsExpired() {
		return nil, "", model.ErrRefreshTokenExpired
	}

	newTokenPair, newTokenID, err := s.issueTokenPair(ctx, token.UserID)
	if err != nil {
		return nil, "", err
	}

	if err := s.refreshTokenRepo.Revoke(ctx, token.ID, &newTokenID); err != nil {
		log.Printf("[AuthService] Rotate revoke FAILED: token=%s err=%v", token.ID, err)
	}

	return newTokenPair, token.UserID, nil
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshTokenRaw string) error {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, s.hashToken(refreshTokenRaw))
	if err != nil {
		return err
	}
	if token.IsRevoked() {
		return nil
	}
	return s.refreshTokenRepo.Revoke(ctx, token.ID, nil)
}

func (s *AuthService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return s.refreshTokenRepo.RevokeAllForUser(ctx, userID)
}

// PurgeExpiredTokens removes refresh tokens that expired before cutoff.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.refreshTokenRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	if n > 0 {
		log.Printf("[AuthService] Purged expired refresh tokens: count=%d", n)
	}
	return n, nil
}

// ParseAccessToken validates tokenString and returns the user id it carries.
func (s *AuthService) ParseAccessToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", model.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", model.ErrUnauthenticated
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", model.ErrUnauthenticated
	}
	return userID, nil
}

func (s *AuthService) revokeTokenFamily(ctx context.Context, token *model.RefreshToken) error {
	if err := s.refreshTokenRepo.RevokeAllForUser(ctx, token.UserID); err != nil {
		return fmt.Errorf("failed to revoke token family: %w", err)
	}
	return nil
}

func (s *AuthService) generateAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
