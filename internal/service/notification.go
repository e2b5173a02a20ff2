package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"hackmate/internal/model"
	"hackmate/internal/repository"
)

// previewRunes bounds the message body shown in a push notification.
const previewRunes = 80

// Pusher delivers push notifications to device tokens. FCMClient implements it.
type Pusher interface {
	// SendToTokens returns the tokens that are no longer registered.
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error)
}

// NotificationService manages device tokens and sends message pushes.
type NotificationService struct {
	tokenRepo repository.DeviceTokenRepository
	pusher    Pusher // Can be nil if push not configured
}

func NewNotificationService(tokenRepo repository.DeviceTokenRepository, pusher Pusher) *NotificationService {
	return &NotificationService{
		tokenRepo: tokenRepo,
		pusher:    pusher,
	}
}

// RegisterDeviceToken stores or updates a device's push token.
//
// The token is unique, so if the same token exists for a different user,
// it will be reassigned to the current user (device changed hands).
func (s *NotificationService) RegisterDeviceToken(ctx context.Context, userID string, req *model.RegisterTokenRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return model.NewValidationError("token", "token is required")
	}
	if !model.ValidPlatform(req.Platform) {
		return model.NewValidationError("platform", "platform must be ios, android or web")
	}

	if err := s.tokenRepo.Upsert(ctx, userID, token, req.Platform); err != nil {
		return err
	}
	log.Printf("[NotificationService] RegisterDeviceToken OK: user=%s platform=%s", userID, req.Platform)
	return nil
}

// RemoveDeviceToken removes a device token (e.g., on logout).
func (s *NotificationService) RemoveDeviceToken(ctx context.Context, token string) error {
	return s.tokenRepo.Delete(ctx, token)
}

// NotifyMessage pushes a new-message notification to every device of
// recipientID. Stale tokens are removed.
func (s *NotificationService) NotifyMessage(ctx context.Context, recipientID, conversationID, senderName, content string) error {
	if s.pusher == nil {
		return nil
	}

	tokens, err := s.tokenRepo.GetByUserID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("get device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil // User has no registered devices
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	data := map[string]string{
		"type":            "message",
		"conversation_id": conversationID,
	}

	stale, err := s.pusher.SendToTokens(ctx, tokenStrings, senderName, preview(content), data)
	if err != nil {
		return err
	}

	for _, t := range stale {
		if err := s.tokenRepo.Delete(ctx, t); err != nil {
			log.Printf("[NotificationService] Failed to delete stale token: user=%s err=%v", recipientID, err)
		}
	}
	return nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewRunes]) + "…"
}
