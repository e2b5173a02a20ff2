package service

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// FCMClient wraps the Firebase Cloud Messaging client.
//
// Mobile clients register their FCM device token through POST /devices; the
// push worker sends message notifications to every token of the recipient.
type FCMClient struct {
	client *messaging.Client
}

// NewFCMClient creates a messaging client from an initialized Firebase app.
func NewFCMClient(ctx context.Context, app *firebase.App) (*FCMClient, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	log.Printf("[FCM] Initialized")
	return &FCMClient{client: client}, nil
}

// SendToTokens sends a push notification to multiple device tokens and
// returns the tokens FCM reports as no longer registered.
//
// FCM has a limit of 500 tokens per request; a user has far fewer devices.
func (c *FCMClient) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
		Data: data,
	}

	response, err := c.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("send multicast: %w", err)
	}

	log.Printf("[FCM] Sent to %d tokens: %d success, %d failure",
		len(tokens), response.SuccessCount, response.FailureCount)

	var stale []string
	for i, resp := range response.Responses {
		if resp.Success {
			continue
		}
		if messaging.IsRegistrationTokenNotRegistered(resp.Error) {
			stale = append(stale, tokens[i])
			continue
		}
		log.Printf("[FCM] Token %d failed: %v", i, resp.Error)
	}

	return stale, nil
}
