package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"hackmate/internal/model"
)

// NewFirebaseApp initializes the Admin SDK from service account fields.
//
// The private key in .env has literal "\n" strings, so we replace them with
// actual newlines before building the credentials JSON.
func NewFirebaseApp(ctx context.Context, projectID, clientEmail, privateKey string) (*firebase.App, error) {
	privateKey = strings.ReplaceAll(privateKey, "\\n", "\n")

	credsJSON := fmt.Sprintf(`{
		"type": "service_account",
		"project_id": %q,
		"private_key": %q,
		"client_email": %q,
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, projectID, privateKey, clientEmail)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credsJSON)))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	log.Printf("[Firebase] Initialized for project: %s", projectID)
	return app, nil
}

// FirebaseIdentity delegates secrets to Firebase Authentication. Accounts are
// created through the Admin SDK; password sign-in goes through the Identity
// Toolkit API with the project's web API key.
type FirebaseIdentity struct {
	auth    *auth.Client
	toolkit *identitytoolkit.Service
}

func NewFirebaseIdentity(ctx context.Context, app *firebase.App, apiKey string) (*FirebaseIdentity, error) {
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("get auth client: %w", err)
	}

	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create identity toolkit service: %w", err)
	}

	return &FirebaseIdentity{auth: authClient, toolkit: toolkit}, nil
}

func (f *FirebaseIdentity) SignUp(ctx context.Context, email, secret string) (*Identity, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(secret)

	record, err := f.auth.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, model.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("firebase create user: %w", err)
	}

	log.Printf("[FirebaseIdentity] SignUp OK: uid=%s", record.UID)
	return &Identity{UID: record.UID}, nil
}

func (f *FirebaseIdentity) SignIn(ctx context.Context, email, secret string) (string, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          secret,
		ReturnSecureToken: true,
	}

	resp, err := f.toolkit.Relyingparty.VerifyPassword(req).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			return "", model.ErrInvalidCredentials
		}
		return "", fmt.Errorf("firebase verify password: %w", err)
	}
	return resp.LocalId, nil
}

func (f *FirebaseIdentity) ChangeSecret(ctx context.Context, user *model.User, current, next string) (string, error) {
	uid, err := f.SignIn(ctx, user.Email, current)
	if err != nil {
		return "", err
	}
	if uid != user.ID {
		return "", model.ErrInvalidCredentials
	}

	if _, err := f.auth.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(next)); err != nil {
		return "", fmt.Errorf("firebase update password: %w", err)
	}
	return "", nil
}

func (f *FirebaseIdentity) Remove(ctx context.Context, uid string) error {
	if err := f.auth.DeleteUser(ctx, uid); err != nil && !auth.IsUserNotFound(err) {
		return fmt.Errorf("firebase delete user: %w", err)
	}
	return nil
}
