package docstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"hackmate/internal/model"
)

type refreshTokenRepository struct {
	client *firestore.Client
}

func (r *refreshTokenRepository) col() *firestore.CollectionRef {
	return r.client.Collection(colRefreshTokens)
}

func decodeRefreshToken(snap *firestore.DocumentSnapshot) (*model.RefreshToken, error) {
	var t model.RefreshToken
	if err := snap.DataTo(&t); err != nil {
		return nil, err
	}
	t.ID = snap.Ref.ID
	return &t, nil
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	if _, err := r.col().Doc(token.ID).Create(ctx, token); err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	tokens, err := collect(r.col().Where("tokenHash", "==", tokenHash).Limit(1).Documents(ctx), decodeRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	if len(tokens) == 0 {
		return nil, model.ErrRefreshTokenNotFound
	}
	return tokens[0], nil
}

// Revoke only touches tokens that are still active.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	ref := r.col().Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		token, err := decodeRefreshToken(snap)
		if err != nil {
			return err
		}
		if token.IsRevoked() {
			return nil
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "revokedAt", Value: time.Now().UTC()},
			{Path: "replacedBy", Value: replacedBy},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	snaps, err := r.col().Where("userId", "==", userID).Where("revokedAt", "==", nil).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to list tokens for user: %w", err)
	}
	if len(snaps) == 0 {
		return nil
	}

	now := time.Now().UTC()
	bw := r.client.BulkWriter(ctx)
	for _, snap := range snaps {
		if _, err := bw.Update(snap.Ref, []firestore.Update{{Path: "revokedAt", Value: now}}); err != nil {
			bw.End()
			return fmt.Errorf("failed to revoke all tokens for user: %w", err)
		}
	}
	bw.End()
	return nil
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	snaps, err := r.col().Where("expiresAt", "<", before).Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list expired tokens: %w", err)
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	for _, snap := range snaps {
		if _, err := bw.Delete(snap.Ref); err != nil {
			bw.End()
			return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
		}
	}
	bw.End()
	return int64(len(snaps)), nil
}
