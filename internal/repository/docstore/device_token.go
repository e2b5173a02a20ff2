package docstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"hackmate/internal/model"
)

// deviceTokenRepository keys documents by the push token itself.
type deviceTokenRepository struct {
	client *firestore.Client
}

func (r *deviceTokenRepository) col() *firestore.CollectionRef {
	return r.client.Collection(colDeviceTokens)
}

func (r *deviceTokenRepository) Upsert(ctx context.Context, userID, token, platform string) error {
	ref := r.col().Doc(token)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		doc := model.DeviceToken{UserID: userID, Platform: platform, CreatedAt: now, UpdatedAt: now}

		snap, err := tx.Get(ref)
		if err != nil && !isNotFound(err) {
			return err
		}
		if err == nil {
			var existing model.DeviceToken
			if err := snap.DataTo(&existing); err == nil {
				doc.CreatedAt = existing.CreatedAt
			}
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return fmt.Errorf("upsert device token: %w", err)
	}
	return nil
}

func (r *deviceTokenRepository) GetByUserID(ctx context.Context, userID string) ([]model.DeviceToken, error) {
	q := r.col().Where("userId", "==", userID).OrderBy("updatedAt", firestore.Desc)
	tokens, err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) (model.DeviceToken, error) {
		var t model.DeviceToken
		if err := snap.DataTo(&t); err != nil {
			return model.DeviceToken{}, err
		}
		t.Token = snap.Ref.ID
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get device tokens: %w", err)
	}
	return tokens, nil
}

func (r *deviceTokenRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.col().Doc(token).Delete(ctx); err != nil {
		return fmt.Errorf("delete device token: %w", err)
	}
	return nil
}
