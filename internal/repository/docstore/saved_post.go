package docstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"hackmate/internal/model"
)

// savedPostRepository stores saved posts under users/{uid}/saved/{postId}.
type savedPostRepository struct {
	client *firestore.Client
}

func (r *savedPostRepository) col(userID string) *firestore.CollectionRef {
	return r.client.Collection(colUsers).Doc(userID).Collection(colSaved)
}

func (r *savedPostRepository) Save(ctx context.Context, userID, postID string) error {
	doc := model.SavedPost{UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}
	if _, err := r.col(userID).Doc(postID).Create(ctx, doc); err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

func (r *savedPostRepository) Remove(ctx context.Context, userID, postID string) error {
	if _, err := r.col(userID).Doc(postID).Delete(ctx); err != nil {
		return fmt.Errorf("remove saved post: %w", err)
	}
	return nil
}

func (r *savedPostRepository) ListPostIDs(ctx context.Context, userID string) ([]string, error) {
	q := r.col(userID).OrderBy("createdAt", firestore.Desc)
	ids, err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) (string, error) {
		return snap.Ref.ID, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	return ids, nil
}
