package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"hackmate/internal/model"
)

type messageRepository struct {
	client *firestore.Client
}

// log returns the messages subcollection of a chat.
func (r *messageRepository) log(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(colChats).Doc(conversationID).Collection(colMessages)
}

func decodeMessage(snap *firestore.DocumentSnapshot) (model.Message, error) {
	var m model.Message
	if err := snap.DataTo(&m); err != nil {
		return model.Message{}, err
	}
	m.ID = snap.Ref.ID
	return m, nil
}

func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	if _, err := r.log(m.ConversationID).Doc(m.ID).Create(ctx, m); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *messageRepository) ListAfter(ctx context.Context, conversationID string, after *model.MessageCursor, limit int) ([]model.Message, error) {
	q := r.log(conversationID).
		OrderBy("createdAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)
	if after != nil {
		q = q.StartAfter(after.CreatedAt, after.ID)
	}

	messages, err := collect(q.Limit(limit).Documents(ctx), decodeMessage)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
