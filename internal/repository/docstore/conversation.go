package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"hackmate/internal/model"
)

type conversationRepository struct {
	client *firestore.Client
}

func (r *conversationRepository) col() *firestore.CollectionRef {
	return r.client.Collection(colChats)
}

func decodeConversation(snap *firestore.DocumentSnapshot) (model.Conversation, error) {
	var c model.Conversation
	if err := snap.DataTo(&c); err != nil {
		return model.Conversation{}, err
	}
	c.ID = snap.Ref.ID
	return c, nil
}

// Create looks the pair up and writes the chat in one transaction, so two
// racing creators end up with a single chat.
func (r *conversationRepository) Create(ctx context.Context, c *model.Conversation) error {
	if len(c.ParticipantIDs) != 2 {
		return fmt.Errorf("conversation needs exactly two participants, got %d", len(c.ParticipantIDs))
	}
	a, b := model.SortedPair(c.ParticipantIDs[0], c.ParticipantIDs[1])
	c.ParticipantIDs = []string{a, b}
	c.PairKey = model.PairKey(a, b)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(r.col().Where("pairKey", "==", c.PairKey).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return model.ErrConversationExists
		}
		return tx.Create(r.col().Doc(c.ID), c)
	})
	if err != nil {
		if errors.Is(err, model.ErrConversationExists) {
			return err
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	c, err := decodeConversation(snap)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepository) FindByPair(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	q := r.col().Where("pairKey", "==", model.PairKey(userA, userB)).Limit(1)
	convs, err := collect(q.Documents(ctx), decodeConversation)
	if err != nil {
		return nil, fmt.Errorf("find conversation by pair: %w", err)
	}
	if len(convs) == 0 {
		return nil, model.ErrConversationNotFound
	}
	return &convs[0], nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	q := r.col().Where("participantIds", "array-contains", userID).OrderBy("updatedAt", firestore.Desc)
	convs, err := collect(q.Documents(ctx), decodeConversation)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

func (r *conversationRepository) UpdatePreview(ctx context.Context, id, preview string, at time.Time) error {
	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: preview},
		{Path: "updatedAt", Value: at},
	})
	if err != nil {
		if isNotFound(err) {
			return model.ErrConversationNotFound
		}
		return fmt.Errorf("update conversation preview: %w", err)
	}
	return nil
}
