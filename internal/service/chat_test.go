package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackmate/internal/model"
	"hackmate/internal/queue"
)

var (
	alice = &model.User{ID: "alice", Name: "Alice"}
	bob   = &model.User{ID: "bob", Name: "Bob"}
)

func testConversation() *model.Conversation {
	return &model.Conversation{
		ID:             "conv-1",
		ParticipantIDs: []string{"alice", "bob"},
		PairKey:        model.PairKey("alice", "bob"),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}

// =============================================================================
// START TESTS
// =============================================================================

func TestChatService_Start_CreatesOnce(t *testing.T) {
	// ARRANGE
	var created *model.Conversation
	convs := &mockConversationRepository{
		findByPairFn: func(ctx context.Context, a, b string) (*model.Conversation, error) {
			if created != nil && created.PairKey == model.PairKey(a, b) {
				return created, nil
			}
			return nil, model.ErrConversationNotFound
		},
		createFn: func(ctx context.Context, conv *model.Conversation) error {
			created = conv
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := NewChatService(convs, &memMessageRepository{}, &mockUserRepository{getByIDFn: usersByID(alice, bob)}, publisher)

	// ACT
	first, err1 := svc.Start(context.Background(), "bob", "alice")
	second, err2 := svc.Start(context.Background(), "alice", "bob")

	// ASSERT
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
	require.Len(t, convs.createCalls, 1)
	assert.Equal(t, []string{"alice", "bob"}, convs.createCalls[0].ParticipantIDs)
	assert.Equal(t, "alice:bob", convs.createCalls[0].PairKey)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, queue.EventConversationStarted, publisher.events[0].Type)
}

func TestChatService_Start_Self(t *testing.T) {
	convs := &mockConversationRepository{}
	svc := NewChatService(convs, &memMessageRepository{}, &mockUserRepository{getByIDFn: usersByID(alice)}, nil)

	_, err := svc.Start(context.Background(), "alice", "alice")

	assert.ErrorIs(t, err, model.ErrSelfConversation)
	assert.Empty(t, convs.createCalls)
}

func TestChatService_Start_UnknownUser(t *testing.T) {
	svc := NewChatService(&mockConversationRepository{}, &memMessageRepository{}, &mockUserRepository{getByIDFn: usersByID(alice)}, nil)

	_, err := svc.Start(context.Background(), "alice", "ghost")

	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestChatService_Start_LosesRace(t *testing.T) {
	winner := testConversation()
	lookups := 0
	convs := &mockConversationRepository{
		findByPairFn: func(ctx context.Context, a, b string) (*model.Conversation, error) {
			lookups++
			if lookups == 1 {
				return nil, model.ErrConversationNotFound
			}
			return winner, nil
		},
		createFn: func(ctx context.Context, conv *model.Conversation) error {
			return model.ErrConversationExists
		},
	}
	svc := NewChatService(convs, &memMessageRepository{}, &mockUserRepository{getByIDFn: usersByID(alice, bob)}, nil)

	id, err := svc.Start(context.Background(), "alice", "bob")

	require.NoError(t, err)
	assert.Equal(t, winner.ID, id)
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestChatService_Send(t *testing.T) {
	// ARRANGE
	conv := testConversation()
	convs := &mockConversationRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Conversation, error) { return conv, nil },
	}
	msgs := &memMessageRepository{}
	publisher := &mockPublisher{}
	svc := NewChatService(convs, msgs, &mockUserRepository{getByIDFn: usersByID(alice, bob)}, publisher)

	// ACT
	msg, err := svc.Send(context.Background(), conv.ID, "alice", "  hello bob  ")

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, "hello bob", msg.Content)
	assert.Equal(t, "Alice", msg.SenderName)
	assert.True(t, msg.CreatedAt.After(conv.UpdatedAt))
	assert.Equal(t, []string{"hello bob"}, convs.previews)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "bob", publisher.events[0].RecipientID)
}

func TestChatService_Send_EmptyContent(t *testing.T) {
	convs := &mockConversationRepository{}
	msgs := &memMessageRepository{}
	svc := NewChatService(convs, msgs, &mockUserRepository{}, nil)

	_, err := svc.Send(context.Background(), "conv-1", "alice", " \n\t ")

	assert.ErrorIs(t, err, model.ErrEmptyContent)
	assert.Empty(t, msgs.messages)
	assert.Empty(t, convs.previews)
}

func TestChatService_Send_NotParticipant(t *testing.T) {
	conv := testConversation()
	convs := &mockConversationRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Conversation, error) { return conv, nil },
	}
	msgs := &memMessageRepository{}
	svc := NewChatService(convs, msgs, &mockUserRepository{}, nil)

	_, err := svc.Send(context.Background(), conv.ID, "mallory", "hi")

	assert.ErrorIs(t, err, model.ErrNotParticipant)
	assert.Empty(t, msgs.messages)
}

func TestChatService_Send_UnknownSenderName(t *testing.T) {
	conv := testConversation()
	convs := &mockConversationRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Conversation, error) { return conv, nil },
	}
	svc := NewChatService(convs, &memMessageRepository{}, &mockUserRepository{}, nil)

	msg, err := svc.Send(context.Background(), conv.ID, "alice", "hi")

	require.NoError(t, err)
	assert.Equal(t, model.UnknownSenderName, msg.SenderName)
}

func TestChatService_Send_PreviewFailureKeepsMessage(t *testing.T) {
	conv := testConversation()
	convs := &mockConversationRepository{
		getByIDFn:       func(ctx context.Context, id string) (*model.Conversation, error) { return conv, nil },
		updatePreviewFn: func(ctx context.Context, id, preview string, at time.Time) error { return errors.New("write failed") },
	}
	msgs := &memMessageRepository{}
	svc := NewChatService(convs, msgs, &mockUserRepository{getByIDFn: usersByID(alice)}, nil)

	_, err := svc.Send(context.Background(), conv.ID, "alice", "hi")

	require.NoError(t, err)
	assert.Len(t, msgs.messages, 1)
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestChatService_Messages_PagesInOrder(t *testing.T) {
	// ARRANGE
	conv := testConversation()
	convs := &mockConversationRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Conversation, error) { return conv, nil },
	}
	msgs := &memMessageRepository{}
	svc := NewChatService(convs, msgs, &mockUserRepository{getByIDFn: usersByID(alice, bob)}, nil)
	svc.pageSize = 2

	for i := 0; i < 5; i++ {
		sender := "alice"
		if i%2 == 1 {
			sender = "bob"
		}
		_, err := svc.Send(context.Background(), conv.ID, sender, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	// ACT
	var got []string
	for m, err := range svc.Messages(context.Background(), conv.ID) {
		require.NoError(t, err)
		got = append(got, m.Content)
	}

	// ASSERT
	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m4"}, got)
	assert.Equal(t, 3, msgs.listCalls)

	// Restartable: a second range starts from the beginning again
	var first string
	for m := range svc.Messages(context.Background(), conv.ID) {
		first = m.Content
		break
	}
	assert.Equal(t, "m0", first)
}

func TestChatService_ListMessages_HiddenFromOutsiders(t *testing.T) {
	conv := testConversation()
	convs := &mockConversationRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Conversation, error) { return conv, nil },
	}
	svc := NewChatService(convs, &memMessageRepository{}, &mockUserRepository{}, nil)

	_, err := svc.ListMessages(context.Background(), "mallory", conv.ID)

	assert.ErrorIs(t, err, model.ErrNotParticipant)
}
