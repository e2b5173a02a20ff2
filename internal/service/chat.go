package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"hackmate/internal/model"
	"hackmate/internal/queue"
	"hackmate/internal/repository"
)

// messagePageSize is how many messages Messages fetches per store round trip.
const messagePageSize = 100

// ChatService owns conversations and their message logs.
type ChatService struct {
	convRepo  repository.ConversationRepository
	msgRepo   repository.MessageRepository
	users     repository.UserRepository
	publisher queue.Publisher // Can be nil if Redis is not configured
	clock     *monotonicClock
	pageSize  int
}

func NewChatService(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	users repository.UserRepository,
	publisher queue.Publisher,
) *ChatService {
	return &ChatService{
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		users:     users,
		publisher: publisher,
		clock:     newMonotonicClock(),
		pageSize:  messagePageSize,
	}
}

// Start returns the conversation between currentUserID and otherUserID,
// creating it on first contact.
func (s *ChatService) Start(ctx context.Context, currentUserID, otherUserID string) (string, error) {
	otherUserID = strings.TrimSpace(otherUserID)
	if otherUserID == "" {
		return "", model.NewValidationError("user_id", "user_id is required")
	}
	if currentUserID == otherUserID {
		return "", model.ErrSelfConversation
	}

	if _, err := s.users.GetByID(ctx, otherUserID); err != nil {
		return "", err
	}

	existing, err := s.convRepo.FindByPair(ctx, currentUserID, otherUserID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, model.ErrConversationNotFound) {
		return "", fmt.Errorf("find conversation: %w", err)
	}

	lo, hi := model.SortedPair(currentUserID, otherUserID)
	now := s.clock.Next(time.Time{})
	conv := &model.Conversation{
		ID:             uuid.NewString(),
		ParticipantIDs: []string{lo, hi},
		PairKey:        model.PairKey(lo, hi),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.convRepo.Create(ctx, conv); err != nil {
		if errors.Is(err, model.ErrConversationExists) {
			// Lost the race to the other participant
			existing, err := s.convRepo.FindByPair(ctx, currentUserID, otherUserID)
			if err != nil {
				return "", fmt.Errorf("find conversation after conflict: %w", err)
			}
			return existing.ID, nil
		}
		return "", fmt.Errorf("create conversation: %w", err)
	}

	log.Printf("[ChatService] Start OK: conversation=%s users=%s", conv.ID, conv.PairKey)
	if s.publisher != nil {
		event := queue.NewConversationStartedEvent(conv.ID, currentUserID, otherUserID)
		if _, err := s.publisher.Publish(ctx, queue.StreamEvents, event); err != nil {
			log.Printf("[ChatService] Failed to publish ConversationStarted event: conversation=%s err=%v", conv.ID, err)
		}
	}
	return conv.ID, nil
}

// Send appends a message and then updates the conversation preview.
func (s *ChatService) Send(ctx context.Context, conversationID, senderID, content string) (*model.Message, error) {
	text, err := model.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, model.ErrNotParticipant
	}

	senderName := model.UnknownSenderName
	if sender, err := s.users.GetByID(ctx, senderID); err == nil && sender.Name != "" {
		senderName = sender.Name
	} else if err != nil {
		log.Printf("[ChatService] Sender lookup FAILED: user=%s err=%v", senderID, err)
	}

	msg := &model.Message{
		ID:             xid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		SenderName:     senderName,
		Content:        text,
		CreatedAt:      s.clock.Next(conv.UpdatedAt),
	}

	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	// The message is durable at this point; a stale preview is tolerated
	if err := s.convRepo.UpdatePreview(ctx, conv.ID, text, msg.CreatedAt); err != nil {
		log.Printf("[ChatService] UpdatePreview FAILED: conversation=%s err=%v", conv.ID, err)
	}

	log.Printf("[ChatService] Send OK: conversation=%s message=%s sender=%s", conv.ID, msg.ID, senderID)
	if s.publisher != nil {
		event := queue.NewMessageSentEvent(conv.ID, msg.ID, senderID, conv.OtherParticipant(senderID), senderName, text)
		if _, err := s.publisher.Publish(ctx, queue.StreamEvents, event); err != nil {
			log.Printf("[ChatService] Failed to publish MessageSent event: message=%s err=%v", msg.ID, err)
		}
	}
	return msg, nil
}

// Messages yields the conversation log in ascending order, fetching it
// page by page as the caller iterates. Each range restarts from the start.
func (s *ChatService) Messages(ctx context.Context, conversationID string) iter.Seq2[model.Message, error] {
	return func(yield func(model.Message, error) bool) {
		var after *model.MessageCursor
		for {
			page, err := s.msgRepo.ListAfter(ctx, conversationID, after, s.pageSize)
			if err != nil {
				yield(model.Message{}, fmt.Errorf("list messages: %w", err))
				return
			}
			for i := range page {
				if !yield(page[i], nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			after = page[len(page)-1].After()
		}
	}
}

// ListMessages collects the whole log of a conversation the viewer takes part in.
func (s *ChatService) ListMessages(ctx context.Context, viewerID, conversationID string) ([]model.Message, error) {
	if _, err := s.GetForParticipant(ctx, viewerID, conversationID); err != nil {
		return nil, err
	}

	messages := []model.Message{}
	for m, err := range s.Messages(ctx, conversationID) {
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// GetForParticipant loads a conversation, hiding it from non-participants.
func (s *ChatService) GetForParticipant(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, model.ErrNotParticipant
	}
	return conv, nil
}

// ListForUser returns the user's conversations, most recently updated first.
func (s *ChatService) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	convs, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}
