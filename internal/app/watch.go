package app

import (
	"context"

	"hackmate/internal/model"
	"hackmate/internal/watch"
)

// WatchPosts streams the post list on subscription and after every change.
func (f *Facade) WatchPosts(ctx context.Context) <-chan watch.Snapshot[[]model.Post] {
	return watch.Snapshots(ctx, f.hub, watch.TopicPosts, f.ListPosts)
}

// WatchConversations streams the session's conversation list.
func (f *Facade) WatchConversations(ctx context.Context, s *model.Session) (<-chan watch.Snapshot[[]model.Conversation], error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) ([]model.Conversation, error) {
		return f.ListConversations(ctx, s)
	}
	return watch.Snapshots(ctx, f.hub, watch.InboxTopic(s.UserID), load), nil
}

// WatchMessages streams the full message log of a conversation the session
// takes part in.
func (f *Facade) WatchMessages(ctx context.Context, s *model.Session, conversationID string) (<-chan watch.Snapshot[[]model.Message], error) {
	if _, err := f.ListMessages(ctx, s, conversationID); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) ([]model.Message, error) {
		return f.ListMessages(ctx, s, conversationID)
	}
	return watch.Snapshots(ctx, f.hub, watch.ConversationTopic(conversationID), load), nil
}
