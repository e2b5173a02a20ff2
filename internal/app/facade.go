package app

import (
	"context"
	"errors"
	"iter"
	"log"

	"hackmate/internal/model"
	"hackmate/internal/service"
	"hackmate/internal/watch"
)

// Facade is the single entry point of the application state layer. Commands
// take the caller's session explicitly; a nil session is unauthenticated.
// Every successful write notifies the watchers of the collections it touched.
type Facade struct {
	auth    *service.AuthService
	users   *service.UserService
	posts   *service.PostService
	chat    *service.ChatService
	devices *service.NotificationService
	hub     *watch.Hub
}

func NewFacade(
	auth *service.AuthService,
	users *service.UserService,
	posts *service.PostService,
	chat *service.ChatService,
	devices *service.NotificationService,
	hub *watch.Hub,
) *Facade {
	return &Facade{
		auth:    auth,
		users:   users,
		posts:   posts,
		chat:    chat,
		devices: devices,
		hub:     hub,
	}
}

func requireSession(s *model.Session) error {
	if s == nil || s.UserID == "" {
		return model.ErrUnauthenticated
	}
	return nil
}

// sessionUser returns the stored profile of the session's user.
func (f *Facade) sessionUser(ctx context.Context, s *model.Session) (*model.User, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	user, err := f.users.GetByID(ctx, s.UserID)
	if err != nil {
		return nil, classify(err)
	}
	return user, nil
}

// =============================================================================
// Session
// =============================================================================

func (f *Facade) Register(ctx context.Context, draft *model.RegisterRequest) (*model.Session, error) {
	s, err := f.auth.Register(ctx, draft)
	if err != nil {
		return nil, classify(err)
	}
	f.hub.Notify(ctx, watch.TopicUsers)
	return s, nil
}

func (f *Facade) Login(ctx context.Context, req *model.LoginRequest) (*model.Session, error) {
	s, err := f.auth.Login(ctx, req)
	return s, classify(err)
}

// Logout revokes refreshToken. It succeeds for unknown or empty tokens.
func (f *Facade) Logout(ctx context.Context, refreshToken string) error {
	return classify(f.auth.Logout(ctx, refreshToken))
}

// Refresh rotates a refresh token into a new token pair.
func (f *Facade) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	pair, _, err := f.auth.RefreshTokens(ctx, refreshToken)
	return pair, classify(err)
}

// Authenticate resolves an access token into a session.
func (f *Facade) Authenticate(ctx context.Context, accessToken string) (*model.Session, error) {
	userID, err := f.auth.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := f.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrUnauthenticated
		}
		return nil, classify(err)
	}
	return &model.Session{UserID: user.ID, User: user}, nil
}

func (f *Facade) ChangePassword(ctx context.Context, s *model.Session, req *model.ChangePasswordRequest) error {
	if err := requireSession(s); err != nil {
		return err
	}
	return classify(f.auth.ChangePassword(ctx, s.UserID, req))
}

// Me returns the session's own full profile.
func (f *Facade) Me(ctx context.Context, s *model.Session) (*model.User, error) {
	return f.sessionUser(ctx, s)
}

// =============================================================================
// Identity
// =============================================================================

// GetUser looks up a profile as seen by the session. Without a session only
// public fields of private profiles are returned.
func (f *Facade) GetUser(ctx context.Context, s *model.Session, userID string) (*model.User, error) {
	viewerID := ""
	if s != nil {
		viewerID = s.UserID
	}
	user, err := f.users.GetProfile(ctx, userID, viewerID)
	return user, classify(err)
}

// UpdateProfile merges fields into the profile of userID, which must be the
// session's own.
func (f *Facade) UpdateProfile(ctx context.Context, s *model.Session, userID string, update *model.ProfileUpdate) (*model.User, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, model.ErrForbidden
	}

	user, err := f.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, classify(err)
	}
	f.hub.Notify(ctx, watch.TopicUsers)
	return user, nil
}

func (f *Facade) RegisterDevice(ctx context.Context, s *model.Session, req *model.RegisterTokenRequest) error {
	if err := requireSession(s); err != nil {
		return err
	}
	return classify(f.devices.RegisterDeviceToken(ctx, s.UserID, req))
}

// =============================================================================
// Content
// =============================================================================

// CreatePost stores a post authored by the session's user. Author name and
// avatar are copied from the stored profile at this moment.
func (f *Facade) CreatePost(ctx context.Context, s *model.Session, draft *model.CreatePostRequest) (*model.Post, error) {
	author, err := f.sessionUser(ctx, s)
	if err != nil {
		return nil, err
	}

	post, err := f.posts.Create(ctx, author, draft)
	if err != nil {
		return nil, classify(err)
	}
	f.hub.Notify(ctx, watch.TopicPosts)
	return post, nil
}

// ListPosts returns every post, newest first.
func (f *Facade) ListPosts(ctx context.Context) ([]model.Post, error) {
	posts, err := f.posts.List(ctx)
	return posts, classify(err)
}

func (f *Facade) ListPostsByAuthor(ctx context.Context, s *model.Session, authorID string) ([]model.Post, error) {
	viewerID := ""
	if s != nil {
		viewerID = s.UserID
	}
	posts, err := f.posts.ListByAuthor(ctx, viewerID, authorID)
	return posts, classify(err)
}

// IncrementView counts one view of postID. Views are not deduplicated.
func (f *Facade) IncrementView(ctx context.Context, s *model.Session, postID string) error {
	if err := requireSession(s); err != nil {
		return err
	}
	if err := f.posts.IncrementView(ctx, postID); err != nil {
		return classify(err)
	}
	f.hub.Notify(ctx, watch.TopicPosts)
	return nil
}

// AddReaction counts one reaction of kind on postID. Reactions are not
// deduplicated per user.
func (f *Facade) AddReaction(ctx context.Context, s *model.Session, postID, kind string) error {
	if err := requireSession(s); err != nil {
		return err
	}
	if err := f.posts.AddReaction(ctx, postID, kind); err != nil {
		return classify(err)
	}
	f.hub.Notify(ctx, watch.TopicPosts)
	return nil
}

func (f *Facade) SavePost(ctx context.Context, s *model.Session, postID string) error {
	if err := requireSession(s); err != nil {
		return err
	}
	return classify(f.posts.Save(ctx, s.UserID, postID))
}

func (f *Facade) UnsavePost(ctx context.Context, s *model.Session, postID string) error {
	if err := requireSession(s); err != nil {
		return err
	}
	return classify(f.posts.Unsave(ctx, s.UserID, postID))
}

// ListSavedEvents returns the session's calendar, optionally for one date.
func (f *Facade) ListSavedEvents(ctx context.Context, s *model.Session, date string) ([]model.Post, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	posts, err := f.posts.ListSavedEvents(ctx, s.UserID, date)
	return posts, classify(err)
}

// =============================================================================
// Conversations
// =============================================================================

// StartConversation returns the id of the conversation between the session's
// user and otherUserID, creating it on first contact.
func (f *Facade) StartConversation(ctx context.Context, s *model.Session, otherUserID string) (string, error) {
	if err := requireSession(s); err != nil {
		return "", err
	}
	id, err := f.chat.Start(ctx, s.UserID, otherUserID)
	if err != nil {
		return "", classify(err)
	}
	f.hub.Notify(ctx, watch.InboxTopic(s.UserID), watch.InboxTopic(otherUserID))
	return id, nil
}

// SendMessage appends content to the conversation as the session's user.
func (f *Facade) SendMessage(ctx context.Context, s *model.Session, conversationID, content string) (*model.Message, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	msg, err := f.chat.Send(ctx, conversationID, s.UserID, content)
	if err != nil {
		return nil, classify(err)
	}

	topics := []string{watch.ConversationTopic(conversationID), watch.InboxTopic(s.UserID)}
	if conv, err := f.chat.GetForParticipant(ctx, s.UserID, conversationID); err == nil {
		topics = append(topics, watch.InboxTopic(conv.OtherParticipant(s.UserID)))
	} else {
		log.Printf("[Facade] SendMessage notify lookup FAILED: conversation=%s err=%v", conversationID, err)
	}
	f.hub.Notify(ctx, topics...)
	return msg, nil
}

// Messages returns a lazy, restartable ascending sequence over the log of a
// conversation the session takes part in.
func (f *Facade) Messages(ctx context.Context, s *model.Session, conversationID string) (iter.Seq2[model.Message, error], error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	if _, err := f.chat.GetForParticipant(ctx, s.UserID, conversationID); err != nil {
		return nil, classify(err)
	}

	seq := f.chat.Messages(ctx, conversationID)
	return func(yield func(model.Message, error) bool) {
		for m, err := range seq {
			if !yield(m, classify(err)) {
				return
			}
		}
	}, nil
}

// ListMessages collects the whole log of a conversation.
func (f *Facade) ListMessages(ctx context.Context, s *model.Session, conversationID string) ([]model.Message, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	msgs, err := f.chat.ListMessages(ctx, s.UserID, conversationID)
	return msgs, classify(err)
}

// ListConversations returns the session's conversations, most recent first.
func (f *Facade) ListConversations(ctx context.Context, s *model.Session) ([]model.Conversation, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	convs, err := f.chat.ListForUser(ctx, s.UserID)
	return convs, classify(err)
}
