// Package docstore implements the repository interfaces on Cloud Firestore.
package docstore

import (
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hackmate/internal/repository"
)

// Collection names
const (
	colUsers         = "users"
	colPosts         = "posts"
	colChats         = "chats"
	colMessages      = "messages" // subcollection of a chat
	colSaved         = "saved"    // subcollection of a user
	colRefreshTokens = "refreshTokens"
	colDeviceTokens  = "deviceTokens"
)

// Store groups the Firestore-backed repositories over one client.
type Store struct {
	client *firestore.Client
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{client: s.client}
}

func (s *Store) Posts() repository.PostRepository {
	return &postRepository{client: s.client}
}

func (s *Store) Conversations() repository.ConversationRepository {
	return &conversationRepository{client: s.client}
}

func (s *Store) Messages() repository.MessageRepository {
	return &messageRepository{client: s.client}
}

func (s *Store) RefreshTokens() repository.RefreshTokenRepository {
	return &refreshTokenRepository{client: s.client}
}

func (s *Store) DeviceTokens() repository.DeviceTokenRepository {
	return &deviceTokenRepository{client: s.client}
}

func (s *Store) SavedPosts() repository.SavedPostRepository {
	return &savedPostRepository{client: s.client}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// collect drains it, decoding every snapshot.
func collect[T any](it *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer it.Stop()

	out := []T{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := decode(snap)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
		}
		out = append(out, v)
	}
}
