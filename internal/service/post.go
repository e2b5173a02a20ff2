package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"hackmate/internal/cache"
	"hackmate/internal/model"
	"hackmate/internal/queue"
	"hackmate/internal/repository"
)

type PostService struct {
	postRepo  repository.PostRepository
	savedRepo repository.SavedPostRepository
	users     repository.UserRepository
	timeline  cache.TimelineCache // Can be nil if Redis is not configured
	publisher queue.Publisher     // Can be nil if Redis is not configured
}

func NewPostService(
	postRepo repository.PostRepository,
	savedRepo repository.SavedPostRepository,
	users repository.UserRepository,
	timeline cache.TimelineCache,
	publisher queue.Publisher,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		savedRepo: savedRepo,
		users:     users,
		timeline:  timeline,
		publisher: publisher,
	}
}

// Create validates the draft and stores a post authored by author.
func (s *PostService) Create(ctx context.Context, author *model.User, req *model.CreatePostRequest) (*model.Post, error) {
	details, err := req.Build()
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:              uuid.NewString(),
		AuthorID:        author.ID,
		AuthorName:      author.Name,
		AuthorAvatarURL: author.AvatarURL,
		Type:            details.Kind(),
		Description:     strings.TrimSpace(req.Description),
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
		Details:         details,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	log.Printf("[PostService] Create OK: post=%s author=%s type=%s", post.ID, post.AuthorID, post.Type)

	if s.timeline != nil {
		if err := s.timeline.AddPost(ctx, post.ID, post.CreatedAt.UnixMicro()); err != nil {
			// A timeline without the new post must not be served
			log.Printf("[PostService] Timeline add FAILED: post=%s err=%v", post.ID, err)
			if err := s.timeline.Invalidate(ctx); err != nil {
				log.Printf("[PostService] Timeline invalidate FAILED: err=%v", err)
			}
		}
	}

	if s.publisher != nil {
		event := queue.NewPostCreatedEvent(post.ID, post.AuthorID, post.CreatedAt)
		if _, err := s.publisher.Publish(ctx, queue.StreamEvents, event); err != nil {
			log.Printf("[PostService] Failed to publish PostCreated event: post=%s err=%v", post.ID, err)
		}
	}

	return post, nil
}

// List returns every post, newest first. The cached timeline supplies the
// order when available; any cache failure falls back to the store.
func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	if s.timeline != nil {
		posts, err := s.listFromTimeline(ctx)
		if err == nil {
			return posts, nil
		}
		log.Printf("[PostService] Timeline read FAILED, using store: err=%v", err)
	}

	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) listFromTimeline(ctx context.Context) ([]model.Post, error) {
	exists, err := s.timeline.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		scores, err := s.postRepo.ListTimeline(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.timeline.WarmCache(ctx, scores); err != nil {
			return nil, err
		}
	}

	ids, err := s.timeline.GetTimeline(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.Post{}, nil
	}
	return s.postRepo.GetByIDs(ctx, ids)
}

// ListByAuthor returns the author's posts, newest first. Posts of a private
// author are only visible to the author.
func (s *PostService) ListByAuthor(ctx context.Context, viewerID, authorID string) ([]model.Post, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.IsPrivate() && author.ID != viewerID {
		return nil, model.ErrProfilePrivate
	}

	posts, err := s.postRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return posts, nil
}

// IncrementView counts one view. Every call counts.
func (s *PostService) IncrementView(ctx context.Context, postID string) error {
	return s.postRepo.IncrementViews(ctx, postID)
}

// AddReaction adds one reaction of kind. Repeated reactions all count.
func (s *PostService) AddReaction(ctx context.Context, postID, kind string) error {
	k, err := model.ParseReactionKind(kind)
	if err != nil {
		return err
	}
	return s.postRepo.IncrementReaction(ctx, postID, k)
}

// Save adds a hackathon post to the user's calendar.
func (s *PostService) Save(ctx context.Context, userID, postID string) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.Type != model.PostTypeHackathon {
		return model.ErrNotAnEvent
	}

	if err := s.savedRepo.Save(ctx, userID, postID); err != nil {
		return err
	}
	log.Printf("[PostService] Save OK: user=%s post=%s", userID, postID)
	return nil
}

// Unsave removes a post from the user's calendar. Removing a post that was
// never saved is not an error.
func (s *PostService) Unsave(ctx context.Context, userID, postID string) error {
	return s.savedRepo.Remove(ctx, userID, postID)
}

// ListSavedEvents returns the user's saved events ordered by event date.
// A non-empty date (YYYY-MM-DD) keeps only events on that day.
func (s *PostService) ListSavedEvents(ctx context.Context, userID, date string) ([]model.Post, error) {
	if date != "" {
		if _, err := time.Parse(model.EventDateLayout, date); err != nil {
			return nil, model.NewValidationError("date", "date must be YYYY-MM-DD")
		}
	}

	ids, err := s.savedRepo.ListPostIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	posts, err := s.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load saved posts: %w", err)
	}

	events := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		d, ok := p.EventDate()
		if !ok || (date != "" && d != date) {
			continue
		}
		events = append(events, p)
	}

	sort.SliceStable(events, func(i, j int) bool {
		di, _ := events[i].EventDate()
		dj, _ := events[j].EventDate()
		return di < dj
	})
	return events, nil
}
