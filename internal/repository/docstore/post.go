package docstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"hackmate/internal/cache"
	"hackmate/internal/model"
)

// postDoc is the stored shape of a post; variant fields are omitted when the
// type does not use them.
type postDoc struct {
	AuthorID         string          `firestore:"authorId"`
	AuthorName       string          `firestore:"authorName"`
	AuthorAvatarURL  *string         `firestore:"authorAvatarUrl"`
	Type             string          `firestore:"type"`
	Description      string          `firestore:"description"`
	Venue            string          `firestore:"venue,omitempty"`
	Date             string          `firestore:"date,omitempty"`
	CurrentTeamSize  int             `firestore:"currentTeamSize,omitempty"`
	RequiredTeamSize int             `firestore:"requiredTeamSize,omitempty"`
	Idea             string          `firestore:"idea,omitempty"`
	Skills           []string        `firestore:"skills,omitempty"`
	CurrentTeamCount int             `firestore:"currentTeamCount,omitempty"`
	Achievement      string          `firestore:"achievement,omitempty"`
	TeamMembers      []string        `firestore:"teamMembers,omitempty"`
	Views            int             `firestore:"views"`
	Reactions        model.Reactions `firestore:"reactions"`
	CreatedAt        time.Time       `firestore:"createdAt"`
}

func newPostDoc(p *model.Post) postDoc {
	doc := postDoc{
		AuthorID:        p.AuthorID,
		AuthorName:      p.AuthorName,
		AuthorAvatarURL: p.AuthorAvatarURL,
		Type:            string(p.Type),
		Description:     p.Description,
		Views:           p.Views,
		Reactions:       p.Reactions,
		CreatedAt:       p.CreatedAt,
	}
	switch d := p.Details.(type) {
	case model.HackathonDetails:
		doc.Venue, doc.Date = d.Venue, d.Date
	case model.TeammateDetails:
		doc.Venue, doc.Date = d.Venue, d.Date
		doc.CurrentTeamSize, doc.RequiredTeamSize = d.CurrentTeamSize, d.RequiredTeamSize
	case model.CollaborationDetails:
		doc.Idea, doc.Skills, doc.CurrentTeamCount = d.Idea, d.Skills, d.CurrentTeamCount
	case model.FameDetails:
		doc.Venue, doc.Date = d.Venue, d.Date
		doc.Achievement, doc.TeamMembers = d.Achievement, d.TeamMembers
	}
	return doc
}

func decodePost(snap *firestore.DocumentSnapshot) (model.Post, error) {
	var doc postDoc
	if err := snap.DataTo(&doc); err != nil {
		return model.Post{}, err
	}

	p := model.Post{
		ID:              snap.Ref.ID,
		AuthorID:        doc.AuthorID,
		AuthorName:      doc.AuthorName,
		AuthorAvatarURL: doc.AuthorAvatarURL,
		Type:            model.PostType(doc.Type),
		Description:     doc.Description,
		CreatedAt:       doc.CreatedAt,
		Views:           doc.Views,
		Reactions:       doc.Reactions,
	}
	switch p.Type {
	case model.PostTypeHackathon:
		p.Details = model.HackathonDetails{Venue: doc.Venue, Date: doc.Date}
	case model.PostTypeTeammate:
		p.Details = model.TeammateDetails{
			Venue:            doc.Venue,
			Date:             doc.Date,
			CurrentTeamSize:  doc.CurrentTeamSize,
			RequiredTeamSize: doc.RequiredTeamSize,
		}
	case model.PostTypeCollaboration:
		p.Details = model.CollaborationDetails{
			Idea:             doc.Idea,
			Skills:           model.StringList(doc.Skills),
			CurrentTeamCount: doc.CurrentTeamCount,
		}
	case model.PostTypeFame:
		p.Details = model.FameDetails{
			Venue:       doc.Venue,
			Date:        doc.Date,
			Achievement: doc.Achievement,
			TeamMembers: model.StringList(doc.TeamMembers),
		}
	default:
		return model.Post{}, fmt.Errorf("unknown post type %q", doc.Type)
	}
	return p, nil
}

type postRepository struct {
	client *firestore.Client
}

func (r *postRepository) col() *firestore.CollectionRef {
	return r.client.Collection(colPosts)
}

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	if _, err := r.col().Doc(p.ID).Create(ctx, newPostDoc(p)); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	p, err := decodePost(snap)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs fetches the documents in one batch get; missing ones are skipped.
func (r *postRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.col().Doc(id)
	}
	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	posts := make([]model.Post, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		p, err := decodePost(snap)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	posts, err := collect(r.col().OrderBy("createdAt", firestore.Desc).Documents(ctx), decodePost)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	q := r.col().Where("authorId", "==", authorID).OrderBy("createdAt", firestore.Desc)
	posts, err := collect(q.Documents(ctx), decodePost)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return posts, nil
}

func (r *postRepository) ListTimeline(ctx context.Context) ([]cache.PostScore, error) {
	scores, err := collect(r.col().Select("createdAt").Documents(ctx), func(snap *firestore.DocumentSnapshot) (cache.PostScore, error) {
		v, err := snap.DataAt("createdAt")
		if err != nil {
			return cache.PostScore{}, err
		}
		ts, ok := v.(time.Time)
		if !ok {
			return cache.PostScore{}, fmt.Errorf("createdAt has type %T", v)
		}
		return cache.PostScore{PostID: snap.Ref.ID, Timestamp: ts.UnixMicro()}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	return scores, nil
}

// IncrementViews uses a server-side increment transform.
func (r *postRepository) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, id, "views")
}

func (r *postRepository) IncrementReaction(ctx context.Context, id string, kind model.ReactionKind) error {
	if _, err := model.ParseReactionKind(string(kind)); err != nil {
		return err
	}
	return r.increment(ctx, id, "reactions."+string(kind))
}

func (r *postRepository) increment(ctx context.Context, id, path string) error {
	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{{Path: path, Value: firestore.Increment(1)}})
	if err != nil {
		if isNotFound(err) {
			return model.ErrPostNotFound
		}
		return fmt.Errorf("increment %s: %w", path, err)
	}
	return nil
}
