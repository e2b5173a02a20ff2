package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hackmate/internal/cache"
	"hackmate/internal/model"
)

const postColumns = `id, author_id, author_name, author_avatar_url, type, description,
		       venue, event_date, current_team_size, required_team_size, idea, skills,
		       current_team_count, achievement, team_members,
		       views, reaction_chat, reaction_congrats, reaction_best_of_luck, created_at`

// postRow is the flat table shape of a post; variant columns are NULL when
// the post type does not use them.
type postRow struct {
	ID               string           `db:"id"`
	AuthorID         string           `db:"author_id"`
	AuthorName       string           `db:"author_name"`
	AuthorAvatarURL  *string          `db:"author_avatar_url"`
	Type             string           `db:"type"`
	Description      string           `db:"description"`
	Venue            sql.NullString   `db:"venue"`
	EventDate        sql.NullString   `db:"event_date"`
	CurrentTeamSize  sql.NullInt64    `db:"current_team_size"`
	RequiredTeamSize sql.NullInt64    `db:"required_team_size"`
	Idea             sql.NullString   `db:"idea"`
	Skills           model.StringList `db:"skills"`
	CurrentTeamCount sql.NullInt64    `db:"current_team_count"`
	Achievement      sql.NullString   `db:"achievement"`
	TeamMembers      model.StringList `db:"team_members"`
	Views            int              `db:"views"`
	model.Reactions
	CreatedAt time.Time `db:"created_at"`
}

func (row *postRow) toModel() (*model.Post, error) {
	p := &model.Post{
		ID:              row.ID,
		AuthorID:        row.AuthorID,
		AuthorName:      row.AuthorName,
		AuthorAvatarURL: row.AuthorAvatarURL,
		Type:            model.PostType(row.Type),
		Description:     row.Description,
		CreatedAt:       row.CreatedAt,
		Views:           row.Views,
		Reactions:       row.Reactions,
	}

	switch p.Type {
	case model.PostTypeHackathon:
		p.Details = model.HackathonDetails{Venue: row.Venue.String, Date: row.EventDate.String}
	case model.PostTypeTeammate:
		p.Details = model.TeammateDetails{
			Venue:            row.Venue.String,
			Date:             row.EventDate.String,
			CurrentTeamSize:  int(row.CurrentTeamSize.Int64),
			RequiredTeamSize: int(row.RequiredTeamSize.Int64),
		}
	case model.PostTypeCollaboration:
		p.Details = model.CollaborationDetails{
			Idea:             row.Idea.String,
			Skills:           row.Skills,
			CurrentTeamCount: int(row.CurrentTeamCount.Int64),
		}
	case model.PostTypeFame:
		p.Details = model.FameDetails{
			Venue:       row.Venue.String,
			Date:        row.EventDate.String,
			Achievement: row.Achievement.String,
			TeamMembers: row.TeamMembers,
		}
	default:
		return nil, fmt.Errorf("post %s has unknown type %q", row.ID, row.Type)
	}
	return p, nil
}

// variantArgs returns the variant column values in postColumns order.
func variantArgs(details model.PostDetails) []any {
	var (
		venue, date, idea, achievement any
		current, required, count       any
		skills, members                any
	)
	switch d := details.(type) {
	case model.HackathonDetails:
		venue, date = d.Venue, d.Date
	case model.TeammateDetails:
		venue, date, current, required = d.Venue, d.Date, d.CurrentTeamSize, d.RequiredTeamSize
	case model.CollaborationDetails:
		idea, skills, count = d.Idea, d.Skills, d.CurrentTeamCount
	case model.FameDetails:
		venue, date, achievement, members = d.Venue, d.Date, d.Achievement, d.TeamMembers
	}
	return []any{venue, date, current, required, idea, skills, count, achievement, members}
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a post with its variant columns.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := r.db.Rebind(`
		INSERT INTO posts (id, author_id, author_name, author_avatar_url, type, description,
		                   venue, event_date, current_team_size, required_team_size, idea, skills,
		                   current_team_count, achievement, team_members,
		                   views, reaction_chat, reaction_congrats, reaction_best_of_luck, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	args := []any{p.ID, p.AuthorID, p.AuthorName, p.AuthorAvatarURL, string(p.Type), p.Description}
	args = append(args, variantArgs(p.Details)...)
	args = append(args, p.Views, p.Reactions.Chat, p.Reactions.Congrats, p.Reactions.BestOfLuck, p.CreatedAt)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	query := r.db.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE id = ?`)

	var row postRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return row.toModel()
}

// GetByIDs hydrates cached ids; missing posts are skipped.
func (r *postRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Post, error) {
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+postColumns+` FROM posts WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build posts by ids query: %w", err)
	}

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	byID := make(map[string]*model.Post, len(rows))
	for i := range rows {
		p, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}

	posts := make([]model.Post, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

// List returns all posts, newest first.
func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, id DESC`
	return r.selectPosts(ctx, query)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	query := r.db.Rebind(`SELECT ` + postColumns + ` FROM posts WHERE author_id = ? ORDER BY created_at DESC, id DESC`)
	return r.selectPosts(ctx, query, authorID)
}

func (r *postRepository) selectPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]model.Post, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

// ListTimeline returns (id, created_at) pairs for every post.
func (r *postRepository) ListTimeline(ctx context.Context) ([]cache.PostScore, error) {
	var rows []struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, created_at FROM posts`); err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}

	scores := make([]cache.PostScore, len(rows))
	for i, row := range rows {
		scores[i] = cache.PostScore{PostID: row.ID, Timestamp: row.CreatedAt.UnixMicro()}
	}
	return scores, nil
}

// IncrementViews adds one view in a single statement.
func (r *postRepository) IncrementViews(ctx context.Context, id string) error {
	query := r.db.Rebind(`UPDATE posts SET views = views + 1 WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return expectOneRow(res, model.ErrPostNotFound)
}

// reactionColumns maps reaction kinds to their counter column.
var reactionColumns = map[model.ReactionKind]string{
	model.ReactionChat:       "reaction_chat",
	model.ReactionCongrats:   "reaction_congrats",
	model.ReactionBestOfLuck: "reaction_best_of_luck",
}

func (r *postRepository) IncrementReaction(ctx context.Context, id string, kind model.ReactionKind) error {
	column, ok := reactionColumns[kind]
	if !ok {
		return model.ErrInvalidReaction
	}
	query := r.db.Rebind(fmt.Sprintf(`UPDATE posts SET %[1]s = %[1]s + 1 WHERE id = ?`, column))

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment reaction %s: %w", kind, err)
	}
	return expectOneRow(res, model.ErrPostNotFound)
}
