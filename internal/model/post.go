package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PostType is the discriminant of the post variants.
type PostType string

const (
	PostTypeHackathon     PostType = "HACKATHON"
	PostTypeTeammate      PostType = "TEAMMATE"
	PostTypeCollaboration PostType = "COLLABORATION"
	PostTypeFame          PostType = "FAME"
)

// EventDateLayout is the layout of event dates on posts.
const EventDateLayout = "2006-01-02"

// ReactionKind names one of the fixed reaction counters on a post.
type ReactionKind string

const (
	ReactionChat       ReactionKind = "chat"
	ReactionCongrats   ReactionKind = "congrats"
	ReactionBestOfLuck ReactionKind = "bestOfLuck"
)

// ParseReactionKind validates a reaction name from input.
func ParseReactionKind(s string) (ReactionKind, error) {
	switch k := ReactionKind(s); k {
	case ReactionChat, ReactionCongrats, ReactionBestOfLuck:
		return k, nil
	}
	return "", ErrInvalidReaction
}

// Reactions holds the per-kind reaction counters.
type Reactions struct {
	Chat       int `db:"reaction_chat" json:"chat" firestore:"chat"`
	Congrats   int `db:"reaction_congrats" json:"congrats" firestore:"congrats"`
	BestOfLuck int `db:"reaction_best_of_luck" json:"bestOfLuck" firestore:"bestOfLuck"`
}

// Count returns the counter for kind.
func (r Reactions) Count(kind ReactionKind) int {
	switch kind {
	case ReactionChat:
		return r.Chat
	case ReactionCongrats:
		return r.Congrats
	case ReactionBestOfLuck:
		return r.BestOfLuck
	}
	return 0
}

// PostDetails is the variant-specific payload of a post. The concrete type
// always matches the post's Type.
type PostDetails interface {
	Kind() PostType
}

type HackathonDetails struct {
	Venue string `json:"venue"`
	Date  string `json:"date"`
}

type TeammateDetails struct {
	Venue            string `json:"venue"`
	Date             string `json:"date"`
	CurrentTeamSize  int    `json:"current_team_size"`
	RequiredTeamSize int    `json:"required_team_size"`
}

type CollaborationDetails struct {
	Idea             string     `json:"idea"`
	Skills           StringList `json:"skills"`
	CurrentTeamCount int        `json:"current_team_count"`
}

type FameDetails struct {
	Venue       string     `json:"venue"`
	Date        string     `json:"date"`
	Achievement string     `json:"achievement"`
	TeamMembers StringList `json:"team_members"`
}

func (HackathonDetails) Kind() PostType     { return PostTypeHackathon }
func (TeammateDetails) Kind() PostType      { return PostTypeTeammate }
func (CollaborationDetails) Kind() PostType { return PostTypeCollaboration }
func (FameDetails) Kind() PostType          { return PostTypeFame }

// Post is a feed entry. Author fields are copied at creation time and do not
// follow later profile edits.
type Post struct {
	ID              string
	AuthorID        string
	AuthorName      string
	AuthorAvatarURL *string
	Type            PostType
	Description     string
	CreatedAt       time.Time
	Views           int
	Reactions       Reactions
	Details         PostDetails
}

// EventDate returns the event date for variants that carry one.
func (p *Post) EventDate() (string, bool) {
	switch d := p.Details.(type) {
	case HackathonDetails:
		return d.Date, true
	case TeammateDetails:
		return d.Date, true
	case FameDetails:
		return d.Date, true
	}
	return "", false
}

type postJSON struct {
	ID              string    `json:"id"`
	AuthorID        string    `json:"author_id"`
	AuthorName      string    `json:"author_name"`
	AuthorAvatarURL *string   `json:"author_avatar_url"`
	Type            PostType  `json:"type"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	Views           int       `json:"views"`
	Reactions       Reactions `json:"reactions"`
}

// MarshalJSON flattens the variant fields next to the base fields.
func (p Post) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(postJSON{
		ID:              p.ID,
		AuthorID:        p.AuthorID,
		AuthorName:      p.AuthorName,
		AuthorAvatarURL: p.AuthorAvatarURL,
		Type:            p.Type,
		Description:     p.Description,
		CreatedAt:       p.CreatedAt,
		Views:           p.Views,
		Reactions:       p.Reactions,
	})
	if err != nil || p.Details == nil {
		return base, err
	}
	details, err := json.Marshal(p.Details)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(details, []byte("{}")) {
		return base, nil
	}
	out := make([]byte, 0, len(base)+len(details))
	out = append(out, base[:len(base)-1]...)
	out = append(out, ',')
	out = append(out, details[1:]...)
	return out, nil
}

// UnmarshalJSON reads the flattened form written by MarshalJSON.
func (p *Post) UnmarshalJSON(data []byte) error {
	var base postJSON
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	var details PostDetails
	switch base.Type {
	case PostTypeHackathon:
		var d HackathonDetails
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		details = d
	case PostTypeTeammate:
		var d TeammateDetails
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		details = d
	case PostTypeCollaboration:
		var d CollaborationDetails
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		details = d
	case PostTypeFame:
		var d FameDetails
		if err := json.Unmarshal(data, &d); err != nil {
			return err
		}
		details = d
	default:
		return fmt.Errorf("unknown post type %q", base.Type)
	}
	*p = Post{
		ID:              base.ID,
		AuthorID:        base.AuthorID,
		AuthorName:      base.AuthorName,
		AuthorAvatarURL: base.AuthorAvatarURL,
		Type:            base.Type,
		Description:     base.Description,
		CreatedAt:       base.CreatedAt,
		Views:           base.Views,
		Reactions:       base.Reactions,
		Details:         details,
	}
	return nil
}

// CreatePostRequest is the post draft submitted by the client. Skills and
// team members arrive as comma separated strings.
type CreatePostRequest struct {
	Type             PostType `json:"type"`
	Description      string   `json:"description"`
	Venue            string   `json:"venue"`
	Date             string   `json:"date"`
	CurrentTeamSize  *int     `json:"current_team_size"`
	RequiredTeamSize *int     `json:"required_team_size"`
	Idea             string   `json:"idea"`
	Skills           string   `json:"skills"`
	CurrentTeamCount *int     `json:"current_team_count"`
	Achievement      string   `json:"achievement"`
	TeamMembers      string   `json:"team_members"`
}

// allowedFields lists the variant fields each type accepts.
var allowedFields = map[PostType]map[string]bool{
	PostTypeHackathon:     {"venue": true, "date": true},
	PostTypeTeammate:      {"venue": true, "date": true, "current_team_size": true, "required_team_size": true},
	PostTypeCollaboration: {"idea": true, "skills": true, "current_team_count": true},
	PostTypeFame:          {"venue": true, "date": true, "achievement": true, "team_members": true},
}

// Build validates the draft and returns the variant payload for its type.
func (r *CreatePostRequest) Build() (PostDetails, error) {
	allowed, ok := allowedFields[r.Type]
	if !ok {
		return nil, NewValidationError("type", fmt.Sprintf("unknown post type %q", r.Type))
	}
	if strings.TrimSpace(r.Description) == "" {
		return nil, NewValidationError("description", "description is required")
	}
	for _, field := range r.presentFields() {
		if !allowed[field] {
			return nil, NewValidationError(field, fmt.Sprintf("not allowed on %s posts", r.Type))
		}
	}

	switch r.Type {
	case PostTypeHackathon:
		if err := r.requireEvent(); err != nil {
			return nil, err
		}
		return HackathonDetails{Venue: strings.TrimSpace(r.Venue), Date: r.Date}, nil

	case PostTypeTeammate:
		if err := r.requireEvent(); err != nil {
			return nil, err
		}
		if r.CurrentTeamSize == nil || *r.CurrentTeamSize < 1 {
			return nil, NewValidationError("current_team_size", "current team size must be at least 1")
		}
		if r.RequiredTeamSize == nil || *r.RequiredTeamSize < 2 {
			return nil, NewValidationError("required_team_size", "required team size must be at least 2")
		}
		if *r.CurrentTeamSize >= *r.RequiredTeamSize {
			return nil, NewValidationError("required_team_size", "required team size must be greater than current team size")
		}
		return TeammateDetails{
			Venue:            strings.TrimSpace(r.Venue),
			Date:             r.Date,
			CurrentTeamSize:  *r.CurrentTeamSize,
			RequiredTeamSize: *r.RequiredTeamSize,
		}, nil

	case PostTypeCollaboration:
		if strings.TrimSpace(r.Idea) == "" {
			return nil, NewValidationError("idea", "idea is required")
		}
		skills := SplitList(r.Skills)
		if len(skills) == 0 {
			return nil, NewValidationError("skills", "at least one skill is required")
		}
		if r.CurrentTeamCount == nil || *r.CurrentTeamCount < 1 {
			return nil, NewValidationError("current_team_count", "current team count must be at least 1")
		}
		return CollaborationDetails{
			Idea:             strings.TrimSpace(r.Idea),
			Skills:           skills,
			CurrentTeamCount: *r.CurrentTeamCount,
		}, nil

	default: // PostTypeFame
		if err := r.requireEvent(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(r.Achievement) == "" {
			return nil, NewValidationError("achievement", "achievement is required")
		}
		members := SplitList(r.TeamMembers)
		if len(members) == 0 {
			return nil, NewValidationError("team_members", "at least one team member is required")
		}
		return FameDetails{
			Venue:       strings.TrimSpace(r.Venue),
			Date:        r.Date,
			Achievement: strings.TrimSpace(r.Achievement),
			TeamMembers: members,
		}, nil
	}
}

func (r *CreatePostRequest) requireEvent() error {
	if strings.TrimSpace(r.Venue) == "" {
		return NewValidationError("venue", "venue is required")
	}
	if r.Date == "" {
		return NewValidationError("date", "date is required")
	}
	if _, err := time.Parse(EventDateLayout, r.Date); err != nil {
		return NewValidationError("date", "date must be formatted as YYYY-MM-DD")
	}
	return nil
}

func (r *CreatePostRequest) presentFields() []string {
	var fields []string
	if r.Venue != "" {
		fields = append(fields, "venue")
	}
	if r.Date != "" {
		fields = append(fields, "date")
	}
	if r.CurrentTeamSize != nil {
		fields = append(fields, "current_team_size")
	}
	if r.RequiredTeamSize != nil {
		fields = append(fields, "required_team_size")
	}
	if r.Idea != "" {
		fields = append(fields, "idea")
	}
	if r.Skills != "" {
		fields = append(fields, "skills")
	}
	if r.CurrentTeamCount != nil {
		fields = append(fields, "current_team_count")
	}
	if r.Achievement != "" {
		fields = append(fields, "achievement")
	}
	if r.TeamMembers != "" {
		fields = append(fields, "team_members")
	}
	return fields
}

// ReactionRequest is the body for POST /posts/{id}/reactions.
type ReactionRequest struct {
	Kind string `json:"kind"`
}

// SavedPost marks a post a user added to their calendar.
type SavedPost struct {
	UserID    string    `db:"user_id" firestore:"userId"`
	PostID    string    `db:"post_id" firestore:"postId"`
	CreatedAt time.Time `db:"created_at" firestore:"createdAt"`
}
