package seed

import (
	"context"
	"fmt"
	"log"

	"hackmate/internal/model"
)

// DemoPassword is the secret of every seeded account.
const DemoPassword = "hackmate123"

// UserCounter reports how many profiles exist.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// Writer creates accounts and posts through the same commands as clients.
type Writer interface {
	Register(ctx context.Context, draft *model.RegisterRequest) (*model.Session, error)
	CreatePost(ctx context.Context, s *model.Session, draft *model.CreatePostRequest) (*model.Post, error)
	StartConversation(ctx context.Context, s *model.Session, otherUserID string) (string, error)
	SendMessage(ctx context.Context, s *model.Session, conversationID, content string) (*model.Message, error)
}

var demoUsers = []model.RegisterRequest{
	{Name: "Linh Tran", Email: "linh@hackmate.dev", Github: "linhtran", Skills: []string{"Go", "PostgreSQL"}},
	{Name: "Minh Nguyen", Email: "minh@hackmate.dev", Github: "minhng", Skills: []string{"Flutter", "Firebase"}},
	{Name: "An Pham", Email: "an@hackmate.dev", Github: "anpham", Skills: []string{"Figma", "UX"}},
}

func intPtr(v int) *int { return &v }

// demoPosts holds one post of each variant, keyed by the index of its author.
var demoPosts = []struct {
	author int
	draft  model.CreatePostRequest
}{
	{0, model.CreatePostRequest{
		Type:        model.PostTypeHackathon,
		Description: "Saigon AI Hackathon is open for registration. 48 hours, three tracks.",
		Venue:       "Ho Chi Minh City",
		Date:        "2026-11-21",
	}},
	{1, model.CreatePostRequest{
		Type:             model.PostTypeTeammate,
		Description:      "Looking for a backend dev for our mobile health app.",
		Venue:            "Hanoi",
		Date:             "2026-12-05",
		CurrentTeamSize:  intPtr(2),
		RequiredTeamSize: intPtr(4),
	}},
	{2, model.CreatePostRequest{
		Type:             model.PostTypeCollaboration,
		Description:      "Open source accessibility checker for Vietnamese sites.",
		Idea:             "Browser extension that audits contrast and alt text",
		Skills:           "TypeScript, Accessibility",
		CurrentTeamCount: intPtr(1),
	}},
	{0, model.CreatePostRequest{
		Type:        model.PostTypeFame,
		Description: "We took first place with a flood early-warning bot!",
		Venue:       "Da Nang",
		Date:        "2026-09-12",
		Achievement: "1st place",
		TeamMembers: "Linh Tran, Minh Nguyen",
	}},
}

// Run fills an empty store with demo accounts, posts and one conversation.
// A store that already has users is left alone.
func Run(ctx context.Context, users UserCounter, w Writer) error {
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Printf("[Seed] Skipped: users=%d", count)
		return nil
	}

	sessions := make([]*model.Session, len(demoUsers))
	for i := range demoUsers {
		draft := demoUsers[i]
		draft.Password = DemoPassword
		s, err := w.Register(ctx, &draft)
		if err != nil {
			return fmt.Errorf("register %s: %w", draft.Email, err)
		}
		sessions[i] = s
	}

	for _, p := range demoPosts {
		draft := p.draft
		if _, err := w.CreatePost(ctx, sessions[p.author], &draft); err != nil {
			return fmt.Errorf("create %s post: %w", draft.Type, err)
		}
	}

	convID, err := w.StartConversation(ctx, sessions[0], sessions[1].UserID)
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}
	if _, err := w.SendMessage(ctx, sessions[0], convID, "Hey! Still looking for a backend dev?"); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	log.Printf("[Seed] Run OK: users=%d posts=%d", len(demoUsers), len(demoPosts))
	return nil
}
