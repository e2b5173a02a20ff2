package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Privacy values for a user profile.
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

// MinSecretLength is the shortest secret accepted by a password change.
const MinSecretLength = 6

// User represents a HackMate member and their profile.
type User struct {
	ID                 string     `db:"id" json:"id" firestore:"-"`
	Name               string     `db:"name" json:"name" firestore:"name"`
	Email              string     `db:"email" json:"email,omitempty" firestore:"email"`
	PasswordHashed     string     `db:"password_hashed" json:"-" firestore:"passwordHashed,omitempty"` // empty when the identity provider owns the secret
	Github             string     `db:"github" json:"github,omitempty" firestore:"github"`
	AvatarURL          *string    `db:"avatar_url" json:"avatar_url" firestore:"avatarUrl"`
	Privacy            string     `db:"privacy" json:"privacy" firestore:"privacy"`
	Skills             StringList `db:"skills" json:"skills,omitempty" firestore:"skills"`
	HackathonsAttended StringList `db:"hackathons_attended" json:"hackathons_attended,omitempty" firestore:"hackathonsAttended"`
	Collaborations     int        `db:"collaborations" json:"collaborations" firestore:"collaborations"`
	Wins               int        `db:"wins" json:"wins" firestore:"wins"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at" firestore:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at" firestore:"updatedAt"`

	// restricted marks the projection handed to non-owners of a private profile
	restricted bool
}

// MarshalJSON writes a restricted projection as a UserSummary.
func (u User) MarshalJSON() ([]byte, error) {
	if u.restricted {
		return json.Marshal(u.Summary())
	}
	type plain User
	return json.Marshal(plain(u))
}

// Summary returns the public shape of u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Privacy:   u.Privacy,
	}
}

// IsPrivate reports whether the profile is hidden from other members.
func (u *User) IsPrivate() bool {
	return u.Privacy == PrivacyPrivate
}

// VisibleTo returns the view of u that viewerID may see. A private profile
// exposes only its name and avatar to anyone but its owner.
func (u *User) VisibleTo(viewerID string) *User {
	if !u.IsPrivate() || u.ID == viewerID {
		return u
	}
	return &User{
		ID:         u.ID,
		Name:       u.Name,
		AvatarURL:  u.AvatarURL,
		Privacy:    u.Privacy,
		restricted: true,
	}
}

// UserSummary is what a non-owner sees of a private profile.
type UserSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Privacy   string  `json:"privacy"`
}

// RegisterRequest is the profile draft submitted at registration.
type RegisterRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Github    string   `json:"github"`
	AvatarURL *string  `json:"avatar_url"`
	Skills    []string `json:"skills"`
}

// Validate checks the draft before any store is touched.
func (r *RegisterRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return NewValidationError("name", "name is required")
	case strings.TrimSpace(r.Email) == "" || !strings.Contains(r.Email, "@"):
		return NewValidationError("email", "a valid email is required")
	case r.Password == "":
		return NewValidationError("password", "password is required")
	}
	return nil
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries the fields a member may change on their own profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string   `json:"name"`
	Github    *string   `json:"github"`
	AvatarURL *string   `json:"avatar_url"`
	Privacy   *string   `json:"privacy"`
	Skills    *[]string `json:"skills"`
}

// IsEmpty reports whether the update changes nothing.
func (p *ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Github == nil && p.AvatarURL == nil && p.Privacy == nil && p.Skills == nil
}

// Validate rejects values that would break profile invariants.
func (p *ProfileUpdate) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewValidationError("name", "name cannot be empty")
	}
	if p.Privacy != nil && *p.Privacy != PrivacyPublic && *p.Privacy != PrivacyPrivate {
		return NewValidationError("privacy", "privacy must be public or private")
	}
	return nil
}

// Apply merges the update into u.
func (p *ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Github != nil {
		u.Github = *p.Github
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
	if p.Privacy != nil {
		u.Privacy = *p.Privacy
	}
	if p.Skills != nil {
		u.Skills = SplitList(strings.Join(*p.Skills, ","))
	}
}

// ChangePasswordRequest is the body for PUT /auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// StringList is an ordered list of strings persisted as a JSON array in SQL stores.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*l = out
	return nil
}

// SplitList turns comma separated input into trimmed, non-empty entries.
func SplitList(raw string) StringList {
	out := StringList{}
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
