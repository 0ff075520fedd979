package user

import "time"

// User represents a user profile in the system. Subject is the opaque ID
// assigned by the auth provider; it is used to resolve the calling user and
// is never exposed in responses.
type User struct {
	ID        int64     `json:"id"`
	Subject   string    `json:"-"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickname,omitempty"`
	Email     string    `json:"email,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
