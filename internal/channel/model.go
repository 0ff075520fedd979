package channel

import "time"

// MemberRole represents the role a member holds within a channel. Owners
// carry accept/reject authority over join requests.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// Channel represents a top-level scope that users join and groups nest in
type Channel struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership represents a user's membership in a channel. At most one
// membership exists per (channel, user) pair.
type Membership struct {
	ID        int64      `json:"id"`
	ChannelID int64      `json:"channel_id"`
	UserID    int64      `json:"user_id"`
	Role      MemberRole `json:"role"`
	CreatedAt time.Time  `json:"created_at"`

	// Populated from JOIN
	Name     string `json:"name,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// JoinRequest represents a pending request to join a channel. Absence of the
// record is the only terminal state: accepting, rejecting or cancelling a
// request deletes it.
type JoinRequest struct {
	ID          int64     `json:"id"`
	ChannelID   int64     `json:"channel_id"`
	RequestorID int64     `json:"requestor_id"`
	Comments    string    `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated from JOIN
	RequestorName string `json:"requestor_name,omitempty"`
}
