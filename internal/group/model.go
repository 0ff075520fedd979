package group

import "time"

// Group represents a group nested inside exactly one channel. The channel
// back-reference never changes once set.
type Group struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channel_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member represents a user's membership in a group. Group membership has no
// owner role; any member may act on the group's join requests.
type Member struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Populated from JOIN
	Name     string `json:"name,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// JoinRequest represents a pending request to join a group. As with channel
// join requests, deleting the record is the only terminal transition.
type JoinRequest struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"group_id"`
	RequestorID int64     `json:"requestor_id"`
	Comments    string    `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated from JOIN
	RequestorName string `json:"requestor_name,omitempty"`
}
