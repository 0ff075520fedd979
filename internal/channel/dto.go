package channel

// CreateChannelRequest represents the request to create a new channel
type CreateChannelRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateJoinRequestRequest carries the free-text comments attached to a new
// join request
type CreateJoinRequestRequest struct {
	Comments string `json:"comments"`
}

// ChannelResponse represents the response for a channel
type ChannelResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// MemberResponse represents a channel member in a response
type MemberResponse struct {
	ID       int64      `json:"id"`
	UserID   int64      `json:"user_id"`
	Name     string     `json:"name"`
	Nickname string     `json:"nickname,omitempty"`
	Role     MemberRole `json:"role"`
	JoinedAt string     `json:"joined_at"`
}

// JoinRequestResponse represents a pending join request in a response
type JoinRequestResponse struct {
	ID            int64  `json:"id"`
	ChannelID     int64  `json:"channel_id"`
	RequestorID   int64  `json:"requestor_id"`
	RequestorName string `json:"requestor_name,omitempty"`
	Comments      string `json:"comments"`
	CreatedAt     string `json:"created_at"`
}

// ToResponse converts a Channel model to a ChannelResponse DTO
func (c *Channel) ToResponse() *ChannelResponse {
	return &ChannelResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Membership model to a MemberResponse DTO
func (m *Membership) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		Name:     m.Name,
		Nickname: m.Nickname,
		Role:     m.Role,
		JoinedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a JoinRequest model to a JoinRequestResponse DTO
func (j *JoinRequest) ToResponse() *JoinRequestResponse {
	return &JoinRequestResponse{
		ID:            j.ID,
		ChannelID:     j.ChannelID,
		RequestorID:   j.RequestorID,
		RequestorName: j.RequestorName,
		Comments:      j.Comments,
		CreatedAt:     j.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
