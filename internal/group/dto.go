package group

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateJoinRequestRequest carries the free-text comments attached to a new
// join request
type CreateJoinRequestRequest struct {
	Comments string `json:"comments"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID        int64  `json:"id"`
	ChannelID int64  `json:"channel_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// MemberResponse represents a group member in a response
type MemberResponse struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
	JoinedAt string `json:"joined_at"`
}

// JoinRequestResponse represents a pending group join request in a response
type JoinRequestResponse struct {
	ID            int64  `json:"id"`
	GroupID       int64  `json:"group_id"`
	RequestorID   int64  `json:"requestor_id"`
	RequestorName string `json:"requestor_name,omitempty"`
	Comments      string `json:"comments"`
	CreatedAt     string `json:"created_at"`
}

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:        g.ID,
		ChannelID: g.ChannelID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		Name:     m.Name,
		Nickname: m.Nickname,
		JoinedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a JoinRequest model to a JoinRequestResponse DTO
func (j *JoinRequest) ToResponse() *JoinRequestResponse {
	return &JoinRequestResponse{
		ID:            j.ID,
		GroupID:       j.GroupID,
		RequestorID:   j.RequestorID,
		RequestorName: j.RequestorName,
		Comments:      j.Comments,
		CreatedAt:     j.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
