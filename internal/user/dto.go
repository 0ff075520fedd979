package user

// CreateUserRequest represents the request to create a user profile
type CreateUserRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=100"`
	Nickname  string  `json:"nickname"`
	Email     string  `json:"email" validate:"omitempty,email"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UpdateUserRequest represents the request to update a user profile
type UpdateUserRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Nickname  *string `json:"nickname,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UserResponse represents the response for a user profile
type UserResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Nickname  string  `json:"nickname,omitempty"`
	Email     string  `json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	UpdatedAt string  `json:"updated_at"`
}

// ToResponse converts a User model to a UserResponse DTO
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Nickname:  u.Nickname,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		UpdatedAt: u.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
