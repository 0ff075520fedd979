package user

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrNoProfile         = errors.New("calling user has no profile")
	ErrAlreadyRegistered = errors.New("a profile already exists for this user")
	ErrNotSelf           = errors.New("users can only modify their own profile")
)

// Service handles user business logic
type Service struct {
	repo *Repository
}

// NewService creates a new user service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// ResolveSubject maps the calling user's auth-provider subject to their
// profile. Every operation that needs the caller's identity resolves it
// through here, once per call.
func (s *Service) ResolveSubject(ctx context.Context, subject string) (*User, error) {
	user, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoProfile
	}
	return user, nil
}

// Create registers a profile for the calling user
func (s *Service) Create(ctx context.Context, subject string, req *CreateUserRequest) (*User, error) {
	existing, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	return s.repo.Create(ctx, subject, req)
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List retrieves all users with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

// Update modifies the calling user's own profile
func (s *Service) Update(ctx context.Context, subject string, id int64, req *UpdateUserRequest) (*User, error) {
	caller, err := s.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if caller.ID != id {
		return nil, ErrNotSelf
	}

	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return updated, nil
}

// Delete removes the calling user's own profile
func (s *Service) Delete(ctx context.Context, subject string, id int64) error {
	caller, err := s.ResolveSubject(ctx, subject)
	if err != nil {
		return err
	}
	if caller.ID != id {
		return ErrNotSelf
	}

	return s.repo.Delete(ctx, id)
}
