package channel

import (
	"context"
	"errors"

	"github.com/Techbhatia/groupease/internal/user"
)

// Common errors
var (
	ErrChannelNotFound   = errors.New("channel not found")
	ErrRequestNotFound   = errors.New("join request not found")
	ErrAlreadyMember     = errors.New("user is already a member of this channel")
	ErrNotOwner          = errors.New("only a channel owner can perform this action")
	ErrNotRequestor      = errors.New("only the requestor or a channel owner may view this join request")
	ErrOwnerCannotCancel = errors.New("only the requestor can cancel a join request; owners must accept or reject")
)

// Service handles channel business logic. The caller's identity is passed in
// as the auth-provider subject and resolved once per operation; it is never
// held as service state.
type Service struct {
	repo  *Repository
	users *user.Service
}

// NewService creates a new channel service
func NewService(repo *Repository, users *user.Service) *Service {
	return &Service{repo: repo, users: users}
}

// Create creates a new channel and adds the creator as its owner
func (s *Service) Create(ctx context.Context, subject string, req *CreateChannelRequest) (*Channel, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, req, caller.ID)
}

// GetByID retrieves a channel by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Channel, error) {
	channel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}
	return channel, nil
}

// List retrieves all channels with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*Channel, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

// GetMembers retrieves all members of a channel
func (s *Service) GetMembers(ctx context.Context, channelID int64) ([]*Membership, error) {
	if _, err := s.GetByID(ctx, channelID); err != nil {
		return nil, err
	}
	return s.repo.GetMembers(ctx, channelID)
}

// IsMember reports whether the user belongs to the channel
func (s *Service) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	member, err := s.repo.GetMember(ctx, channelID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// IsOwner reports whether the user owns the channel
func (s *Service) IsOwner(ctx context.Context, channelID, userID int64) (bool, error) {
	member, err := s.repo.GetMember(ctx, channelID, userID)
	if err != nil {
		return false, err
	}
	return member != nil && member.Role == RoleOwner, nil
}

// ListRequests lists the pending join requests of a channel. Channel owners
// see every request; anyone else sees only their own (zero or one). An empty
// result is not an error.
func (s *Service) ListRequests(ctx context.Context, channelID int64, subject string) ([]*JoinRequest, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetByID(ctx, channelID); err != nil {
		return nil, err
	}

	owner, err := s.IsOwner(ctx, channelID, caller.ID)
	if err != nil {
		return nil, err
	}
	if owner {
		return s.repo.ListRequests(ctx, channelID)
	}

	return s.repo.ListRequestsByRequestor(ctx, channelID, caller.ID)
}

// GetRequest retrieves a single join request. Only a channel owner or the
// requestor may view it. A request that exists under a different channel than
// the one named is reported as not found, so request IDs cannot be probed
// across channels.
func (s *Service) GetRequest(ctx context.Context, channelID, requestID int64, subject string) (*JoinRequest, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil || request.ChannelID != channelID {
		return nil, ErrRequestNotFound
	}

	owner, err := s.IsOwner(ctx, channelID, caller.ID)
	if err != nil {
		return nil, err
	}
	if owner || request.RequestorID == caller.ID {
		return request, nil
	}

	return nil, ErrNotRequestor
}

// CreateRequest creates a join request for the calling user. If the user
// already has a pending request in the channel, that request is returned
// unchanged rather than duplicated. Members of the channel cannot create
// requests.
func (s *Service) CreateRequest(ctx context.Context, channelID int64, subject, comments string) (*JoinRequest, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetByID(ctx, channelID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetRequestForUser(ctx, channelID, caller.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	member, err := s.IsMember(ctx, channelID, caller.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyMember
	}

	request, err := s.repo.CreateRequest(ctx, channelID, caller.ID, comments)
	if err != nil {
		return nil, err
	}
	if request == nil {
		// Lost a concurrent create from the same user; the winner's row is
		// the request to return
		return s.repo.GetRequestForUser(ctx, channelID, caller.ID)
	}

	return request, nil
}

// AcceptRequest accepts a join request, making the requestor a channel
// member and removing the request. Owner only.
func (s *Service) AcceptRequest(ctx context.Context, channelID, requestID int64, subject string) error {
	request, err := s.authorizeOwnerAction(ctx, channelID, requestID, subject)
	if err != nil {
		return err
	}

	return s.repo.AcceptRequest(ctx, request)
}

// RejectRequest rejects a join request, removing it without creating a
// membership. Nothing records the rejection. Owner only.
func (s *Service) RejectRequest(ctx context.Context, channelID, requestID int64, subject string) error {
	request, err := s.authorizeOwnerAction(ctx, channelID, requestID, subject)
	if err != nil {
		return err
	}

	return s.repo.DeleteRequest(ctx, request.ID)
}

// CancelRequest cancels a pending join request. Only the requestor can
// cancel; channel owners must accept or reject instead.
func (s *Service) CancelRequest(ctx context.Context, channelID, requestID int64, subject string) error {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil || request.ChannelID != channelID {
		return ErrRequestNotFound
	}

	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return err
	}
	if request.RequestorID != caller.ID {
		return ErrOwnerCannotCancel
	}

	return s.repo.DeleteRequest(ctx, request.ID)
}

// authorizeOwnerAction resolves a request against the path channel and
// verifies the caller owns that channel
func (s *Service) authorizeOwnerAction(ctx context.Context, channelID, requestID int64, subject string) (*JoinRequest, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil || request.ChannelID != channelID {
		return nil, ErrRequestNotFound
	}

	owner, err := s.IsOwner(ctx, channelID, caller.ID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrNotOwner
	}

	return request, nil
}
