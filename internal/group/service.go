package group

import (
	"context"
	"errors"

	"github.com/Techbhatia/groupease/internal/channel"
	"github.com/Techbhatia/groupease/internal/user"
)

// Common errors
var (
	ErrGroupNotFound      = errors.New("no group with that ID in that channel was found")
	ErrRequestNotFound    = errors.New("group join request not found")
	ErrAlreadyMember      = errors.New("user is already a member of this group")
	ErrNotMember          = errors.New("only a group member can perform this action")
	ErrNotRequestor       = errors.New("only the requestor or a group member may view this join request")
	ErrMemberCannotCancel = errors.New("only the requestor can cancel a join request; group members must accept or reject")
	ErrNotChannelMember   = errors.New("user must be a channel member to create a group in it")
)

// Service handles group business logic. Where the channel workflow gates
// accept/reject on channel ownership, the group workflow gates on plain
// group membership; groups have no owner role.
type Service struct {
	repo     *Repository
	users    *user.Service
	channels *channel.Service
}

// NewService creates a new group service
func NewService(repo *Repository, users *user.Service, channels *channel.Service) *Service {
	return &Service{repo: repo, users: users, channels: channels}
}

// Create creates a new group inside a channel and adds the creator as its
// first member. Only channel members can create groups.
func (s *Service) Create(ctx context.Context, channelID int64, subject string, req *CreateGroupRequest) (*Group, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	if _, err := s.channels.GetByID(ctx, channelID); err != nil {
		return nil, err
	}

	member, err := s.channels.IsMember(ctx, channelID, caller.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotChannelMember
	}

	return s.repo.Create(ctx, channelID, req, caller.ID)
}

// Resolve retrieves a group by ID and verifies it belongs to the channel
// named in the path. A group that exists under a different channel is
// reported as not found; group IDs cannot be probed across channels.
func (s *Service) Resolve(ctx context.Context, channelID, groupID int64) (*Group, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil || group.ChannelID != channelID {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// ListByChannel retrieves all groups in a channel
func (s *Service) ListByChannel(ctx context.Context, channelID int64) ([]*Group, error) {
	if _, err := s.channels.GetByID(ctx, channelID); err != nil {
		return nil, err
	}
	return s.repo.ListByChannel(ctx, channelID)
}

// GetMembers retrieves all members of a group
func (s *Service) GetMembers(ctx context.Context, channelID, groupID int64) ([]*Member, error) {
	if _, err := s.Resolve(ctx, channelID, groupID); err != nil {
		return nil, err
	}
	return s.repo.GetMembers(ctx, groupID)
}

// IsMember reports whether the user belongs to the group
func (s *Service) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// ListRequests lists the pending join requests of a group. Group members see
// every request; anyone else sees only their own (zero or one). An empty
// result is not an error.
func (s *Service) ListRequests(ctx context.Context, channelID, groupID int64, subject string) ([]*JoinRequest, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	if _, err := s.Resolve(ctx, channelID, groupID); err != nil {
		return nil, err
	}

	member, err := s.IsMember(ctx, groupID, caller.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return s.repo.ListRequests(ctx, groupID)
	}

	return s.repo.ListRequestsByRequestor(ctx, groupID, caller.ID)
}

// GetRequest retrieves a single join request. Only a group member or the
// requestor may view it.
func (s *Service) GetRequest(ctx context.Context, channelID, groupID, requestID int64, subject string) (*JoinRequest, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	if _, err := s.Resolve(ctx, channelID, groupID); err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil || request.GroupID != groupID {
		return nil, ErrRequestNotFound
	}

	member, err := s.IsMember(ctx, groupID, caller.ID)
	if err != nil {
		return nil, err
	}
	if member || request.RequestorID == caller.ID {
		return request, nil
	}

	return nil, ErrNotRequestor
}

// CreateRequest creates a join request for the calling user. If the user
// already has a pending request for the group, that request is returned
// unchanged rather than duplicated. Group members cannot create requests.
func (s *Service) CreateRequest(ctx context.Context, channelID, groupID int64, subject, comments string) (*JoinRequest, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	if _, err := s.Resolve(ctx, channelID, groupID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetRequestForUser(ctx, groupID, caller.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	member, err := s.IsMember(ctx, groupID, caller.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, ErrAlreadyMember
	}

	request, err := s.repo.CreateRequest(ctx, groupID, caller.ID, comments)
	if err != nil {
		return nil, err
	}
	if request == nil {
		// Lost a concurrent create from the same user; the winner's row is
		// the request to return
		return s.repo.GetRequestForUser(ctx, groupID, caller.ID)
	}

	return request, nil
}

// AcceptRequest accepts a join request, making the requestor a group member
// and removing the request. Group members only.
func (s *Service) AcceptRequest(ctx context.Context, channelID, groupID, requestID int64, subject string) error {
	request, err := s.authorizeMemberAction(ctx, channelID, groupID, requestID, subject)
	if err != nil {
		return err
	}

	return s.repo.AcceptRequest(ctx, request)
}

// RejectRequest rejects a join request, removing it without creating a
// membership. Nothing records the rejection. Group members only.
func (s *Service) RejectRequest(ctx context.Context, channelID, groupID, requestID int64, subject string) error {
	request, err := s.authorizeMemberAction(ctx, channelID, groupID, requestID, subject)
	if err != nil {
		return err
	}

	return s.repo.DeleteRequest(ctx, request.ID)
}

// CancelRequest cancels a pending join request. Only the requestor can
// cancel; group members must accept or reject instead.
func (s *Service) CancelRequest(ctx context.Context, channelID, groupID, requestID int64, subject string) error {
	if _, err := s.Resolve(ctx, channelID, groupID); err != nil {
		return err
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil || request.GroupID != groupID {
		return ErrRequestNotFound
	}

	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return err
	}
	if request.RequestorID != caller.ID {
		return ErrMemberCannotCancel
	}

	return s.repo.DeleteRequest(ctx, request.ID)
}

// authorizeMemberAction resolves a request against the path scope and
// verifies the caller is a member of the group
func (s *Service) authorizeMemberAction(ctx context.Context, channelID, groupID, requestID int64, subject string) (*JoinRequest, error) {
	caller, err := s.users.ResolveSubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	if _, err := s.Resolve(ctx, channelID, groupID); err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil || request.GroupID != groupID {
		return nil, ErrRequestNotFound
	}

	member, err := s.IsMember(ctx, groupID, caller.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	return request, nil
}
