package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/Techbhatia/groupease/internal/database"
	"github.com/Techbhatia/groupease/internal/user"
)

func newTestService(t *testing.T) (*Service, *user.Service) {
	t.Helper()

	db, err := database.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := user.NewService(user.NewRepository(db))
	return NewService(NewRepository(db), users), users
}

func createTestUser(t *testing.T, users *user.Service, subject, name string) *user.User {
	t.Helper()

	u, err := users.Create(context.Background(), subject, &user.CreateUserRequest{Name: name})
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return u
}

func createTestChannel(t *testing.T, svc *Service, subject, name string) *Channel {
	t.Helper()

	c, err := svc.Create(context.Background(), subject, &CreateChannelRequest{Name: name})
	if err != nil {
		t.Fatalf("Failed to create channel %s: %v", name, err)
	}
	return c
}

func TestCreateChannelMakesCreatorOwner(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	owner := createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")

	isOwner, err := svc.IsOwner(ctx, ch.ID, owner.ID)
	if err != nil {
		t.Fatalf("IsOwner failed: %v", err)
	}
	if !isOwner {
		t.Error("Expected channel creator to be owner")
	}
}

func TestCreateRequestIdempotent(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	createTestUser(t, users, "auth0|u2", "Requester")

	first, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please add me")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if first.Comments != "please add me" {
		t.Errorf("Expected comments preserved verbatim, got %q", first.Comments)
	}

	second, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "different comment")
	if err != nil {
		t.Fatalf("Second create failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the existing request back, got a new one: %d vs %d", second.ID, first.ID)
	}
	if second.Comments != "please add me" {
		t.Errorf("Expected original comments on returned request, got %q", second.Comments)
	}

	all, err := svc.ListRequests(ctx, ch.ID, "auth0|owner")
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected exactly 1 stored request, got %d", len(all))
	}
}

func TestCreateRequestAlreadyMember(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")

	_, err := svc.CreateRequest(ctx, ch.ID, "auth0|owner", "let me in twice")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("Expected ErrAlreadyMember, got %v", err)
	}

	requests, err := svc.ListRequests(ctx, ch.ID, "auth0|owner")
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(requests) != 0 {
		t.Errorf("Expected no stored request, got %d", len(requests))
	}
}

func TestCreateRequestUnknownChannel(t *testing.T) {
	svc, users := newTestService(t)

	createTestUser(t, users, "auth0|u2", "Requester")

	_, err := svc.CreateRequest(context.Background(), 4242, "auth0|u2", "hello")
	if !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("Expected ErrChannelNotFound, got %v", err)
	}
}

func TestCreateRequestUnknownCaller(t *testing.T) {
	svc, users := newTestService(t)

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")

	_, err := svc.CreateRequest(context.Background(), ch.ID, "auth0|stranger", "hello")
	if !errors.Is(err, user.ErrNoProfile) {
		t.Errorf("Expected ErrNoProfile, got %v", err)
	}
}

func TestAcceptRequest(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	requester := createTestUser(t, users, "auth0|u2", "Requester")

	req, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please add me")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if err := svc.AcceptRequest(ctx, ch.ID, req.ID, "auth0|owner"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	isMember, err := svc.IsMember(ctx, ch.ID, requester.ID)
	if err != nil {
		t.Fatalf("IsMember failed: %v", err)
	}
	if !isMember {
		t.Error("Expected requester to be a member after accept")
	}

	isOwner, err := svc.IsOwner(ctx, ch.ID, requester.ID)
	if err != nil {
		t.Fatalf("IsOwner failed: %v", err)
	}
	if isOwner {
		t.Error("Accepted member must not be an owner")
	}

	_, err = svc.GetRequest(ctx, ch.ID, req.ID, "auth0|owner")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Expected request gone after accept, got %v", err)
	}
}

func TestAcceptRequiresOwner(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	createTestUser(t, users, "auth0|u2", "Requester")

	req, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	err = svc.AcceptRequest(ctx, ch.ID, req.ID, "auth0|u2")
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}

	// The request must survive the failed accept
	if _, err := svc.GetRequest(ctx, ch.ID, req.ID, "auth0|owner"); err != nil {
		t.Errorf("Expected request to remain pending, got %v", err)
	}
}

func TestRejectAfterAcceptObservesRequestGone(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	requester := createTestUser(t, users, "auth0|u2", "Requester")

	req, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if err := svc.AcceptRequest(ctx, ch.ID, req.ID, "auth0|owner"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	err = svc.RejectRequest(ctx, ch.ID, req.ID, "auth0|owner")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Expected second terminal action to observe RequestNotFound, got %v", err)
	}

	// Exactly one membership for the requester, from the accept
	members, err := svc.GetMembers(ctx, ch.ID)
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	count := 0
	for _, m := range members {
		if m.UserID == requester.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 membership for requester, got %d", count)
	}
}

func TestAcceptMembershipInsertFailureKeepsRequest(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	requester := createTestUser(t, users, "auth0|u2", "Requester")

	req, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	// Slip the requester into the channel behind the workflow's back so the
	// accept's membership insert hits the uniqueness constraint
	if _, err := svc.repo.AddMember(ctx, ch.ID, requester.ID, RoleMember); err != nil {
		t.Fatalf("Failed to add member directly: %v", err)
	}

	err = svc.AcceptRequest(ctx, ch.ID, req.ID, "auth0|owner")
	if err == nil {
		t.Fatal("Expected accept to fail when the membership insert fails")
	}
	if errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("Expected an internal failure, not ErrRequestNotFound: %v", err)
	}

	// The failed side effect must not consume the request
	if _, err := svc.GetRequest(ctx, ch.ID, req.ID, "auth0|owner"); err != nil {
		t.Errorf("Expected request to remain pending, got %v", err)
	}

	// And the requester still holds exactly one membership
	members, err := svc.GetMembers(ctx, ch.ID)
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	count := 0
	for _, m := range members {
		if m.UserID == requester.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 membership for requester, got %d", count)
	}
}

func TestCreateRequestConcurrentDuplicateLoser(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	requester := createTestUser(t, users, "auth0|u2", "Requester")

	winner, err := svc.repo.CreateRequest(ctx, ch.ID, requester.ID, "first in")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if winner == nil {
		t.Fatal("Expected the first create to return a row")
	}

	// The losing insert resolves to no row rather than a duplicate
	loser, err := svc.repo.CreateRequest(ctx, ch.ID, requester.ID, "second in")
	if err != nil {
		t.Fatalf("Losing create failed: %v", err)
	}
	if loser != nil {
		t.Fatalf("Expected no row for the losing create, got request %d", loser.ID)
	}

	// The service hands back the winner's request either way
	got, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "second in")
	if err != nil {
		t.Fatalf("Service create failed: %v", err)
	}
	if got.ID != winner.ID {
		t.Errorf("Expected the winner's request %d, got %d", winner.ID, got.ID)
	}
	if got.Comments != "first in" {
		t.Errorf("Expected the winner's comments, got %q", got.Comments)
	}
}

func TestCreateChannelRollsBackWithoutOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// No such user; the owner membership insert fails and the channel
	// insert must roll back with it
	_, err := svc.repo.Create(ctx, &CreateChannelRequest{Name: "Orphan"}, 9999)
	if err == nil {
		t.Fatal("Expected create with unknown owner to fail")
	}

	_, total, err := svc.repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected no channel to survive the failed create, got %d", total)
	}
}

func TestRejectDeletesWithoutMembership(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	requester := createTestUser(t, users, "auth0|u2", "Requester")

	req, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if err := svc.RejectRequest(ctx, ch.ID, req.ID, "auth0|owner"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	isMember, err := svc.IsMember(ctx, ch.ID, requester.ID)
	if err != nil {
		t.Fatalf("IsMember failed: %v", err)
	}
	if isMember {
		t.Error("Reject must not create a membership")
	}

	_, err = svc.GetRequest(ctx, ch.ID, req.ID, "auth0|owner")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Expected request gone after reject, got %v", err)
	}
}

func TestListVisibility(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	createTestUser(t, users, "auth0|u2", "Second")
	createTestUser(t, users, "auth0|u3", "Third")
	createTestUser(t, users, "auth0|u4", "Fourth")

	first, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "first")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	second, err := svc.CreateRequest(ctx, ch.ID, "auth0|u3", "second")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	// Owner sees all requests in insertion order
	all, err := svc.ListRequests(ctx, ch.ID, "auth0|owner")
	if err != nil {
		t.Fatalf("ListRequests as owner failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 requests for owner, got %d", len(all))
	}
	if all[0].ID != first.ID || all[1].ID != second.ID {
		t.Error("Expected requests in insertion order")
	}

	// A requestor sees only their own
	own, err := svc.ListRequests(ctx, ch.ID, "auth0|u2")
	if err != nil {
		t.Fatalf("ListRequests as requestor failed: %v", err)
	}
	if len(own) != 1 || own[0].ID != first.ID {
		t.Errorf("Expected requestor to see only their request, got %d", len(own))
	}

	// A non-owner with no pending request gets an empty list, not an error
	none, err := svc.ListRequests(ctx, ch.ID, "auth0|u4")
	if err != nil {
		t.Fatalf("ListRequests with no requests failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected empty list, got %d", len(none))
	}
}

func TestGetRequestCrossChannel(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	chA := createTestChannel(t, svc, "auth0|owner", "Channel A")
	chB := createTestChannel(t, svc, "auth0|owner", "Channel B")
	createTestUser(t, users, "auth0|u2", "Requester")

	req, err := svc.CreateRequest(ctx, chA.ID, "auth0|u2", "please")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	// Even the owner of both channels cannot reach the request through the
	// wrong channel's path
	_, err = svc.GetRequest(ctx, chB.ID, req.ID, "auth0|owner")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Expected ErrRequestNotFound under wrong channel, got %v", err)
	}

	err = svc.AcceptRequest(ctx, chB.ID, req.ID, "auth0|owner")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Expected accept under wrong channel to fail with ErrRequestNotFound, got %v", err)
	}

	// And it is still reachable under its true channel
	if _, err := svc.GetRequest(ctx, chA.ID, req.ID, "auth0|owner"); err != nil {
		t.Errorf("Expected request under true channel, got %v", err)
	}
}

func TestGetRequestForbiddenForStranger(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	createTestUser(t, users, "auth0|u2", "Requester")
	createTestUser(t, users, "auth0|u3", "Stranger")

	req, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	_, err = svc.GetRequest(ctx, ch.ID, req.ID, "auth0|u3")
	if !errors.Is(err, ErrNotRequestor) {
		t.Errorf("Expected ErrNotRequestor, got %v", err)
	}
}

func TestCancelByOwnerForbidden(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	createTestUser(t, users, "auth0|u2", "Requester")

	req, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	err = svc.CancelRequest(ctx, ch.ID, req.ID, "auth0|owner")
	if !errors.Is(err, ErrOwnerCannotCancel) {
		t.Errorf("Expected ErrOwnerCannotCancel, got %v", err)
	}

	// Cancel by the requestor removes the request
	if err := svc.CancelRequest(ctx, ch.ID, req.ID, "auth0|u2"); err != nil {
		t.Fatalf("Cancel by requestor failed: %v", err)
	}

	_, err = svc.GetRequest(ctx, ch.ID, req.ID, "auth0|owner")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Expected request gone after cancel, got %v", err)
	}
}

func TestCancelUnknownCaller(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	createTestUser(t, users, "auth0|owner", "Owner")
	ch := createTestChannel(t, svc, "auth0|owner", "General")
	createTestUser(t, users, "auth0|u2", "Requester")

	req, err := svc.CreateRequest(ctx, ch.ID, "auth0|u2", "please")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	err = svc.CancelRequest(ctx, ch.ID, req.ID, "auth0|nobody")
	if !errors.Is(err, user.ErrNoProfile) {
		t.Errorf("Expected ErrNoProfile, got %v", err)
	}
}
