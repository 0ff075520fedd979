package group

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Techbhatia/groupease/internal/channel"
	"github.com/Techbhatia/groupease/internal/user"
	"github.com/Techbhatia/groupease/pkg/middleware"
	"github.com/Techbhatia/groupease/pkg/response"
)

// Handler handles HTTP requests for group operations. It is mounted under
// /channels/{channelId}/groups, so every handler sees both scope IDs.
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{groupId}", h.GetByID)
	r.Get("/{groupId}/members", h.GetMembers)

	// Join requests
	r.Get("/{groupId}/join-requests", h.ListRequests)
	r.Post("/{groupId}/join-requests", h.CreateRequest)
	r.Get("/{groupId}/join-requests/{requestId}", h.GetRequest)
	r.Post("/{groupId}/join-requests/{requestId}/acceptance", h.AcceptRequest)
	r.Post("/{groupId}/join-requests/{requestId}/rejection", h.RejectRequest)
	r.Delete("/{groupId}/join-requests/{requestId}", h.CancelRequest)

	return r
}

// Create handles POST /channels/{channelId}/groups
// @Summary      Create a new group
// @Description  Create a group inside a channel and add the caller as its first member
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        channelId path int true "Channel ID"
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /channels/{channelId}/groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	subject, channelID, ok := h.channelScope(w, r)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	group, err := h.service.Create(r.Context(), channelID, subject, &req)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse())
}

// GetByID handles GET /channels/{channelId}/groups/{groupId}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.ParseInt(chi.URLParam(r, "channelId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid channel ID")
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, err := h.service.Resolve(r.Context(), channelID, groupID)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to get group")
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse())
}

// List handles GET /channels/{channelId}/groups
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.ParseInt(chi.URLParam(r, "channelId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid channel ID")
		return
	}

	groups, err := h.service.ListByChannel(r.Context(), channelID)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to list groups")
		return
	}

	groupResponses := make([]*GroupResponse, len(groups))
	for i, g := range groups {
		groupResponses[i] = g.ToResponse()
	}

	response.JSON(w, http.StatusOK, groupResponses)
}

// GetMembers handles GET /channels/{channelId}/groups/{groupId}/members
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.ParseInt(chi.URLParam(r, "channelId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid channel ID")
		return
	}
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	members, err := h.service.GetMembers(r.Context(), channelID, groupID)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to get members")
		return
	}

	memberResponses := make([]*MemberResponse, len(members))
	for i, m := range members {
		memberResponses[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, memberResponses)
}

// ListRequests handles GET /channels/{channelId}/groups/{groupId}/join-requests
// @Summary      List group join requests
// @Description  Group members see all pending requests; other callers see only their own
// @Tags         group-join-requests
// @Produce      json
// @Param        channelId path int true "Channel ID"
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]JoinRequestResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /channels/{channelId}/groups/{groupId}/join-requests [get]
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	subject, channelID, groupID, ok := h.groupScope(w, r)
	if !ok {
		return
	}

	requests, err := h.service.ListRequests(r.Context(), channelID, groupID, subject)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to list join requests")
		return
	}

	requestResponses := make([]*JoinRequestResponse, len(requests))
	for i, req := range requests {
		requestResponses[i] = req.ToResponse()
	}

	response.JSON(w, http.StatusOK, requestResponses)
}

// GetRequest handles GET /channels/{channelId}/groups/{groupId}/join-requests/{requestId}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	subject, channelID, groupID, ok := h.groupScope(w, r)
	if !ok {
		return
	}

	requestID, err := strconv.ParseInt(chi.URLParam(r, "requestId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid join request ID")
		return
	}

	request, err := h.service.GetRequest(r.Context(), channelID, groupID, requestID, subject)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to get join request")
		return
	}

	response.JSON(w, http.StatusOK, request.ToResponse())
}

// CreateRequest handles POST /channels/{channelId}/groups/{groupId}/join-requests
// @Summary      Request to join a group
// @Description  Create a join request; if one is already pending for the caller it is returned unchanged
// @Tags         group-join-requests
// @Accept       json
// @Produce      json
// @Param        channelId path int true "Channel ID"
// @Param        groupId path int true "Group ID"
// @Param        request body CreateJoinRequestRequest true "Request comments"
// @Success      201 {object} response.APIResponse{data=JoinRequestResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /channels/{channelId}/groups/{groupId}/join-requests [post]
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	subject, channelID, groupID, ok := h.groupScope(w, r)
	if !ok {
		return
	}

	var req CreateJoinRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	request, err := h.service.CreateRequest(r.Context(), channelID, groupID, subject, req.Comments)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to create join request")
		return
	}

	response.JSON(w, http.StatusCreated, request.ToResponse())
}

// AcceptRequest handles POST .../join-requests/{requestId}/acceptance
// @Summary      Accept a group join request
// @Description  Add the requestor as a group member and remove the request; group members only
// @Tags         group-join-requests
// @Param        channelId path int true "Channel ID"
// @Param        groupId path int true "Group ID"
// @Param        requestId path int true "Join request ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /channels/{channelId}/groups/{groupId}/join-requests/{requestId}/acceptance [post]
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.terminalAction(w, r, h.service.AcceptRequest, "Failed to accept join request")
}

// RejectRequest handles POST .../join-requests/{requestId}/rejection
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.terminalAction(w, r, h.service.RejectRequest, "Failed to reject join request")
}

// CancelRequest handles DELETE .../join-requests/{requestId}
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.terminalAction(w, r, h.service.CancelRequest, "Failed to cancel join request")
}

// terminalAction runs one of the accept/reject/cancel operations, all of
// which share parameter parsing and reply with no body on success
func (h *Handler) terminalAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, channelID, groupID, requestID int64, subject string) error,
	failureMessage string,
) {
	subject, channelID, groupID, ok := h.groupScope(w, r)
	if !ok {
		return
	}

	requestID, err := strconv.ParseInt(chi.URLParam(r, "requestId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid join request ID")
		return
	}

	if err := action(r.Context(), channelID, groupID, requestID, subject); err != nil {
		h.writeWorkflowError(w, err, failureMessage)
		return
	}

	response.NoContent(w)
}

// channelScope pulls the caller subject and channel ID
func (h *Handler) channelScope(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	subject, ok := middleware.GetSubject(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return "", 0, false
	}

	channelID, err := strconv.ParseInt(chi.URLParam(r, "channelId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid channel ID")
		return "", 0, false
	}

	return subject, channelID, true
}

// groupScope pulls the caller subject plus the channel and group IDs every
// join-request handler needs
func (h *Handler) groupScope(w http.ResponseWriter, r *http.Request) (string, int64, int64, bool) {
	subject, channelID, ok := h.channelScope(w, r)
	if !ok {
		return "", 0, 0, false
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return "", 0, 0, false
	}

	return subject, channelID, groupID, true
}

// writeWorkflowError maps workflow errors to responses. Not-found and
// forbidden are always kept distinct so clients can branch on them.
func (h *Handler) writeWorkflowError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, channel.ErrChannelNotFound),
		errors.Is(err, user.ErrNoProfile):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotMember),
		errors.Is(err, ErrNotRequestor),
		errors.Is(err, ErrMemberCannotCancel),
		errors.Is(err, ErrNotChannelMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrAlreadyMember):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
