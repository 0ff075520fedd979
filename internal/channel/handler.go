package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Techbhatia/groupease/internal/user"
	"github.com/Techbhatia/groupease/pkg/middleware"
	"github.com/Techbhatia/groupease/pkg/response"
)

// Handler handles HTTP requests for channel operations
type Handler struct {
	service *Service
}

// NewHandler creates a new channel handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for channel endpoints. The group router is
// mounted beneath each channel so group join requests stay scoped to both a
// channel and a group.
func (h *Handler) Routes(groups chi.Router) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{channelId}", h.GetByID)
	r.Get("/{channelId}/members", h.GetMembers)

	// Join requests
	r.Get("/{channelId}/join-requests", h.ListRequests)
	r.Post("/{channelId}/join-requests", h.CreateRequest)
	r.Get("/{channelId}/join-requests/{requestId}", h.GetRequest)
	r.Post("/{channelId}/join-requests/{requestId}/acceptance", h.AcceptRequest)
	r.Post("/{channelId}/join-requests/{requestId}/rejection", h.RejectRequest)
	r.Delete("/{channelId}/join-requests/{requestId}", h.CancelRequest)

	if groups != nil {
		r.Mount("/{channelId}/groups", groups)
	}

	return r
}

// Create handles POST /channels
// @Summary      Create a new channel
// @Description  Create a channel and add the caller as its owner
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        request body CreateChannelRequest true "Channel creation request"
// @Success      201 {object} response.APIResponse{data=ChannelResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /channels [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	subject, ok := middleware.GetSubject(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	channel, err := h.service.Create(r.Context(), subject, &req)
	if err != nil {
		if errors.Is(err, user.ErrNoProfile) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to create channel")
		return
	}

	response.JSON(w, http.StatusCreated, channel.ToResponse())
}

// GetByID handles GET /channels/{channelId}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.ParseInt(chi.URLParam(r, "channelId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid channel ID")
		return
	}

	channel, err := h.service.GetByID(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get channel")
		return
	}

	response.JSON(w, http.StatusOK, channel.ToResponse())
}

// List handles GET /channels
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	channels, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list channels")
		return
	}

	channelResponses := make([]*ChannelResponse, len(channels))
	for i, c := range channels {
		channelResponses[i] = c.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, channelResponses, meta)
}

// GetMembers handles GET /channels/{channelId}/members
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.ParseInt(chi.URLParam(r, "channelId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid channel ID")
		return
	}

	members, err := h.service.GetMembers(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get members")
		return
	}

	memberResponses := make([]*MemberResponse, len(members))
	for i, m := range members {
		memberResponses[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, memberResponses)
}

// ListRequests handles GET /channels/{channelId}/join-requests
// @Summary      List join requests
// @Description  Channel owners see all pending requests; other callers see only their own
// @Tags         join-requests
// @Produce      json
// @Param        channelId path int true "Channel ID"
// @Success      200 {object} response.APIResponse{data=[]JoinRequestResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /channels/{channelId}/join-requests [get]
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	subject, channelID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	requests, err := h.service.ListRequests(r.Context(), channelID, subject)
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

// GetRequest handles GET /channels/{channelId}/join-requests/{requestId}
// @Summary      Get a join request
// @Description  Retrieve a join request; only the requestor or a channel owner may view it
// @Tags         join-requests
// @Produce      json
// @Param        channelId path int true "Channel ID"
// @Param        requestId path int true "Join request ID"
// @Success      200 {object} response.APIResponse{data=JoinRequestResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /channels/{channelId}/join-requests/{requestId} [get]
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	subject, channelID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	requestID, err := strconv.ParseInt(chi.URLParam(r, "requestId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid join request ID")
		return
	}

	request, err := h.service.GetRequest(r.Context(), channelID, requestID, subject)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to get join request")
		return
	}

	response.JSON(w, http.StatusOK, request.ToResponse())
}

// CreateRequest handles POST /channels/{channelId}/join-requests
// @Summary      Request to join a channel
// @Description  Create a join request; if one is already pending for the caller it is returned unchanged
// @Tags         join-requests
// @Accept       json
// @Produce      json
// @Param        channelId path int true "Channel ID"
// @Param        request body CreateJoinRequestRequest true "Request comments"
// @Success      201 {object} response.APIResponse{data=JoinRequestResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /channels/{channelId}/join-requests [post]
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	subject, channelID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req CreateJoinRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	request, err := h.service.CreateRequest(r.Context(), channelID, subject, req.Comments)
	if err != nil {
		h.writeWorkflowError(w, err, "Failed to create join request")
		return
	}

	response.JSON(w, http.StatusCreated, request.ToResponse())
}

// AcceptRequest handles POST /channels/{channelId}/join-requests/{requestId}/acceptance
// @Summary      Accept a join request
// @Description  Add the requestor as a channel member and remove the request; channel owners only
// @Tags         join-requests
// @Param        channelId path int true "Channel ID"
// @Param        requestId path int true "Join request ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /channels/{channelId}/join-requests/{requestId}/acceptance [post]
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.terminalAction(w, r, h.service.AcceptRequest, "Failed to accept join request")
}

// RejectRequest handles POST /channels/{channelId}/join-requests/{requestId}/rejection
// @Summary      Reject a join request
// @Description  Remove the request without creating a membership; channel owners only
// @Tags         join-requests
// @Param        channelId path int true "Channel ID"
// @Param        requestId path int true "Join request ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /channels/{channelId}/join-requests/{requestId}/rejection [post]
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.terminalAction(w, r, h.service.RejectRequest, "Failed to reject join request")
}

// CancelRequest handles DELETE /channels/{channelId}/join-requests/{requestId}
// @Summary      Cancel a join request
// @Description  Delete a pending join request; only its requestor may cancel it
// @Tags         join-requests
// @Param        channelId path int true "Channel ID"
// @Param        requestId path int true "Join request ID"
// @Success      204
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /channels/{channelId}/join-requests/{requestId} [delete]
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.terminalAction(w, r, h.service.CancelRequest, "Failed to cancel join request")
}

// terminalAction runs one of the accept/reject/cancel operations, all of
// which share parameter parsing and reply with no body on success
func (h *Handler) terminalAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, channelID, requestID int64, subject string) error,
	failureMessage string,
) {
	subject, channelID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	requestID, err := strconv.ParseInt(chi.URLParam(r, "requestId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid join request ID")
		return
	}

	if err := action(r.Context(), channelID, requestID, subject); err != nil {
		h.writeWorkflowError(w, err, failureMessage)
		return
	}

	response.NoContent(w)
}

// requestScope pulls the caller subject and channel ID every join-request
// handler needs, replying with the right error when either is missing
func (h *Handler) requestScope(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
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

// writeWorkflowError maps workflow errors to responses. Not-found and
// forbidden are always kept distinct so clients can branch on them.
func (h *Handler) writeWorkflowError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrChannelNotFound), errors.Is(err, ErrRequestNotFound), errors.Is(err, user.ErrNoProfile):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotRequestor), errors.Is(err, ErrOwnerCannotCancel):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrAlreadyMember):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
