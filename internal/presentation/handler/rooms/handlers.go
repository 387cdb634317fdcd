package rooms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/gateway"
	"github.com/hilthontt/retrochat/internal/infrastructure/json"
	"github.com/hilthontt/retrochat/internal/presentation/utils"
)

type Handler struct {
	gateway *gateway.Gateway
}

func NewHandler(gw *gateway.Gateway) *Handler {
	return &Handler{
		gateway: gw,
	}
}

// CreateRoomHandler godoc
// @Summary      Create a new chat room
// @Description  Creates a room with a short join code, mints the host identity and activates the host membership
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body createRoomRequest true "Room creation parameters"
// @Success      201 {object} createRoomResponse "Room created successfully"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Failure      503 {object} json.ErrorResponse "Code space or store capacity exhausted"
// @Router       /rooms [post]
func (h *Handler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	room, host, err := h.gateway.CreateRoom(r.Context(), req.Name, req.Username)
	if err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	utils.SetIdentityCookie(w, room.Code, host.UserID)

	json.Write(w, http.StatusCreated, createRoomResponse{
		Code:       room.Code,
		Name:       room.Name,
		HostUserID: host.UserID,
		CreatedAt:  room.CreatedAt,
	})
}

// GetRoomHandler godoc
// @Summary      Get room details
// @Description  Resolves a join code to a live room; lookup is case-insensitive
// @Tags         rooms
// @Produce      json
// @Param        code path string true "Room code"
// @Success      200 {object} roomResponse "Room details"
// @Failure      404 {object} json.ErrorResponse "Room not found or expired"
// @Router       /rooms/{code} [get]
func (h *Handler) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	room, err := h.gateway.GetRoom(r.Context(), code)
	if err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	json.Write(w, http.StatusOK, roomResponse{
		Code:       room.Code,
		Name:       room.Name,
		HostUserID: room.HostUserID,
		CreatedAt:  room.CreatedAt,
	})
}

// JoinRoomHandler godoc
// @Summary      Request to join a room
// @Description  Files a pending join request for host arbitration; a fresh identity is minted per attempt
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        code path string true "Room code"
// @Param        request body joinRoomRequest true "Join parameters"
// @Success      202 {object} joinRequestResponse "Join request filed"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{code}/join [post]
func (h *Handler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	var req joinRoomRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	joinReq, err := h.gateway.RequestToJoin(r.Context(), code, req.Username)
	if err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	utils.SetIdentityCookie(w, joinReq.RoomCode, joinReq.UserID)

	json.Write(w, http.StatusAccepted, toJoinRequestResponse(joinReq))
}

// DecideJoinRequestHandler godoc
// @Summary      Decide a join request
// @Description  Accepts or rejects a pending join request; a request is decided at most once
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        requestId path string true "Join request ID"
// @Param        request body decideRequest true "Verdict"
// @Success      200 {object} joinRequestResponse "Decision landed"
// @Failure      404 {object} json.ErrorResponse "Request not found"
// @Failure      409 {object} json.ErrorResponse "Request already decided"
// @Router       /requests/{requestId}/decision [post]
func (h *Handler) DecideJoinRequestHandler(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		json.WriteValidationError(w, errors.New("request ID is missing"))
		return
	}

	var req decideRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	decided, err := h.gateway.DecideJoinRequest(r.Context(), requestID, req.Accept)
	if err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toJoinRequestResponse(decided))
}

// LeaveRoomHandler godoc
// @Summary      Leave a room
// @Description  Deactivates the caller's membership; leaving twice is a no-op
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        code path string true "Room code"
// @Param        request body leaveRoomRequest false "Identity to deactivate"
// @Success      204 "Left room"
// @Failure      400 {object} json.ErrorResponse "Missing identity"
// @Router       /rooms/{code}/leave [post]
func (h *Handler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	// The body is optional: a cookie-identified caller sends none.
	var req leaveRoomRequest
	if err := json.ReadOptional(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = utils.GetIdentityFromRequest(r)
	}
	if userID == "" {
		json.WriteBadRequestError(w, "user ID is required")
		return
	}

	if err := h.gateway.LeaveRoom(r.Context(), code, userID); err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMembersHandler godoc
// @Summary      List active members
// @Description  Returns the room's current roster, oldest joiner first
// @Tags         rooms
// @Produce      json
// @Param        code path string true "Room code"
// @Success      200 {array} memberResponse "Active members"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{code}/members [get]
func (h *Handler) ListMembersHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	members, err := h.gateway.ListActiveMembers(r.Context(), code)
	if err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	resp := make([]memberResponse, len(members))
	for i, m := range members {
		resp[i] = memberResponse{
			UserID:   m.UserID,
			Username: m.Username,
			JoinedAt: m.JoinedAt,
		}
	}

	json.Write(w, http.StatusOK, resp)
}

// ListJoinRequestsHandler godoc
// @Summary      List pending join requests
// @Description  Returns the room's undecided join requests, newest first
// @Tags         rooms
// @Produce      json
// @Param        code path string true "Room code"
// @Success      200 {array} joinRequestResponse "Pending requests"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{code}/requests [get]
func (h *Handler) ListJoinRequestsHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	pending, err := h.gateway.ListPendingRequests(r.Context(), code)
	if err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	resp := make([]joinRequestResponse, len(pending))
	for i := range pending {
		resp[i] = toJoinRequestResponse(&pending[i])
	}

	json.Write(w, http.StatusOK, resp)
}

func toJoinRequestResponse(req *domain.JoinRequest) joinRequestResponse {
	return joinRequestResponse{
		ID:        req.ID,
		RoomCode:  req.RoomCode,
		UserID:    req.UserID,
		Username:  req.Username,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
	}
}
