package messages

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

// CreateNewMessageHandler godoc
// @Summary      Send a message
// @Description  Appends a message to the room's log and broadcasts it to subscribers; the sender must be an active member
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        code path string true "Room code"
// @Param        request body createMessageRequest true "Message content"
// @Success      201 {object} messageResponse "Message appended"
// @Failure      400 {object} json.ErrorResponse "Empty or oversized body"
// @Failure      404 {object} json.ErrorResponse "Room or membership not found"
// @Router       /rooms/{code}/messages [post]
func (h *Handler) CreateNewMessageHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	var req createMessageRequest
	if err := json.Read(r, &req); err != nil {
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

	msg, err := h.gateway.SendMessage(r.Context(), code, userID, req.Body)
	if err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, toMessageResponse(msg))
}

// GetHistoryHandler godoc
// @Summary      Get message history
// @Description  Returns the room's full log ordered oldest first, system messages included
// @Tags         messages
// @Produce      json
// @Param        code path string true "Room code"
// @Success      200 {array} messageResponse "Message history"
// @Failure      404 {object} json.ErrorResponse "Room not found"
// @Router       /rooms/{code}/messages [get]
func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	history, err := h.gateway.History(r.Context(), code)
	if err != nil {
		utils.WriteGatewayError(w, err)
		return
	}

	resp := make([]messageResponse, len(history))
	for i := range history {
		resp[i] = toMessageResponse(&history[i])
	}

	json.Write(w, http.StatusOK, resp)
}

func toMessageResponse(msg *domain.Message) messageResponse {
	return messageResponse{
		ID:        msg.ID,
		RoomCode:  msg.RoomCode,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Body:      msg.Body,
		IsSystem:  msg.IsSystem,
		CreatedAt: msg.CreatedAt,
	}
}
