// Package audit exposes the room audit trail collected by the event
// consumer.
package audit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/infrastructure/json"
)

const defaultLimit = 50

type Handler struct {
	repo domain.RoomAuditRepository
}

func NewHandler(repo domain.RoomAuditRepository) *Handler {
	return &Handler{
		repo: repo,
	}
}

// GetRoomAuditHandler godoc
// @Summary      Get a room's audit trail
// @Description  Returns the room's recorded events, newest first
// @Tags         audit
// @Produce      json
// @Param        code path string true "Room code"
// @Param        limit query int false "Maximum number of entries" default(50)
// @Success      200 {array} auditEntryResponse "Audit entries"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Router       /rooms/{code}/audit [get]
func (h *Handler) GetRoomAuditHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			json.WriteBadRequestError(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	logs, err := h.repo.GetByRoomCode(r.Context(), code, limit)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toAuditResponses(logs))
}

// QueryAuditHandler godoc
// @Summary      Query audit entries by event type
// @Description  Returns entries of one event type within a time window, newest first
// @Tags         audit
// @Produce      json
// @Param        eventType query string true "Event type (room_created, join_requested, ...)"
// @Param        from query string false "Window start, RFC3339"
// @Param        to query string false "Window end, RFC3339; defaults to now"
// @Success      200 {array} auditEntryResponse "Audit entries"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Router       /audit [get]
func (h *Handler) QueryAuditHandler(w http.ResponseWriter, r *http.Request) {
	eventType := r.URL.Query().Get("eventType")
	if eventType == "" {
		json.WriteBadRequestError(w, "eventType is required")
		return
	}

	from, err := parseTimeParam(r, "from", time.Time{})
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	to, err := parseTimeParam(r, "to", time.Now().UTC())
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	logs, err := h.repo.GetByEventType(r.Context(), domain.RoomEventType(eventType), from, to)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toAuditResponses(logs))
}

// PurgeAuditHandler godoc
// @Summary      Purge old audit entries
// @Description  Deletes every entry older than the given timestamp
// @Tags         audit
// @Param        before query string true "Cutoff, RFC3339"
// @Success      204 "Entries purged"
// @Failure      400 {object} json.ErrorResponse "Bad request - validation error"
// @Router       /audit [delete]
func (h *Handler) PurgeAuditHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("before")
	if raw == "" {
		json.WriteBadRequestError(w, "before is required")
		return
	}

	before, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		json.WriteValidationError(w, errors.New("before must be an RFC3339 timestamp"))
		return
	}

	if err := h.repo.DeleteOlderThan(r.Context(), before); err != nil {
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseTimeParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New(name + " must be an RFC3339 timestamp")
	}

	return parsed, nil
}

func toAuditResponses(logs []domain.RoomAuditLog) []auditEntryResponse {
	resp := make([]auditEntryResponse, len(logs))
	for i, entry := range logs {
		resp[i] = auditEntryResponse{
			ID:        entry.ID,
			RoomCode:  entry.RoomCode,
			EventType: string(entry.EventType),
			Timestamp: entry.Timestamp,
			Metadata:  entry.Metadata,
		}
	}
	return resp
}
