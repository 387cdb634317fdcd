package messages

import (
	"bytes"
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/retrochat/internal/bus"
	"github.com/hilthontt/retrochat/internal/domain"
	"github.com/hilthontt/retrochat/internal/gateway"
	"github.com/hilthontt/retrochat/internal/infrastructure/events"
	"github.com/hilthontt/retrochat/internal/infrastructure/logging"
	"github.com/hilthontt/retrochat/internal/infrastructure/profanity"
	memstore "github.com/hilthontt/retrochat/internal/infrastructure/repository"
	"github.com/hilthontt/retrochat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	router *chi.Mux
	gw     *gateway.Gateway
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	store := memstore.NewStore(0, 0)
	t.Cleanup(store.Close)

	eventBus := bus.New(64)
	publisher := events.NoOpPublisher{}
	logger := logging.NewNopLogger()

	registry := service.NewRegistry(store.Rooms(), domain.DefaultCodePolicy(), 5, publisher, logger)
	membership := service.NewMembership(
		store.Rooms(), store.Memberships(), store.JoinRequests(), store.Messages(),
		eventBus, publisher, logger,
	)
	messageLog := service.NewMessageLog(
		store.Rooms(), store.Memberships(), store.Messages(),
		profanity.NewFilter(), eventBus, publisher, logger,
	)
	gw := gateway.New(registry, membership, messageLog, eventBus, logger)
	handler := NewHandler(gw)

	r := chi.NewRouter()
	r.Post("/api/rooms/{code}/messages", handler.CreateNewMessageHandler)
	r.Get("/api/rooms/{code}/messages", handler.GetHistoryHandler)

	return &env{router: r, gw: gw}
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, stdjson.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateNewMessageHandler(t *testing.T) {
	e := newTestEnv(t)

	room, host, err := e.gw.CreateRoom(t.Context(), "Lounge", "alice")
	require.NoError(t, err)

	rec := doJSON(t, e.router, http.MethodPost, "/api/rooms/"+room.Code+"/messages", map[string]string{
		"userId": host.UserID,
		"body":   "hello",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp messageResponse
	require.NoError(t, stdjson.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "hello", resp.Body)
	assert.Equal(t, "alice", resp.Username)
	assert.False(t, resp.IsSystem)
}

func TestCreateNewMessageHandlerErrors(t *testing.T) {
	e := newTestEnv(t)

	room, host, err := e.gw.CreateRoom(t.Context(), "Lounge", "alice")
	require.NoError(t, err)

	// No identity anywhere.
	rec := doJSON(t, e.router, http.MethodPost, "/api/rooms/"+room.Code+"/messages", map[string]string{
		"body": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Empty body.
	rec = doJSON(t, e.router, http.MethodPost, "/api/rooms/"+room.Code+"/messages", map[string]string{
		"userId": host.UserID,
		"body":   "   ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Not a member.
	rec = doJSON(t, e.router, http.MethodPost, "/api/rooms/"+room.Code+"/messages", map[string]string{
		"userId": "stranger",
		"body":   "hi",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown room.
	rec = doJSON(t, e.router, http.MethodPost, "/api/rooms/ZZZZZ/messages", map[string]string{
		"userId": host.UserID,
		"body":   "hi",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHistoryHandler(t *testing.T) {
	e := newTestEnv(t)

	room, host, err := e.gw.CreateRoom(t.Context(), "Lounge", "alice")
	require.NoError(t, err)

	for _, body := range []string{"first", "second"} {
		_, err := e.gw.SendMessage(t.Context(), room.Code, host.UserID, body)
		require.NoError(t, err)
	}

	rec := doJSON(t, e.router, http.MethodGet, "/api/rooms/"+room.Code+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []messageResponse
	require.NoError(t, stdjson.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Body)
	assert.Equal(t, "second", history[1].Body)
}

func TestGetHistoryHandlerUnknownRoom(t *testing.T) {
	e := newTestEnv(t)

	rec := doJSON(t, e.router, http.MethodGet, "/api/rooms/ZZZZZ/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
