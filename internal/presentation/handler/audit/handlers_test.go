package audit

import (
	"context"
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/retrochat/internal/domain"
	memstore "github.com/hilthontt/retrochat/internal/infrastructure/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, domain.RoomAuditRepository) {
	t.Helper()

	store := memstore.NewStore(0, 0)
	t.Cleanup(store.Close)

	repo := store.AuditLogs()
	handler := NewHandler(repo)

	r := chi.NewRouter()
	r.Get("/api/rooms/{code}/audit", handler.GetRoomAuditHandler)
	r.Get("/api/audit", handler.QueryAuditHandler)
	r.Delete("/api/audit", handler.PurgeAuditHandler)

	return r, repo
}

func logEntry(t *testing.T, repo domain.RoomAuditRepository, roomCode string, eventType domain.RoomEventType, at time.Time) {
	t.Helper()

	entry := domain.NewRoomAuditLog(roomCode, eventType, map[string]any{"source": "test"})
	entry.Timestamp = at
	require.NoError(t, repo.Log(context.Background(), entry))
}

func do(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, stdjson.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestGetRoomAuditHandler(t *testing.T) {
	router, repo := newTestRouter(t)

	base := time.Now().UTC().Truncate(time.Second)
	logEntry(t, repo, "KX7PQ", domain.AuditRoomCreated, base)
	logEntry(t, repo, "KX7PQ", domain.AuditJoinRequested, base.Add(time.Second))
	logEntry(t, repo, "ZZZZZ", domain.AuditRoomCreated, base)

	rec := do(t, router, http.MethodGet, "/api/rooms/kx7pq/audit")
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decode[[]auditEntryResponse](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, string(domain.AuditJoinRequested), entries[0].EventType)
	assert.Equal(t, string(domain.AuditRoomCreated), entries[1].EventType)
	assert.Equal(t, "KX7PQ", entries[0].RoomCode)

	rec = do(t, router, http.MethodGet, "/api/rooms/KX7PQ/audit?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]auditEntryResponse](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/api/rooms/KX7PQ/audit?limit=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryAuditHandler(t *testing.T) {
	router, repo := newTestRouter(t)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	logEntry(t, repo, "AAAAA", domain.AuditMessageSent, base)
	logEntry(t, repo, "BBBBB", domain.AuditMessageSent, base.Add(time.Minute))
	logEntry(t, repo, "AAAAA", domain.AuditMemberLeft, base)

	rec := do(t, router, http.MethodGet, "/api/audit?eventType=message_sent")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]auditEntryResponse](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "BBBBB", entries[0].RoomCode)

	// A window before the first entry matches nothing.
	to := url.QueryEscape(base.Add(-time.Minute).Format(time.RFC3339))
	rec = do(t, router, http.MethodGet, "/api/audit?eventType=message_sent&to="+to)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]auditEntryResponse](t, rec))

	rec = do(t, router, http.MethodGet, "/api/audit")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/audit?eventType=message_sent&from=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurgeAuditHandler(t *testing.T) {
	router, repo := newTestRouter(t)

	base := time.Now().UTC().Truncate(time.Second)
	logEntry(t, repo, "AAAAA", domain.AuditRoomCreated, base.Add(-2*time.Hour))
	logEntry(t, repo, "AAAAA", domain.AuditMessageSent, base)

	cutoff := url.QueryEscape(base.Add(-time.Hour).Format(time.RFC3339))
	rec := do(t, router, http.MethodDelete, "/api/audit?before="+cutoff)
	require.Equal(t, http.StatusNoContent, rec.Code)

	remaining, err := repo.GetByRoomCode(context.Background(), "AAAAA", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, domain.AuditMessageSent, remaining[0].EventType)

	rec = do(t, router, http.MethodDelete, "/api/audit")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
