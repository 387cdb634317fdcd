package repository

import (
	"context"
	"sort"
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
)

type auditRepo struct {
	store *Store
}

func (r *auditRepo) Log(ctx context.Context, entry *domain.RoomAuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.auditLogs = append(r.store.auditLogs, *entry)
	return nil
}

func (r *auditRepo) GetByRoomCode(ctx context.Context, roomCode string, limit int) ([]domain.RoomAuditLog, error) {
	roomCode = domain.NormalizeCode(roomCode)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	logs := make([]domain.RoomAuditLog, 0)
	for _, entry := range r.store.auditLogs {
		if entry.RoomCode == roomCode {
			logs = append(logs, entry)
		}
	}

	sortNewestFirst(logs)

	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	return logs, nil
}

func (r *auditRepo) GetByEventType(ctx context.Context, eventType domain.RoomEventType, from, to time.Time) ([]domain.RoomAuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	logs := make([]domain.RoomAuditLog, 0)
	for _, entry := range r.store.auditLogs {
		if entry.EventType != eventType {
			continue
		}
		if entry.Timestamp.Before(from) || entry.Timestamp.After(to) {
			continue
		}
		logs = append(logs, entry)
	}

	sortNewestFirst(logs)

	return logs, nil
}

func (r *auditRepo) DeleteOlderThan(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.auditLogs[:0]
	for _, entry := range r.store.auditLogs {
		if !entry.Timestamp.Before(before) {
			kept = append(kept, entry)
		}
	}
	r.store.auditLogs = kept

	return nil
}

// EnsureIndexes is a no-op; the in-memory store has nothing to index.
func (r *auditRepo) EnsureIndexes(ctx context.Context) error { return nil }

func sortNewestFirst(logs []domain.RoomAuditLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}
