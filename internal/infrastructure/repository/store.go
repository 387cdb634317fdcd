// Package repository provides the in-memory backing store. It is the
// default driver for single-instance deployments and the substrate the
// service tests run against; the mongo driver in
// internal/persistence/repository implements the same interfaces.
package repository

import (
	"sync"
	"time"

	"github.com/hilthontt/retrochat/internal/domain"
)

const reapInterval = time.Minute

// Store holds all four relations behind one lock so the cross-relation
// invariants (room+host pairing, membership upsert on accept) commit
// atomically. Rooms expire after the configured TTL; dependent rows go
// with them.
type Store struct {
	mu       sync.RWMutex
	capacity uint
	ttl      time.Duration

	rooms       map[string]*domain.Room
	memberships map[string]map[string]*domain.Membership
	requests    map[string]*domain.JoinRequest
	messages    map[string][]domain.Message
	auditLogs   []domain.RoomAuditLog

	stopReaper chan struct{}
	reapOnce   sync.Once
}

func NewStore(capacity uint, ttl time.Duration) *Store {
	s := &Store{
		capacity:    capacity,
		ttl:         ttl,
		rooms:       make(map[string]*domain.Room),
		memberships: make(map[string]map[string]*domain.Membership),
		requests:    make(map[string]*domain.JoinRequest),
		messages:    make(map[string][]domain.Message),
		stopReaper:  make(chan struct{}),
	}

	if ttl > 0 {
		go s.reapExpired()
	}

	return s
}

func (s *Store) Rooms() domain.RoomRepository               { return &roomRepo{s} }
func (s *Store) Memberships() domain.MembershipRepository   { return &membershipRepo{s} }
func (s *Store) JoinRequests() domain.JoinRequestRepository { return &joinRequestRepo{s} }
func (s *Store) Messages() domain.MessageRepository         { return &messageRepo{s} }
func (s *Store) AuditLogs() domain.RoomAuditRepository      { return &auditRepo{s} }

func (s *Store) Close() {
	s.reapOnce.Do(func() {
		close(s.stopReaper)
	})
}

// expired is evaluated under the store lock so readers and the reaper
// agree on liveness.
func (s *Store) expired(room *domain.Room, now time.Time) bool {
	return s.ttl > 0 && now.After(room.CreatedAt.Add(s.ttl))
}

// liveRoom returns the room only if it exists and has not expired.
func (s *Store) liveRoom(code string, now time.Time) *domain.Room {
	room, ok := s.rooms[code]
	if !ok || s.expired(room, now) {
		return nil
	}
	return room
}

func (s *Store) reapExpired() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopReaper:
			return
		}
	}
}

func (s *Store) removeExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for code, room := range s.rooms {
		if !s.expired(room, now) {
			continue
		}
		delete(s.rooms, code)
		delete(s.memberships, code)
		delete(s.messages, code)
		for id, req := range s.requests {
			if req.RoomCode == code {
				delete(s.requests, id)
			}
		}
	}
}
