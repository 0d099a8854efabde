// Package stickysession implements a thread-safe, per-session bounded FIFO
// of recently routed domains, LRU evicted across sessions, built on a map
// guarded by sync.Mutex.
package stickysession

import (
	"container/list"
	"sync"

	"github.com/specialist-gateway/gateway/internal/models"
)

type sessionRecord struct {
	key    string
	recent []models.Domain // bounded FIFO, oldest first, capacity = historySize
}

// Store is the process-lifetime, concurrency-safe sticky session tracker.
// All operations are O(1) amortized under a single mutex.
type Store struct {
	mu          sync.Mutex
	historySize int
	maxSessions int

	lru     *list.List               // front = most recently used
	byKey   map[string]*list.Element // session_key -> element holding *sessionRecord
}

// New constructs a Store. historySize bounds the per-session FIFO (default
// 3); maxSessions bounds the number of tracked sessions before LRU eviction
// kicks in (default 4096).
func New(historySize, maxSessions int) *Store {
	if historySize <= 0 {
		historySize = 3
	}
	if maxSessions <= 0 {
		maxSessions = 4096
	}
	return &Store{
		historySize: historySize,
		maxSessions: maxSessions,
		lru:         list.New(),
		byKey:       make(map[string]*list.Element),
	}
}

// Remember appends domain to session_key's FIFO (evicting the oldest entry
// once at capacity) and refreshes the session's LRU position, evicting the
// least-recently-used session if the store is now over capacity.
func (s *Store) Remember(sessionKey string, domain models.Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.byKey[sessionKey]; ok {
		rec := el.Value.(*sessionRecord)
		rec.recent = appendBounded(rec.recent, domain, s.historySize)
		s.lru.MoveToFront(el)
		return
	}

	rec := &sessionRecord{key: sessionKey, recent: []models.Domain{domain}}
	el := s.lru.PushFront(rec)
	s.byKey[sessionKey] = el

	for len(s.byKey) > s.maxSessions {
		s.evictOldest()
	}
}

// evictOldest removes the least-recently-used session. Caller holds s.mu.
func (s *Store) evictOldest() {
	back := s.lru.Back()
	if back == nil {
		return
	}
	rec := back.Value.(*sessionRecord)
	delete(s.byKey, rec.key)
	s.lru.Remove(back)
}

// Recent returns a defensive copy of session_key's tracked domains, oldest
// first. Reading does not refresh LRU position — only Remember does.
func (s *Store) Recent(sessionKey string) []models.Domain {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byKey[sessionKey]
	if !ok {
		return nil
	}
	rec := el.Value.(*sessionRecord)
	out := make([]models.Domain, len(rec.recent))
	copy(out, rec.recent)
	return out
}

// Latest returns the most recently remembered domain for session_key, if any.
func (s *Store) Latest(sessionKey string) (models.Domain, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byKey[sessionKey]
	if !ok {
		return "", false
	}
	rec := el.Value.(*sessionRecord)
	if len(rec.recent) == 0 {
		return "", false
	}
	return rec.recent[len(rec.recent)-1], true
}

// Reset forgets session_key entirely.
func (s *Store) Reset(sessionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.byKey[sessionKey]; ok {
		s.lru.Remove(el)
		delete(s.byKey, sessionKey)
	}
}

// Len reports the number of tracked sessions, for the maintenance
// scheduler's occupancy log.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

func appendBounded(fifo []models.Domain, domain models.Domain, capacity int) []models.Domain {
	fifo = append(fifo, domain)
	if len(fifo) > capacity {
		fifo = fifo[len(fifo)-capacity:]
	}
	return fifo
}
