package cache

import (
	"sync"
	"time"

	"github.com/duisenbekovayan/devstore/internal/app"
)

// Store keeps live sessions by id so a browser's state survives between requests.
type Store struct {
	mu sync.RWMutex
	m  map[string]*app.Session
}

func New() *Store { return &Store{m: make(map[string]*app.Session)} }

func (s *Store) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.m[id]
	return sess, ok
}

func (s *Store) Set(sess *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.ID] = sess
}

// GetOrOpen returns the cached session or stores the one open returns.
// If two requests race, the first stored session wins and the loser is closed.
func (s *Store) GetOrOpen(id string, open func() (*app.Session, error)) (*app.Session, error) {
	if sess, ok := s.Get(id); ok {
		return sess, nil
	}
	sess, err := open()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.m[id]; ok {
		sess.Close()
		return existing, nil
	}
	s.m[id] = sess
	return sess, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.m[id]
	delete(s.m, id)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Sweep evicts sessions idle for longer than ttl and returns how many went.
// The cart itself stays in storage; an evicted browser just reloads it.
func (s *Store) Sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	var idle []*app.Session
	for id, sess := range s.m {
		if now.Sub(sess.LastSeen()) > ttl {
			idle = append(idle, sess)
			delete(s.m, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
	}
	return len(idle)
}
