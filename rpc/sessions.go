package rpc

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Cogwheel-Validator/reified-portal/workflow"
)

var errSessionNotFound = errors.New("workflow session not found")

type session struct {
	controller *workflow.Controller
	lastUsed   time.Time
}

// sessionStore keeps the workflow controllers of the front-end's open mint
// flows, keyed by a random id. Sessions untouched for ttl are dropped.
type sessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	stop chan struct{}
	once sync.Once
}

func newSessionStore(ttl time.Duration) *sessionStore {
	s := &sessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweepLoop()
	}
	return s
}

func (s *sessionStore) create(controller *workflow.Controller) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{controller: controller, lastUsed: s.now()}
	return id
}

func (s *sessionStore) get(id string) (*workflow.Controller, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	sess.lastUsed = s.now()
	return sess.controller, nil
}

func (s *sessionStore) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweep drops expired sessions and returns how many it dropped.
func (s *sessionStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	dropped := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

func (s *sessionStore) sweepLoop() {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if dropped := s.sweep(); dropped > 0 {
				Logger.Debug().Int("dropped", dropped).Msg("Expired workflow sessions removed")
			}
		}
	}
}

func (s *sessionStore) close() {
	s.once.Do(func() { close(s.stop) })
}
