package session

import (
	"context"
	"sync"
	"time"

	"adgenius/internal/campaign"
)

// Session is one visitor (web cookie or Telegram chat) and its orchestrator.
type Session struct {
	ID           string
	Campaign     *campaign.Orchestrator
	CreatedAt    time.Time
	LastActivity time.Time
}

type Options struct {
	// TTL is how long an idle session is kept. Zero means one hour.
	TTL time.Duration
	// NewCampaign builds the orchestrator for a new session. Required.
	NewCampaign func(id string) *campaign.Orchestrator
}

type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	newCampaign func(id string) *campaign.Orchestrator
	now         func() time.Time
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	if opts.NewCampaign == nil {
		panic("session: NewCampaign is nil")
	}

	return &Store{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		newCampaign: opts.NewCampaign,
		now:         time.Now,
	}
}

// Get returns an existing session and marks it active.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok {
		sess.LastActivity = s.now()
	}
	return sess, ok
}

func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = s.now()
		return sess
	}

	now := s.now()
	sess := &Session{
		ID:           id,
		Campaign:     s.newCampaign(id),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[id] = sess
	return sess
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Prune drops sessions idle for longer than the TTL. Sessions with a cycle
// in flight are kept regardless.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.After(cutoff) {
			continue
		}
		if sess.Campaign.Snapshot().Status.IsActive() {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// Run prunes every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Prune()
		}
	}
}
