package search

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/DevMandate/LinknaMali-sub000/internal/models"
	"github.com/DevMandate/LinknaMali-sub000/internal/upstream"
)

// ErrSuperseded is returned by Dispatch when a newer search was issued on
// the same session before this one resolved. The caller should discard the
// response; the session already reflects the newer query.
var ErrSuperseded = errors.New("search superseded by a newer dispatch")

// Result is the session state a dispatch resolves to.
type Result struct {
	Set      models.SearchResultSet `json:"data"`
	NotFound bool                   `json:"not_found"`
}

// ISearchService dispatches searches for SPA sessions.
type ISearchService interface {
	Search(ctx context.Context, sessionID string, f FilterState) (*Result, error)
	Current(sessionID string) *Result
}

// Session owns one search UI's filter state and its latest committed result
// set. Dispatches are tagged with a generation counter so that an
// out-of-order response from an older query can never overwrite the results
// of a newer one.
type Session struct {
	mu         sync.Mutex
	filter     FilterState
	result     Result
	generation uint64
	lastSeen   time.Time
}

func newSession() *Session {
	return &Session{
		result:   Result{Set: models.EmptyResultSet()},
		lastSeen: time.Now(),
	}
}

// begin clears the visible results before the fetch resolves, preventing a
// stale-data flash, and returns the generation tag for this dispatch.
func (s *Session) begin(f FilterState) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.filter = f
	s.result = Result{Set: models.EmptyResultSet()}
	s.lastSeen = time.Now()
	return s.generation
}

// commit installs a resolved result set if this dispatch is still the
// current one. Last request wins for display purposes.
func (s *Session) commit(generation uint64, r Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.result = r
	s.lastSeen = time.Now()
	return true
}

// snapshot returns a copy of the currently committed result.
func (s *Session) snapshot() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Service implements ISearchService on top of the upstream client and a
// registry of per-SPA-session state.
type Service struct {
	client     upstream.IClient
	mu         sync.Mutex
	sessions   map[string]*Session
	sessionTTL time.Duration
}

// NewService creates the search service. sessionTTL bounds how long an idle
// search session is kept before the cleanup pass drops it.
func NewService(client upstream.IClient, sessionTTL time.Duration) *Service {
	svc := &Service{
		client:     client,
		sessions:   make(map[string]*Session),
		sessionTTL: sessionTTL,
	}
	go svc.cleanupSessions()
	return svc
}

// session retrieves or creates the state for a given SPA session ID.
func (svc *Service) session(sessionID string) *Session {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	s, exists := svc.sessions[sessionID]
	if !exists {
		s = newSession()
		svc.sessions[sessionID] = s
	}
	return s
}

// cleanupSessions periodically removes idle session entries from the map.
func (svc *Service) cleanupSessions() {
	for {
		time.Sleep(svc.sessionTTL)
		svc.mu.Lock()
		count := 0
		for id, s := range svc.sessions {
			s.mu.Lock()
			idle := time.Since(s.lastSeen) > svc.sessionTTL
			s.mu.Unlock()
			if idle {
				delete(svc.sessions, id)
				count++
			}
		}
		svc.mu.Unlock()
		if count > 0 {
			log.Printf("Search session cleanup removed %d idle entries", count)
		}
	}
}

// Search dispatches a query for the given session. A non-empty keyword
// overrides the structured filters entirely and hits the keyword endpoint.
// A 404 resolves to a NotFound result, which is distinct from a successful
// fetch with zero matches.
func (svc *Service) Search(ctx context.Context, sessionID string, f FilterState) (*Result, error) {
	s := svc.session(sessionID)
	generation := s.begin(f)

	var payload *models.RawSearchPayload
	var err error
	if f.Keyword != "" {
		payload, err = svc.client.KeywordSearch(ctx, f.Keyword)
	} else {
		payload, err = svc.client.Search(ctx, BuildQuery(f))
	}

	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			r := Result{Set: models.EmptyResultSet(), NotFound: true}
			if !s.commit(generation, r) {
				return nil, ErrSuperseded
			}
			return &r, nil
		}
		// Network failures and non-2xx leave the cleared state in place; the
		// operation stays retryable.
		return nil, err
	}

	r := Result{Set: Reconcile(payload, f)}
	if !s.commit(generation, r) {
		return nil, ErrSuperseded
	}
	return &r, nil
}

// Current returns the latest committed result for a session, or nil when
// the session is unknown.
func (svc *Service) Current(sessionID string) *Result {
	svc.mu.Lock()
	s, exists := svc.sessions[sessionID]
	svc.mu.Unlock()
	if !exists {
		return nil
	}
	r := s.snapshot()
	return &r
}
