package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/selection"
	"github.com/google/uuid"
)

const SessionCookie = "fvt_session"

// timeNow is swapped in tests.
var timeNow = time.Now

type session struct {
	selection selection.Selection
	lastSeen  time.Time
}

// SessionStore keeps each browser session's selection in memory. Nothing is
// persisted, so a restart starts every session from the defaults.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*session), ttl: ttl}
}

// Identify returns the caller's session id, issuing a new one in a cookie when
// the request has none.
func (s *SessionStore) Identify(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Get returns the stored selection; the zero Selection means defaults.
func (s *SessionStore) Get(id string) selection.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, exists := s.sessions[id]; exists && !s.expired(entry) {
		return entry.selection
	}
	return selection.Selection{}
}

func (s *SessionStore) Save(id string, sel selection.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{selection: sel, lastSeen: timeNow()}
}

// Prune drops expired sessions and returns how many were removed.
func (s *SessionStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.sessions {
		if s.expired(entry) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(entry *session) bool {
	return s.ttl > 0 && timeNow().Sub(entry.lastSeen) > s.ttl
}
