package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"token-forge/internal/form"
	"token-forge/internal/wallet"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "forge_session"

// Session is one browser's form state and wallet bridge.
type Session struct {
	ID   string
	Form *form.State

	mu       sync.Mutex
	bridge   *wallet.Bridge
	lastSeen time.Time
}

// Bridge returns the attached wallet bridge, or nil.
func (s *Session) Bridge() *wallet.Bridge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridge
}

// attach makes b the session's wallet, closing any previous bridge.
func (s *Session) attach(b *wallet.Bridge) {
	s.mu.Lock()
	prev := s.bridge
	s.bridge = b
	s.mu.Unlock()
	if prev != nil && prev != b {
		prev.Close()
	}
}

// detach removes b if it is still the session's wallet.
func (s *Session) detach(b *wallet.Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge == b {
		s.bridge = nil
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SessionStore keeps sessions in memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Lookup returns the session named by the request cookie, if any.
func (st *SessionStore) Lookup(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	st.mu.Lock()
	sess, ok := st.sessions[c.Value]
	st.mu.Unlock()
	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// Ensure returns the request's session, creating one and setting the
// cookie when missing or unknown.
func (st *SessionStore) Ensure(w http.ResponseWriter, r *http.Request) *Session {
	if sess, ok := st.Lookup(r); ok {
		return sess
	}

	sess := &Session{
		ID:       uuid.NewString(),
		Form:     form.New(),
		lastSeen: st.now(),
	}
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// ConnectedWallets counts sessions with a connected bridge.
func (st *SessionStore) ConnectedWallets() int {
	st.mu.Lock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.Unlock()

	n := 0
	for _, s := range sessions {
		if b := s.Bridge(); b != nil {
			if _, ok := b.PublicKey(); ok {
				n++
			}
		}
	}
	return n
}

// Prune drops sessions idle longer than maxIdle that have no bridge or
// running submission, and returns how many were removed.
func (st *SessionStore) Prune(maxIdle time.Duration) int {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.idleSince(now) < maxIdle || s.Bridge() != nil || s.Form.Busy() {
			continue
		}
		delete(st.sessions, id)
		removed++
	}
	return removed
}
