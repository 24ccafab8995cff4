package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/calllist/internal/core"
	"github.com/JonMunkholm/calllist/internal/logging"
)

// SessionCookie names the cookie holding the session id.
const SessionCookie = "calllist_session"

// sessionCookieMaxAge keeps the id as long as a saved list might be kept.
const sessionCookieMaxAge = 365 * 24 * time.Hour

// SessionRegistry maps browser session ids to live import sessions.
// A session not in memory is created on first use and restored from the
// store, so a saved list survives restarts and eviction.
type SessionRegistry struct {
	imp     *core.Importer
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// sessionEntry restores its session exactly once; concurrent first
// requests wait for the restore instead of racing it.
type sessionEntry struct {
	sess     *core.Session
	restored sync.Once
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(imp *core.Importer, idleTTL time.Duration) *SessionRegistry {
	return &SessionRegistry{
		imp:      imp,
		idleTTL:  idleTTL,
		sessions: make(map[string]*sessionEntry),
	}
}

// Get returns the session for id, creating and restoring it if needed.
// Every call counts as activity for Sweep.
func (sr *SessionRegistry) Get(ctx context.Context, id string) *core.Session {
	sr.mu.Lock()
	e, ok := sr.sessions[id]
	if !ok {
		e = &sessionEntry{sess: sr.imp.NewSession(id)}
		sr.sessions[id] = e
	}
	// Touched under the registry lock so Sweep cannot drop it mid-request.
	e.sess.Touch()
	sr.mu.Unlock()

	e.restored.Do(func() {
		if err := e.sess.Restore(ctx); err != nil {
			logging.FromContext(ctx).Warn("restore saved list failed", "error", err)
		}
	})
	return e.sess
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. Saved lists stay in the store.
func (sr *SessionRegistry) Sweep(now time.Time) int {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	removed := 0
	for id, e := range sr.sessions {
		if now.Sub(e.sess.LastActive()) > sr.idleTTL {
			delete(sr.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (sr *SessionRegistry) Len() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return len(sr.sessions)
}

// sessionID reads the session cookie, issuing a new id when it is missing
// or not a UUID.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// withSessionMiddleware resolves the caller's session and adds it, and its
// id for logging, to the request context.
func (s *Server) withSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.sessionID(w, r)
		ctx := logging.WithSessionID(r.Context(), id)
		sess := s.sessions.Get(ctx, id)
		next.ServeHTTP(w, r.WithContext(withSession(ctx, sess)))
	})
}
