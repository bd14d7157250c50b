package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/engine"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/navigation"
	"github.com/goliatone/go-formflow/pkg/persistence"
)

// formSession is one browser's engine session. mu serialises requests of the
// same browser; the engine itself is not safe for concurrent use.
type formSession struct {
	mu         sync.Mutex
	id         string
	engine     *engine.Session
	history    *navigation.History
	submission *model.Submission
	notices    []string
	lastSeen   time.Time
}

// notice queues a message shown on the next rendered screen.
func (fs *formSession) notice(msg string) {
	fs.notices = append(fs.notices, msg)
}

func (fs *formSession) takeNotices() []string {
	out := fs.notices
	fs.notices = nil
	return out
}

type sessionRegistry struct {
	mu    sync.Mutex
	items map[string]*formSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{items: make(map[string]*formSession)}
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, fs := range r.items {
		fs.mu.Lock()
		fs.engine.Close()
		fs.mu.Unlock()
		delete(r.items, id)
	}
}

// acquire returns the locked session of the request, creating it when the
// cookie is missing, malformed or unknown. Unknown ids keep their value so a
// restarted host resumes from the durable store. initial seeds the page
// parameter of a new session. The caller must unlock the session.
func (s *Server) acquire(c *gin.Context, initial string) (*formSession, bool, error) {
	id, err := c.Cookie(s.cookieName)
	if err != nil || !validSessionID(id) {
		id = s.newID()
	}
	now := s.now()

	s.sessions.mu.Lock()
	s.evictLocked(now)
	fs, ok := s.sessions.items[id]
	created := false
	if !ok {
		fs, err = s.open(id, initial)
		if err != nil {
			s.sessions.mu.Unlock()
			return nil, false, err
		}
		s.sessions.items[id] = fs
		created = true
	}
	fs.lastSeen = now
	s.sessions.mu.Unlock()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, id, int(s.cookieMaxAge.Seconds()), "/", "", s.secure, true)
	c.Set("session_id", id)

	fs.mu.Lock()
	return fs, created, nil
}

func (s *Server) open(id, initial string) (*formSession, error) {
	logger := s.logger.With(zap.String("session_id", id))
	fs := &formSession{id: id, history: navigation.NewHistory(initial)}

	session, err := engine.New(s.cfg,
		engine.WithNavigator(fs.history),
		engine.WithPersistence(persistence.New(s.store,
			persistence.WithNamespace(id),
			persistence.WithLogger(logger),
		)),
		engine.WithValidator(s.validator),
		engine.WithLogger(logger),
		engine.WithOnSubmit(func(responses model.Responses) {
			submission := model.NewSubmission(s.newID(), id, s.cfg, responses, s.now())
			fs.submission = &submission
			if s.onSubmit != nil {
				s.onSubmit(submission)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("server: open session: %w", err)
	}
	if err := session.Start(s.baseCtx); err != nil {
		return nil, fmt.Errorf("server: start session: %w", err)
	}
	fs.engine = session
	return fs, nil
}

// evictLocked drops sessions idle for longer than the session ttl. Their
// snapshot stays in the durable store.
func (s *Server) evictLocked(now time.Time) {
	for id, fs := range s.sessions.items {
		if now.Sub(fs.lastSeen) <= s.sessionTTL {
			continue
		}
		if !fs.mu.TryLock() {
			continue
		}
		fs.engine.Close()
		fs.mu.Unlock()
		delete(s.sessions.items, id)
		s.logger.Debug("server: session evicted", zap.String("session_id", id))
	}
}

func validSessionID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
