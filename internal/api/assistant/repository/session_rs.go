package assistantRepository

import (
	"ShowroomGolang/internal/api/assistant"
	"ShowroomGolang/internal/entity"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionStore tracks per-user dialog state: the capture adapter's
// idle/listening flag and the single-flight processing flag that keeps at
// most one command outstanding per session.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*entity.AssistantSession
	owners    map[string]uint64
	lastToken uint64
	log       *logrus.Logger
}

func NewSessionStore(log *logrus.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*entity.AssistantSession),
		owners:   make(map[string]uint64),
		log:      log,
	}
}

func (s *SessionStore) Open(userID string) entity.AssistantSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := &entity.AssistantSession{
		UserID:       userID,
		OpenedAt:     now,
		LastActivity: now,
	}
	s.sessions[userID] = session
	return *session
}

func (s *SessionStore) Get(userID string) (entity.AssistantSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return entity.AssistantSession{}, false
	}
	return *session, true
}

func (s *SessionStore) Close(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	delete(s.owners, userID)
}

// BeginProcessing is the single-flight gate: it atomically flips the
// processing flag and rejects when a command is already outstanding. The
// returned token identifies the admitted command; only the holder can
// release the flag.
func (s *SessionStore) BeginProcessing(userID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return 0, assistant.ErrSessionNotFound
	}

	if session.Processing {
		return 0, assistant.ErrCommandInFlight
	}

	session.Processing = true
	session.LastActivity = time.Now()
	s.lastToken++
	s.owners[userID] = s.lastToken
	return s.lastToken, nil
}

// EndProcessing releases the flag only for the command that holds it. A stale
// token is a no-op, so a command that already released early and then runs
// its deferred release cannot clear a later command's in-flight flag.
func (s *SessionStore) EndProcessing(userID string, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return
	}

	if !session.Processing || s.owners[userID] != token {
		return
	}

	session.Processing = false
	session.LastActivity = time.Now()
}

// SetListening transitions the capture state machine between idle and
// listening. Stopping while already idle is safe.
func (s *SessionStore) SetListening(userID string, listening bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return assistant.ErrSessionNotFound
	}

	session.Listening = listening
	session.LastActivity = time.Now()
	return nil
}
