package session

import (
	"errors"
	"sync"
	"time"

	"github.com/zhouzirui/kyara/backend/internal/model/session"
)

var ErrUserRequired = errors.New("user id is required")

// entry serialises every mutation of one user's session.
type entry struct {
	mu      sync.Mutex
	session session.UserSession
}

// Store owns all user sessions for the lifetime of the process. The map lock
// is held only to find or create an entry; per-user work runs under the
// entry lock so different users never block each other.
type Store struct {
	mu             sync.Mutex
	entries        map[string]*entry
	defaultPersona string
}

// NewStore creates an empty store whose new sessions start on defaultPersona.
func NewStore(defaultPersona string) *Store {
	return &Store{
		entries:        make(map[string]*entry),
		defaultPersona: defaultPersona,
	}
}

func (s *Store) entry(userID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &entry{session: session.UserSession{
			UserID:    userID,
			PersonaID: s.defaultPersona,
			CreatedAt: time.Now().UTC(),
		}}
		s.entries[userID] = e
	}
	return e
}

// Update runs fn on the user's session inside its critical section. Changes
// are committed only when fn returns nil.
func (s *Store) Update(userID string, fn func(*session.UserSession) error) error {
	if userID == "" {
		return ErrUserRequired
	}

	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.session.Clone()
	if err := fn(&working); err != nil {
		return err
	}
	working.UserID = userID
	e.session = working
	return nil
}

// GetOrCreate returns a copy of the user's session, creating it on first use.
func (s *Store) GetOrCreate(userID string) (session.UserSession, error) {
	var out session.UserSession
	err := s.Update(userID, func(sess *session.UserSession) error {
		out = sess.Clone()
		return nil
	})
	return out, err
}

// Lookup returns a copy of an existing session without creating one.
func (s *Store) Lookup(userID string) (session.UserSession, bool) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return session.UserSession{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), true
}

// SetPersona overwrites the active persona.
func (s *Store) SetPersona(userID, personaID string) error {
	return s.Update(userID, func(sess *session.UserSession) error {
		sess.PersonaID = personaID
		return nil
	})
}

// Game returns a copy of the user's game, or nil when no game is running.
func (s *Store) Game(userID string) (*session.GameState, error) {
	var game *session.GameState
	err := s.Update(userID, func(sess *session.UserSession) error {
		game = sess.Game.Clone()
		return nil
	})
	return game, err
}

// SetGame replaces the user's game state.
func (s *Store) SetGame(userID string, game *session.GameState) error {
	return s.Update(userID, func(sess *session.UserSession) error {
		sess.Game = game.Clone()
		return nil
	})
}

// ClearGame drops any game state for the user.
func (s *Store) ClearGame(userID string) error {
	return s.Update(userID, func(sess *session.UserSession) error {
		sess.Game = nil
		return nil
	})
}

// Len returns the number of known users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
