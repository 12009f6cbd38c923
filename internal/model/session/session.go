package session

import (
	"time"

	"github.com/zhouzirui/kyara/backend/internal/analysis/kana"
)

// Mode is the lifecycle state of a chain game.
type Mode string

const (
	Idle       Mode = "idle"
	InProgress Mode = "in_progress"
)

// GameState tracks one user's shiritori game. ExpectedStart is kana.None only
// before the first word of a game.
type GameState struct {
	Mode          Mode            `json:"mode"`
	ExpectedStart kana.Syllable   `json:"-"`
	UsedWords     map[string]bool `json:"-"`
	StartedAt     time.Time       `json:"startedAt"`
}

// NewGame returns a freshly started game.
func NewGame() *GameState {
	return &GameState{
		Mode:      InProgress,
		UsedWords: make(map[string]bool),
		StartedAt: time.Now().UTC(),
	}
}

// Used reports whether the canonical word was already played.
func (g *GameState) Used(word string) bool {
	return g.UsedWords[word]
}

// Record adds canonical words to the used set.
func (g *GameState) Record(words ...string) {
	if g.UsedWords == nil {
		g.UsedWords = make(map[string]bool)
	}
	for _, word := range words {
		g.UsedWords[word] = true
	}
}

// Clone returns a deep copy.
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	out := *g
	out.UsedWords = make(map[string]bool, len(g.UsedWords))
	for k, v := range g.UsedWords {
		out.UsedWords[k] = v
	}
	return &out
}

// UserSession is the per-user conversational state.
type UserSession struct {
	UserID    string     `json:"userId"`
	PersonaID string     `json:"personaId"`
	Game      *GameState `json:"game,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Clone returns a deep copy.
func (s UserSession) Clone() UserSession {
	s.Game = s.Game.Clone()
	return s
}

// Playing reports whether a game is in progress.
func (s UserSession) Playing() bool {
	return s.Game != nil && s.Game.Mode == InProgress
}
