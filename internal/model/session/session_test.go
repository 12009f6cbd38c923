package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameCloneIsDeep(t *testing.T) {
	game := NewGame()
	game.Record("からす")

	copied := game.Clone()
	copied.Record("すいか")
	copied.ExpectedStart = 'か'

	assert.True(t, game.Used("からす"))
	assert.False(t, game.Used("すいか"))
	assert.Zero(t, game.ExpectedStart)
	assert.Nil(t, (*GameState)(nil).Clone())
}

func TestPlaying(t *testing.T) {
	assert.False(t, UserSession{}.Playing())
	assert.True(t, UserSession{Game: NewGame()}.Playing())
	assert.False(t, UserSession{Game: &GameState{Mode: Idle}}.Playing())
}

func TestRecordOnZeroValue(t *testing.T) {
	var game GameState
	game.Record("いるか")
	assert.True(t, game.Used("いるか"))
}
