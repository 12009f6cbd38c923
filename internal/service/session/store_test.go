package session_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/kyara/backend/internal/analysis/kana"
	model "github.com/zhouzirui/kyara/backend/internal/model/session"
	"github.com/zhouzirui/kyara/backend/internal/service/session"
)

func TestGetOrCreateUsesDefaultPersona(t *testing.T) {
	store := session.NewStore("tsundere_junior")

	sess, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", sess.UserID)
	assert.Equal(t, "tsundere_junior", sess.PersonaID)
	assert.Nil(t, sess.Game)
	assert.Equal(t, 1, store.Len())
}

func TestEmptyUserIDRejected(t *testing.T) {
	store := session.NewStore("p")
	_, err := store.GetOrCreate("")
	assert.ErrorIs(t, err, session.ErrUserRequired)
}

func TestSetPersonaPersists(t *testing.T) {
	store := session.NewStore("a")
	require.NoError(t, store.SetPersona("U1", "b"))

	sess, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	assert.Equal(t, "b", sess.PersonaID)

	other, err := store.GetOrCreate("U2")
	require.NoError(t, err)
	assert.Equal(t, "a", other.PersonaID)
}

func TestGameLifecycleAndCopies(t *testing.T) {
	store := session.NewStore("a")

	game := model.NewGame()
	require.NoError(t, store.SetGame("U1", game))

	// caller-held copies must not leak into the store
	game.Record("ちくわ")
	got, err := store.Game("U1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Used("ちくわ"))
	assert.Equal(t, kana.None, got.ExpectedStart)

	got.Record("わに")
	again, err := store.Game("U1")
	require.NoError(t, err)
	assert.False(t, again.Used("わに"))

	require.NoError(t, store.ClearGame("U1"))
	cleared, err := store.Game("U1")
	require.NoError(t, err)
	assert.Nil(t, cleared)
}

func TestUpdateErrorDiscardsChanges(t *testing.T) {
	store := session.NewStore("a")
	boom := errors.New("boom")

	err := store.Update("U1", func(sess *model.UserSession) error {
		sess.PersonaID = "changed"
		sess.Game = model.NewGame()
		return boom
	})
	assert.ErrorIs(t, err, boom)

	sess, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	assert.Equal(t, "a", sess.PersonaID)
	assert.Nil(t, sess.Game)
}

func TestUpdatePanicReleasesLock(t *testing.T) {
	store := session.NewStore("a")

	assert.Panics(t, func() {
		_ = store.Update("U1", func(*model.UserSession) error { panic("fault") })
	})

	require.NoError(t, store.SetPersona("U1", "b"))
}

func TestConcurrentGameStartIsSerialised(t *testing.T) {
	store := session.NewStore("a")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update("U1", func(sess *model.UserSession) error {
				if sess.Game == nil {
					sess.Game = model.NewGame()
					mu.Lock()
					started++
					mu.Unlock()
				}
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
}

func TestConcurrentUsersDoNotShareState(t *testing.T) {
	store := session.NewStore("a")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Update("U1", func(sess *model.UserSession) error {
				if sess.Game == nil {
					sess.Game = model.NewGame()
				}
				sess.Game.Record("あ")
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = store.SetPersona("U2", "b")
		}()
	}
	wg.Wait()

	u1, err := store.GetOrCreate("U1")
	require.NoError(t, err)
	assert.Equal(t, "a", u1.PersonaID)
	assert.True(t, u1.Game.Used("あ"))

	u2, err := store.GetOrCreate("U2")
	require.NoError(t, err)
	assert.Equal(t, "b", u2.PersonaID)
	assert.Nil(t, u2.Game)
}

func TestLookupDoesNotCreate(t *testing.T) {
	store := session.NewStore("tsundere_junior")

	_, ok := store.Lookup("U1")
	assert.False(t, ok)
	_, ok = store.Lookup("")
	assert.False(t, ok)
	assert.Zero(t, store.Len())

	require.NoError(t, store.SetPersona("U1", "poetic_counselor"))
	sess, ok := store.Lookup("U1")
	require.True(t, ok)
	assert.Equal(t, "poetic_counselor", sess.PersonaID)
	assert.Equal(t, 1, store.Len())
}
