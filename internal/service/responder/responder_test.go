package responder

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/kyara/backend/internal/analysis/kana"
	"github.com/zhouzirui/kyara/backend/internal/model/persona"
	"github.com/zhouzirui/kyara/backend/internal/service/ai"
	sessionsvc "github.com/zhouzirui/kyara/backend/internal/service/session"
	"github.com/zhouzirui/kyara/backend/internal/service/shiritori"
)

// scriptedRandom replays Float64 values and always picks index 0.
type scriptedRandom struct {
	floats []float64
	draws  int
}

func (r *scriptedRandom) Float64() float64 {
	r.draws++
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRandom) IntN(int) int {
	r.draws++
	return 0
}

type fixture struct {
	sessions  *sessionsvc.Store
	personas  *persona.MemoryStore
	responder *Responder
	random    *scriptedRandom
}

func newFixture(gen ai.Generator, floats ...float64) *fixture {
	catalog := persona.DefaultCatalog()
	personas := persona.NewCatalogStore(catalog)
	sessions := sessionsvc.NewStore(catalog.DefaultPersona)
	random := &scriptedRandom{floats: floats}
	engine := shiritori.NewEngine(catalog.Shiritori, random)
	return &fixture{
		sessions:  sessions,
		personas:  personas,
		random:    random,
		responder: New(sessions, personas, engine, gen, Options{RareProbability: 0.03, RandomProbability: 0.30, Random: random}),
	}
}

func echoGenerator(reply string) ai.Generator {
	return ai.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return reply, nil
	})
}

func TestCommandSwitchConsumesNoRandomness(t *testing.T) {
	f := newFixture(echoGenerator("generated"))

	reply := f.responder.OnMessage(context.Background(), "u1", "/mama")
	assert.Equal(t, "キャラクターを「熊本のお母さん」に切り替えました✨", reply)
	assert.Zero(t, f.random.draws)

	sess, err := f.sessions.GetOrCreate("u1")
	require.NoError(t, err)
	assert.Equal(t, "kumamoto_mother", sess.PersonaID)
}

func TestKeywordPrecedesRandomness(t *testing.T) {
	// a zero draw would select the rare reply if it were consulted
	f := newFixture(echoGenerator("generated"), 0, 0)

	reply := f.responder.OnMessage(context.Background(), "u1", "今日はほんとに疲れたよ")
	assert.Equal(t, "…ちゃんと休めばいいじゃないですか。", reply)
	assert.Len(t, f.random.floats, 2)
}

func TestSwitchThenKeywordUsesNewPersona(t *testing.T) {
	f := newFixture(echoGenerator("generated"))

	first := f.responder.OnMessage(context.Background(), "u1", "/poet")
	assert.Contains(t, first, "詩的なカウンセラー")

	second := f.responder.OnMessage(context.Background(), "u1", "疲れた")
	assert.Equal(t, "疲れは、心の花が眠る合図。", second)

	// other users keep the default persona
	other := f.responder.OnMessage(context.Background(), "u2", "疲れた")
	assert.Equal(t, "…ちゃんと休めばいいじゃないですか。", other)
}

func TestChanceStrategies(t *testing.T) {
	seed := persona.Seed()[0]

	f := newFixture(echoGenerator("generated"), 0.01)
	assert.Equal(t, seed.RareReplies[0], f.responder.OnMessage(context.Background(), "u1", "ねえ"))

	f = newFixture(echoGenerator("generated"), 0.5, 0.1)
	assert.Equal(t, seed.RandomReplies[0], f.responder.OnMessage(context.Background(), "u1", "ねえ"))
}

func TestGenerateReceivesPersonaPrompt(t *testing.T) {
	var gotSystem, gotMessage string
	gen := ai.GeneratorFunc(func(_ context.Context, system, message string) (string, error) {
		gotSystem, gotMessage = system, message
		return "  別に、いいですけど？ ", nil
	})
	f := newFixture(gen, 0.5, 0.5)

	reply := f.responder.OnMessage(context.Background(), "u1", "  週末なにする？ ")
	assert.Equal(t, "別に、いいですけど？", reply)
	assert.Equal(t, "週末なにする？", gotMessage)
	assert.Equal(t, ai.BuildSystemPrompt(persona.Seed()[0]), gotSystem)
}

func TestGenerateFailureUsesFallback(t *testing.T) {
	gen := ai.GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("timeout")
	})
	f := newFixture(gen, 0.5, 0.5)

	assert.Equal(t, "…エラーが出たみたいですけど？", f.responder.OnMessage(context.Background(), "u1", "ねえ"))

	f = newFixture(ai.Unavailable, 0.5, 0.5, 0.5, 0.5)
	f.responder.OnMessage(context.Background(), "u1", "/mama")
	assert.Equal(t, "あら、ちょっと調子の悪かごたるね…もう一回言うてみなっせ。",
		f.responder.OnMessage(context.Background(), "u1", "ねえ"))
}

func TestGameRoutesEveryMessageToEngine(t *testing.T) {
	f := newFixture(echoGenerator("generated"))
	ctx := context.Background()

	assert.Equal(t, persona.DefaultRules().Messages.Start, f.responder.OnMessage(ctx, "u1", "/shiritori"))
	game, err := f.sessions.Game("u1")
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.Equal(t, kana.None, game.ExpectedStart)

	// commands are plain words during a game
	assert.Equal(t, persona.DefaultRules().Messages.Unreadable, f.responder.OnMessage(ctx, "u1", "/mama"))
	sess, _ := f.sessions.GetOrCreate("u1")
	assert.Equal(t, "tsundere_junior", sess.PersonaID)
	assert.True(t, sess.Playing())

	assert.Equal(t, persona.DefaultRules().Messages.Quit, f.responder.OnMessage(ctx, "u1", "やめる"))
	sess, _ = f.sessions.GetOrCreate("u1")
	assert.False(t, sess.Playing())
}

type panickingStore struct {
	*persona.MemoryStore
	armed atomic.Bool
}

func (s *panickingStore) FindByID(id string) (persona.Persona, bool) {
	if s.armed.Load() {
		panic("corrupt catalog")
	}
	return s.MemoryStore.FindByID(id)
}

func TestPanicClearsGameAndApologizes(t *testing.T) {
	catalog := persona.DefaultCatalog()
	store := &panickingStore{MemoryStore: persona.NewCatalogStore(catalog)}
	sessions := sessionsvc.NewStore(catalog.DefaultPersona)
	engine := shiritori.NewEngine(catalog.Shiritori, &scriptedRandom{})
	r := New(sessions, store, engine, echoGenerator("generated"), DefaultOptions())
	ctx := context.Background()

	r.OnMessage(ctx, "u1", "/shiritori")
	store.armed.Store(true)

	assert.Equal(t, catalog.Shiritori.Messages.Apology, r.OnMessage(ctx, "u1", "しりとり"))

	store.armed.Store(false)
	game, err := sessions.Game("u1")
	require.NoError(t, err)
	assert.Nil(t, game)
}

func TestMissingUserApologizes(t *testing.T) {
	f := newFixture(echoGenerator("generated"))
	assert.Equal(t, persona.DefaultRules().Messages.Apology, f.responder.OnMessage(context.Background(), "", "hi"))
}

func TestUnknownPersonaFallsBackToDefault(t *testing.T) {
	catalog := persona.DefaultCatalog()
	personas := persona.NewCatalogStore(catalog)
	sessions := sessionsvc.NewStore("ghost")
	random := &scriptedRandom{}
	r := New(sessions, personas, shiritori.NewEngine(catalog.Shiritori, random), echoGenerator("x"),
		Options{Random: random})

	assert.Equal(t, "…ちゃんと休めばいいじゃないですか。", r.OnMessage(context.Background(), "u1", "疲れた"))
}

func TestGenerationDoesNotHoldUserLock(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gen := ai.GeneratorFunc(func(context.Context, string, string) (string, error) {
		close(started)
		<-release
		return "やっと返事", nil
	})
	f := newFixture(gen, 0.5, 0.5)
	ctx := context.Background()

	slow := make(chan string, 1)
	go func() { slow <- f.responder.OnMessage(ctx, "u1", "ねえ") }()
	<-started

	switched := make(chan string, 1)
	go func() { switched <- f.responder.OnMessage(ctx, "u1", "/mama") }()

	select {
	case reply := <-switched:
		assert.Contains(t, reply, "熊本のお母さん")
	case <-time.After(2 * time.Second):
		t.Fatal("persona switch blocked behind generation")
	}

	close(release)
	assert.Equal(t, "やっと返事", <-slow)
}

func TestStrategyNames(t *testing.T) {
	f := newFixture(nil)
	assert.Equal(t, []string{"command", "game-start", "keyword", "rare", "random", "generate"}, f.responder.StrategyNames())
}
