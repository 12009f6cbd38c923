package shiritori

import (
	"fmt"
	"log"

	"github.com/zhouzirui/kyara/backend/internal/analysis/kana"
	"github.com/zhouzirui/kyara/backend/internal/model/persona"
	"github.com/zhouzirui/kyara/backend/internal/model/session"
	"github.com/zhouzirui/kyara/backend/pkg/utils"
)

// Outcome classifies the result of one turn.
type Outcome string

const (
	Started     Outcome = "started"
	Quit        Outcome = "quit"
	Rejected    Outcome = "rejected"
	HumanLost   Outcome = "human_lost"
	BotConceded Outcome = "bot_conceded"
	BotLost     Outcome = "bot_lost"
	Continued   Outcome = "continued"
)

// Ended reports whether the outcome clears the game.
func (o Outcome) Ended() bool {
	switch o {
	case Quit, HumanLost, BotConceded, BotLost:
		return true
	default:
		return false
	}
}

// Result is the reply of a turn together with its classification.
type Result struct {
	Reply   string
	Outcome Outcome
	BotWord string
}

// Engine runs the word-chain game. It holds no per-user state: every call
// works on the session handed in by the caller, which is expected to hold
// the user's critical section.
type Engine struct {
	rules  persona.Rules
	random utils.Random
}

// NewEngine builds an engine. A nil random falls back to the process source.
func NewEngine(rules persona.Rules, random utils.Random) *Engine {
	if random == nil {
		random = utils.DefaultRandom()
	}
	if !rules.RepeatPolicy.Valid() {
		rules.RepeatPolicy = persona.RepeatAllow
	}
	return &Engine{rules: rules, random: random}
}

// Rules returns the configured rules.
func (e *Engine) Rules() persona.Rules {
	return e.rules
}

// IsStart reports whether text is the game-start token.
func (e *Engine) IsStart(text string) bool {
	return text == e.rules.StartCommand
}

// Start begins a new game on sess, discarding any previous one.
func (e *Engine) Start(sess *session.UserSession) Result {
	sess.Game = session.NewGame()
	return Result{Reply: e.rules.Messages.Start, Outcome: Started}
}

// LosingSyllable is the syllable that loses the game when a word ends on it.
func LosingSyllable(p persona.Persona) kana.Syllable {
	if s := kana.FirstSyllable(p.TerminalWord.Key()); s != kana.None {
		return s
	}
	return 'ん'
}

// Play processes one submitted word for a session with a game in progress.
// Rejected words leave the game untouched.
func (e *Engine) Play(sess *session.UserSession, p persona.Persona, word string) Result {
	msgs := e.rules.Messages

	if word == e.rules.QuitCommand {
		sess.Game = nil
		return Result{Reply: msgs.Quit, Outcome: Quit}
	}
	if e.IsStart(word) {
		return e.Start(sess)
	}
	if !sess.Playing() {
		return e.Start(sess)
	}

	game := sess.Game
	first := kana.FirstSyllable(word)
	last := kana.LastSyllable(word)
	if first == kana.None || last == kana.None {
		return Result{Reply: msgs.Unreadable, Outcome: Rejected}
	}

	if game.ExpectedStart != kana.None && first != game.ExpectedStart {
		return Result{Reply: fmt.Sprintf(msgs.WrongStart, game.ExpectedStart), Outcome: Rejected}
	}

	canonical := kana.Canonical(word)
	if e.rules.RepeatPolicy == persona.RepeatFoul && game.Used(canonical) {
		sess.Game = nil
		return Result{Reply: fmt.Sprintf(msgs.RepeatFoul, word), Outcome: HumanLost}
	}

	losing := LosingSyllable(p)
	if last == losing {
		sess.Game = nil
		return Result{Reply: fmt.Sprintf(msgs.HumanLoses, losing), Outcome: HumanLost}
	}

	candidates := e.candidates(p, last, game)
	botWord, ok := utils.Pick(e.random, candidates)
	if !ok {
		sess.Game = nil
		return Result{Reply: fmt.Sprintf(msgs.BotConcedes, last), Outcome: BotConceded}
	}

	botLast := kana.LastSyllable(botWord.Key())
	if botLast == losing {
		sess.Game = nil
		return Result{Reply: fmt.Sprintf(msgs.BotLoses, botWord.Text, losing), Outcome: BotLost, BotWord: botWord.Text}
	}
	if botLast == kana.None {
		// vocabulary without a readable ending cannot be answered
		log.Printf("[shiritori] persona %s word %q has no readable ending", p.ID, botWord.Text)
		sess.Game = nil
		return Result{Reply: fmt.Sprintf(msgs.BotConcedes, last), Outcome: BotConceded}
	}

	game.Record(canonical, kana.Canonical(botWord.Key()))
	game.ExpectedStart = botLast
	return Result{
		Reply:   fmt.Sprintf(msgs.BotMove, botWord.Text, botLast),
		Outcome: Continued,
		BotWord: botWord.Text,
	}
}

func (e *Engine) candidates(p persona.Persona, start kana.Syllable, game *session.GameState) []persona.Word {
	var out []persona.Word
	for _, w := range p.Vocabulary {
		key := w.Key()
		if kana.FirstSyllable(key) != start {
			continue
		}
		if game.Used(kana.Canonical(key)) {
			continue
		}
		out = append(out, w)
	}
	return out
}
