package responder

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/kyara/backend/internal/model/persona"
	"github.com/zhouzirui/kyara/backend/internal/model/session"
	"github.com/zhouzirui/kyara/backend/internal/service/ai"
	"github.com/zhouzirui/kyara/backend/internal/service/shiritori"
	"github.com/zhouzirui/kyara/backend/pkg/utils"
)

// Turn is the input of one strategy evaluation. Session is only set while
// the user's critical section is held; strategies that run after it has
// been released see nil.
type Turn struct {
	UserID  string
	Text    string
	Persona persona.Persona
	Session *session.UserSession
}

// Strategy is one step of the reply cascade. It either handles the turn and
// returns a reply, or passes.
type Strategy interface {
	Name() string
	Respond(ctx context.Context, turn *Turn) (reply string, handled bool)
}

// sessionBound is implemented by strategies that read or write the session.
// They must precede every strategy that does not.
type sessionBound interface {
	bindsSession()
}

const switchConfirmation = "キャラクターを「%s」に切り替えました✨"

// CommandStrategy switches persona on an exact command match.
type CommandStrategy struct {
	Personas persona.Store
}

func (CommandStrategy) bindsSession() {}

func (CommandStrategy) Name() string { return "command" }

func (s CommandStrategy) Respond(_ context.Context, turn *Turn) (string, bool) {
	p, ok := s.Personas.FindByCommand(turn.Text)
	if !ok {
		return "", false
	}
	turn.Session.PersonaID = p.ID
	turn.Persona = p
	return fmt.Sprintf(switchConfirmation, p.Name), true
}

// GameStartStrategy starts a chain game on the start token.
type GameStartStrategy struct {
	Engine *shiritori.Engine
}

func (GameStartStrategy) bindsSession() {}

func (GameStartStrategy) Name() string { return "game-start" }

func (s GameStartStrategy) Respond(_ context.Context, turn *Turn) (string, bool) {
	if !s.Engine.IsStart(turn.Text) {
		return "", false
	}
	res := s.Engine.Start(turn.Session)
	log.Printf("[shiritori] user=%s game started", turn.UserID)
	return res.Reply, true
}

// KeywordStrategy answers from the first keyword found in the message.
type KeywordStrategy struct {
	Random utils.Random
}

func (KeywordStrategy) Name() string { return "keyword" }

func (s KeywordStrategy) Respond(_ context.Context, turn *Turn) (string, bool) {
	for _, kw := range turn.Persona.Keywords {
		if kw.Keyword == "" || !strings.Contains(turn.Text, kw.Keyword) {
			continue
		}
		if reply, ok := utils.Pick(s.Random, kw.Replies); ok {
			return reply, true
		}
		return "", false
	}
	return "", false
}

// ChanceStrategy answers from a reply set with a fixed probability. The draw
// is made even when the set is empty.
type ChanceStrategy struct {
	Label       string
	Probability float64
	Replies     func(persona.Persona) []string
	Random      utils.Random
}

func (s ChanceStrategy) Name() string { return s.Label }

func (s ChanceStrategy) Respond(_ context.Context, turn *Turn) (string, bool) {
	if s.Random.Float64() >= s.Probability {
		return "", false
	}
	return utils.Pick(s.Random, s.Replies(turn.Persona))
}

// RareStrategy returns the rare-reply step.
func RareStrategy(probability float64, random utils.Random) ChanceStrategy {
	return ChanceStrategy{
		Label:       "rare",
		Probability: probability,
		Replies:     func(p persona.Persona) []string { return p.RareReplies },
		Random:      random,
	}
}

// RandomStrategy returns the random filler step.
func RandomStrategy(probability float64, random utils.Random) ChanceStrategy {
	return ChanceStrategy{
		Label:       "random",
		Probability: probability,
		Replies:     func(p persona.Persona) []string { return p.RandomReplies },
		Random:      random,
	}
}

// GenerateStrategy delegates to the text generator. It always handles the
// turn, answering with the persona fallback when generation fails.
type GenerateStrategy struct {
	Generator ai.Generator
}

func (GenerateStrategy) Name() string { return "generate" }

func (s GenerateStrategy) Respond(ctx context.Context, turn *Turn) (string, bool) {
	if s.Generator == nil {
		return turn.Persona.FallbackReply(), true
	}
	reply, err := s.Generator.Generate(ctx, ai.BuildSystemPrompt(turn.Persona), turn.Text)
	if err != nil {
		log.Printf("[ai] user=%s persona=%s generation failed: %v", turn.UserID, turn.Persona.ID, err)
		return turn.Persona.FallbackReply(), true
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return turn.Persona.FallbackReply(), true
	}
	return reply, true
}
