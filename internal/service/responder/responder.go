package responder

import (
	"context"
	"log"
	"strings"

	"github.com/zhouzirui/kyara/backend/internal/model/persona"
	"github.com/zhouzirui/kyara/backend/internal/model/session"
	"github.com/zhouzirui/kyara/backend/internal/service/ai"
	sessionsvc "github.com/zhouzirui/kyara/backend/internal/service/session"
	"github.com/zhouzirui/kyara/backend/internal/service/shiritori"
	"github.com/zhouzirui/kyara/backend/pkg/utils"
)

// Options tunes the default strategy cascade.
type Options struct {
	RareProbability   float64
	RandomProbability float64
	Random            utils.Random
}

// DefaultOptions mirrors the production probabilities.
func DefaultOptions() Options {
	return Options{RareProbability: 0.03, RandomProbability: 0.30}
}

// Responder turns one inbound message into exactly one reply.
type Responder struct {
	sessions   *sessionsvc.Store
	personas   persona.Store
	engine     *shiritori.Engine
	strategies []Strategy
}

// New builds a responder with the standard cascade: command, game-start,
// keyword, rare, random, generate.
func New(sessions *sessionsvc.Store, personas persona.Store, engine *shiritori.Engine, generator ai.Generator, opts Options) *Responder {
	random := opts.Random
	if random == nil {
		random = utils.DefaultRandom()
	}
	return NewWithStrategies(sessions, personas, engine,
		CommandStrategy{Personas: personas},
		GameStartStrategy{Engine: engine},
		KeywordStrategy{Random: random},
		RareStrategy(opts.RareProbability, random),
		RandomStrategy(opts.RandomProbability, random),
		GenerateStrategy{Generator: generator},
	)
}

// NewWithStrategies builds a responder with an explicit cascade. Strategies
// that touch the session must come first.
func NewWithStrategies(sessions *sessionsvc.Store, personas persona.Store, engine *shiritori.Engine, strategies ...Strategy) *Responder {
	return &Responder{
		sessions:   sessions,
		personas:   personas,
		engine:     engine,
		strategies: strategies,
	}
}

// StrategyNames lists the cascade in evaluation order.
func (r *Responder) StrategyNames() []string {
	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Session returns a copy of the user's session if one exists.
func (r *Responder) Session(userID string) (session.UserSession, bool) {
	return r.sessions.Lookup(userID)
}

// OnMessage is the single inbound entry point. It never fails: internal
// faults are logged, the user's game is cleared and an apology is returned.
func (r *Responder) OnMessage(ctx context.Context, userID, text string) (reply string) {
	text = strings.TrimSpace(text)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[responder] user=%s panic while replying: %v", userID, rec)
			reply = r.apologize(userID)
		}
	}()

	reply, err := r.handle(ctx, userID, text)
	if err != nil {
		log.Printf("[responder] user=%s failed to reply: %v", userID, err)
		return r.apologize(userID)
	}
	return reply
}

func (r *Responder) apologize(userID string) string {
	if err := r.sessions.ClearGame(userID); err != nil {
		log.Printf("[responder] user=%s failed to clear game: %v", userID, err)
	}
	return r.engine.Rules().Messages.Apology
}

func (r *Responder) handle(ctx context.Context, userID, text string) (string, error) {
	turn := &Turn{UserID: userID, Text: text}

	var (
		reply   string
		handled bool
		by      string
		next    = len(r.strategies)
	)

	err := r.sessions.Update(userID, func(sess *session.UserSession) error {
		turn.Session = sess
		defer func() { turn.Session = nil }()
		turn.Persona = r.resolvePersona(sess.PersonaID)

		if sess.Playing() {
			res := r.engine.Play(sess, turn.Persona, text)
			log.Printf("[shiritori] user=%s persona=%s outcome=%s", userID, turn.Persona.ID, res.Outcome)
			reply, handled, by = res.Reply, true, "shiritori"
			return nil
		}

		for i, s := range r.strategies {
			if _, ok := s.(sessionBound); !ok {
				next = i
				return nil
			}
			if out, ok := s.Respond(ctx, turn); ok {
				reply, handled, by = out, true, s.Name()
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	// the user's lock is released here; generation may block
	if !handled {
		for _, s := range r.strategies[next:] {
			if out, ok := s.Respond(ctx, turn); ok {
				reply, handled, by = out, true, s.Name()
				break
			}
		}
	}
	if !handled {
		reply, by = turn.Persona.FallbackReply(), "fallback"
	}

	log.Printf("[responder] user=%s persona=%s strategy=%s input_len=%d reply_len=%d",
		userID, turn.Persona.ID, by, len(text), len(reply))
	return reply, nil
}

func (r *Responder) resolvePersona(id string) persona.Persona {
	if p, ok := r.personas.FindByID(id); ok {
		return p
	}
	fallback := r.personas.Default()
	if id != "" {
		log.Printf("[responder] unknown persona %q, using %s", id, fallback.ID)
	}
	return fallback
}
