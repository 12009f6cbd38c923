package app

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/kyara/backend/internal/config"
	"github.com/zhouzirui/kyara/backend/internal/model/persona"
	"github.com/zhouzirui/kyara/backend/internal/service/ai"
	"github.com/zhouzirui/kyara/backend/internal/service/dedup"
	"github.com/zhouzirui/kyara/backend/internal/service/responder"
	sessionsvc "github.com/zhouzirui/kyara/backend/internal/service/session"
	"github.com/zhouzirui/kyara/backend/internal/service/shiritori"
	"github.com/zhouzirui/kyara/backend/pkg/utils"
)

// Core holds the wired conversational services shared by the server and tools.
type Core struct {
	Catalog   *persona.Catalog
	Personas  *persona.MemoryStore
	Sessions  *sessionsvc.Store
	Responder *responder.Responder
}

// NewCore loads the persona catalog and wires the responder. A generation
// backend that fails to initialise is logged and replaced by the fallback.
func NewCore(ctx context.Context, cfg *config.Config) (*Core, error) {
	catalog, err := LoadCatalog(cfg.Responder)
	if err != nil {
		return nil, err
	}

	personas := persona.NewCatalogStore(*catalog)

	random := utils.DefaultRandom()
	if seed := cfg.Responder.RandomSeed; seed != nil {
		random = utils.NewSeededRandom(uint64(*seed))
		log.Printf("[responder] using seeded random source (%d)", *seed)
	}

	generator, err := ai.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Printf("warning: failed to initialize generation backend: %v", err)
		log.Println("continuing without AI functionality, generated replies will use persona fallbacks")
		generator = ai.Unavailable
	}

	sessions := sessionsvc.NewStore(personas.Default().ID)
	engine := shiritori.NewEngine(catalog.Shiritori, random)
	core := responder.New(sessions, personas, engine, generator, responder.Options{
		RareProbability:   cfg.Responder.RareProbability,
		RandomProbability: cfg.Responder.RandomProbability,
		Random:            random,
	})

	log.Printf("[responder] %d personas loaded, default=%s, strategies=%v",
		len(catalog.Personas), personas.Default().ID, core.StrategyNames())

	return &Core{
		Catalog:   catalog,
		Personas:  personas,
		Sessions:  sessions,
		Responder: core,
	}, nil
}

// LoadCatalog reads the persona file and applies environment overrides.
func LoadCatalog(cfg config.ResponderConfig) (*persona.Catalog, error) {
	catalog, err := persona.LoadCatalog(cfg.PersonaFile)
	if err != nil {
		return nil, err
	}
	if cfg.DefaultPersona != "" {
		catalog.DefaultPersona = cfg.DefaultPersona
	}
	if cfg.RepeatPolicy != "" {
		catalog.Shiritori.RepeatPolicy = persona.RepeatPolicy(cfg.RepeatPolicy)
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("persona catalog: %w", err)
	}
	return catalog, nil
}

// NewDedupStore picks Redis when REDIS_URL is set, memory otherwise. An
// unreachable Redis degrades to the memory store. Callers own Close.
func NewDedupStore(cfg config.DedupConfig) dedup.Store {
	if !cfg.Enabled {
		return dedup.Nop{}
	}
	if cfg.RedisURL != "" {
		store, err := dedup.NewRedisStore(cfg.RedisURL, cfg.Prefix, cfg.TTL)
		if err == nil {
			log.Println("[line] webhook de-duplication backed by Redis")
			return store
		}
		log.Printf("warning: %v, falling back to in-memory de-duplication", err)
	}
	return dedup.NewMemoryStore(cfg.TTL)
}
