package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting of the service.
type Config struct {
	Server     ServerConfig
	AI         AIConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Generation GenerationConfig
	LINE       LINEConfig
	Responder  ResponderConfig
	Dedup      DedupConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	generation, err := loadGenerationConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig(generation)
	if err != nil {
		return nil, err
	}

	responder, err := loadResponderConfig()
	if err != nil {
		return nil, err
	}

	dedup, err := loadDedupConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		AI:         ai,
		OpenAI:     loadOpenAIConfig(),
		Gemini:     loadGeminiConfig(),
		Generation: generation,
		LINE:       loadLINEConfig(),
		Responder:  responder,
		Dedup:      dedup,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// accept ":5000" or "127.0.0.1:5000" as-is
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the Ark chat model.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether Ark credentials and a model are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig(gen GenerationConfig) (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		val := gen.Temperature
		temperature = &val
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens == nil {
		val := gen.MaxTokens
		maxTokens = &val
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// OpenAIConfig describes the OpenAI chat completions backend.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Enabled reports whether an API key is present.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		BaseURL: getEnvOrDefault("OPENAI_BASE_URL", ""),
	}
}

// GeminiConfig describes the Gemini backend.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Enabled reports whether an API key is present.
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadGeminiConfig() GeminiConfig {
	return GeminiConfig{
		APIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
	}
}

// GenerationConfig bounds every call to a text-generation backend.
type GenerationConfig struct {
	Provider    string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	RatePerSec  float64
	Burst       int
}

func loadGenerationConfig() (GenerationConfig, error) {
	timeout, err := parseDurationEnv("GENERATION_TIMEOUT", 15*time.Second)
	if err != nil {
		return GenerationConfig{}, err
	}

	maxTokens := 100
	if override, err := parseOptionalIntEnv("GENERATION_MAX_TOKENS"); err != nil {
		return GenerationConfig{}, err
	} else if override != nil && *override > 0 {
		maxTokens = *override
	}

	temperature := 0.8
	if override, err := parseOptionalFloatEnv("GENERATION_TEMPERATURE"); err != nil {
		return GenerationConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	rate := 0.0
	if override, err := parseOptionalFloatEnv("GENERATION_RATE_PER_SEC"); err != nil {
		return GenerationConfig{}, err
	} else if override != nil {
		rate = *override
	}

	burst := 5
	if override, err := parseOptionalIntEnv("GENERATION_BURST"); err != nil {
		return GenerationConfig{}, err
	} else if override != nil && *override > 0 {
		burst = *override
	}

	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "auto"))
	switch provider {
	case "auto", "ark", "openai", "gemini", "none":
	default:
		return GenerationConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	return GenerationConfig{
		Provider:    provider,
		Timeout:     timeout,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		RatePerSec:  rate,
		Burst:       burst,
	}, nil
}

// LINEConfig holds Messaging API credentials.
type LINEConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
}

// Enabled reports whether the webhook can be served.
func (c LINEConfig) Enabled() bool {
	return c.ChannelSecret != "" && c.ChannelAccessToken != ""
}

func loadLINEConfig() LINEConfig {
	return LINEConfig{
		ChannelSecret:      strings.TrimSpace(os.Getenv("LINE_CHANNEL_SECRET")),
		ChannelAccessToken: strings.TrimSpace(os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")),
	}
}

// ResponderConfig tunes reply selection.
type ResponderConfig struct {
	PersonaFile       string
	DefaultPersona    string
	RareProbability   float64
	RandomProbability float64
	RepeatPolicy      string
	RandomSeed        *int
}

func loadResponderConfig() (ResponderConfig, error) {
	rare, err := parseProbabilityEnv("RESPONDER_RARE_PROBABILITY", 0.03)
	if err != nil {
		return ResponderConfig{}, err
	}

	random, err := parseProbabilityEnv("RESPONDER_RANDOM_PROBABILITY", 0.30)
	if err != nil {
		return ResponderConfig{}, err
	}

	seed, err := parseOptionalIntEnv("RESPONDER_RANDOM_SEED")
	if err != nil {
		return ResponderConfig{}, err
	}

	return ResponderConfig{
		PersonaFile:       strings.TrimSpace(os.Getenv("PERSONA_FILE")),
		DefaultPersona:    strings.TrimSpace(os.Getenv("DEFAULT_PERSONA")),
		RareProbability:   rare,
		RandomProbability: random,
		RepeatPolicy:      strings.ToLower(strings.TrimSpace(os.Getenv("SHIRITORI_REPEAT_POLICY"))),
		RandomSeed:        seed,
	}, nil
}

// DedupConfig controls webhook redelivery de-duplication.
type DedupConfig struct {
	Enabled  bool
	RedisURL string
	Prefix   string
	TTL      time.Duration
}

func loadDedupConfig() (DedupConfig, error) {
	ttl, err := parseDurationEnv("DEDUP_TTL", 10*time.Minute)
	if err != nil {
		return DedupConfig{}, err
	}
	enabled, err := parseBoolEnv("DEDUP_ENABLED", true)
	if err != nil {
		return DedupConfig{}, err
	}
	return DedupConfig{
		Enabled:  enabled,
		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
		Prefix:   getEnvOrDefault("REDIS_PREFIX", "kyara"),
		TTL:      ttl,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseProbabilityEnv(key string, defaultValue float64) (float64, error) {
	val, err := parseOptionalFloatEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < 0 || *val > 1 {
		return 0, fmt.Errorf("invalid %s value %v: must be within [0,1]", key, *val)
	}
	return *val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}
