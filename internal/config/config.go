// Package config loads the tutor configuration from defaults, an optional
// tutor.yaml file, and environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	LLM       LLMConfig       `mapstructure:"llm"`
	STT       STTConfig       `mapstructure:"stt"`
	TTS       TTSConfig       `mapstructure:"tts"`
	Session   SessionConfig   `mapstructure:"session"`
	Queue     QueueConfig     `mapstructure:"queue"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP. Only
	// enable it behind a proxy that overwrites those headers.
	TrustProxy  bool     `mapstructure:"trust_proxy"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConns       int    `mapstructure:"max_conns"`
	MinConns       int    `mapstructure:"min_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig enables bearer-token auth when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LLMConfig struct {
	OpenAIKey        string        `mapstructure:"openai_key"`
	OpenAIBaseURL    string        `mapstructure:"openai_base_url"`
	AnthropicKey     string        `mapstructure:"anthropic_key"`
	OllamaURL        string        `mapstructure:"ollama_url"`
	DefaultProvider  string        `mapstructure:"default_provider"`
	// DefaultModel empty lets the default provider choose its own model.
	DefaultModel     string        `mapstructure:"default_model"`
	FallbackProvider string        `mapstructure:"fallback_provider"`
	FallbackModel    string        `mapstructure:"fallback_model"`
	MaxRetries       int           `mapstructure:"max_retries"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type STTConfig struct {
	Backend       string `mapstructure:"backend"` // "openai" or "local"
	OpenAIKey     string `mapstructure:"openai_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	OpenAIModel   string `mapstructure:"openai_model"`
	LocalBaseURL  string `mapstructure:"local_base_url"` // default: "http://localhost:8178/v1"
}

type TTSConfig struct {
	Backend       string `mapstructure:"backend"` // "openai" or "local"
	OpenAIKey     string `mapstructure:"openai_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	OpenAIModel   string `mapstructure:"openai_model"`
	Voice         string `mapstructure:"voice"`
	LocalBinPath  string `mapstructure:"local_piper_bin"` // default: "piper"
	LocalModel    string `mapstructure:"local_piper_model"`
	// LocalModels maps ISO-639-1 codes to Piper voice models. It is read
	// separately because the env form is "ko=/models/ko.onnx,ja=...".
	LocalModels map[string]string `mapstructure:"-"`
	CacheTTL    time.Duration     `mapstructure:"cache_ttl"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// QueueConfig controls background speech pre-rendering.
type QueueConfig struct {
	Prerender   bool `mapstructure:"prerender"`
	Concurrency int  `mapstructure:"concurrency"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// envBindings maps config keys to the environment variables operators set.
var envBindings = map[string][]string{
	"server.host":              {"SERVER_HOST"},
	"server.port":              {"SERVER_PORT"},
	"server.cors_origins":      {"CORS_ORIGINS"},
	"server.trust_proxy":       {"TRUST_PROXY"},
	"database.url":             {"DATABASE_URL"},
	"database.max_conns":       {"DB_MAX_CONNS"},
	"database.min_conns":       {"DB_MIN_CONNS"},
	"database.migrations_path": {"MIGRATIONS_PATH"},
	"redis.addr":               {"REDIS_ADDR"},
	"redis.password":           {"REDIS_PASSWORD"},
	"redis.db":                 {"REDIS_DB"},
	"auth.jwt_secret":          {"AUTH_JWT_SECRET"},
	"llm.openai_key":           {"OPENAI_API_KEY"},
	"llm.openai_base_url":      {"OPENAI_BASE_URL"},
	"llm.anthropic_key":        {"ANTHROPIC_API_KEY"},
	"llm.ollama_url":           {"OLLAMA_URL"},
	"llm.default_provider":     {"LLM_DEFAULT_PROVIDER"},
	"llm.default_model":        {"LLM_DEFAULT_MODEL"},
	"llm.fallback_provider":    {"LLM_FALLBACK_PROVIDER"},
	"llm.fallback_model":       {"LLM_FALLBACK_MODEL"},
	"llm.max_retries":          {"LLM_MAX_RETRIES"},
	"llm.timeout":              {"LLM_TIMEOUT"},
	"stt.backend":              {"STT_BACKEND"},
	"stt.openai_key":           {"STT_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"stt.openai_base_url":      {"STT_OPENAI_BASE_URL"},
	"stt.openai_model":         {"STT_OPENAI_MODEL"},
	"stt.local_base_url":       {"STT_LOCAL_BASE_URL"},
	"tts.backend":              {"TTS_BACKEND"},
	"tts.openai_key":           {"TTS_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"tts.openai_base_url":      {"TTS_OPENAI_BASE_URL"},
	"tts.openai_model":         {"TTS_OPENAI_MODEL"},
	"tts.voice":                {"TTS_VOICE"},
	"tts.local_piper_bin":      {"TTS_LOCAL_PIPER_BIN"},
	"tts.local_piper_model":    {"TTS_LOCAL_PIPER_MODEL"},
	"tts.local_piper_models":   {"TTS_LOCAL_PIPER_MODELS"},
	"tts.cache_ttl":            {"TTS_CACHE_TTL"},
	"session.ttl":              {"SESSION_TTL"},
	"queue.prerender":          {"SPEECH_PRERENDER"},
	"queue.concurrency":        {"WORKER_CONCURRENCY"},
	"rate_limit.rps":           {"RATE_LIMIT_RPS"},
	"rate_limit.burst":         {"RATE_LIMIT_BURST"},
	"logging.level":            {"LOG_LEVEL"},
	"logging.format":           {"LOG_FORMAT"},
}

// Load reads the configuration. If configFile is empty the search order is
// ./tutor.yaml, ./configs/tutor.yaml, /etc/tutor/tutor.yaml; a missing file
// is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.migrations_path", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("llm.openai_key", "")
	v.SetDefault("llm.openai_base_url", "")
	v.SetDefault("llm.anthropic_key", "")
	v.SetDefault("llm.ollama_url", "")
	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("llm.default_model", "")
	v.SetDefault("llm.fallback_provider", "")
	v.SetDefault("llm.fallback_model", "")
	v.SetDefault("llm.max_retries", 0)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("stt.backend", "openai")
	v.SetDefault("stt.openai_key", "")
	v.SetDefault("stt.openai_base_url", "")
	v.SetDefault("stt.openai_model", "")
	v.SetDefault("stt.local_base_url", "http://localhost:8178/v1")
	v.SetDefault("tts.backend", "openai")
	v.SetDefault("tts.openai_key", "")
	v.SetDefault("tts.openai_base_url", "")
	v.SetDefault("tts.openai_model", "")
	v.SetDefault("tts.voice", "")
	v.SetDefault("tts.local_piper_bin", "piper")
	v.SetDefault("tts.local_piper_model", "")
	v.SetDefault("tts.local_piper_models", "")
	v.SetDefault("tts.cache_ttl", 24*time.Hour)
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("queue.prerender", false)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("rate_limit.rps", 5.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tutor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tutor")
	}

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	// TUTOR_LLM_DEFAULT_MODEL and friends cover every key without an explicit binding.
	v.SetEnvPrefix("TUTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	models, err := parseModelMap(v.Get("tts.local_piper_models"))
	if err != nil {
		return nil, fmt.Errorf("invalid tts.local_piper_models: %w", err)
	}
	cfg.TTS.LocalModels = models

	cfg.LLM.OpenAIKey = resolveEnvRef(cfg.LLM.OpenAIKey)
	cfg.LLM.AnthropicKey = resolveEnvRef(cfg.LLM.AnthropicKey)
	cfg.STT.OpenAIKey = resolveEnvRef(cfg.STT.OpenAIKey)
	cfg.TTS.OpenAIKey = resolveEnvRef(cfg.TTS.OpenAIKey)
	cfg.Auth.JWTSecret = resolveEnvRef(cfg.Auth.JWTSecret)

	return &cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks that every selected backend has the credentials it needs.
func (c *Config) Validate() error {
	var missing []string

	switch c.LLM.DefaultProvider {
	case "openai":
		if c.LLM.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.LLM.AnthropicKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "ollama":
		if c.LLM.OllamaURL == "" {
			missing = append(missing, "OLLAMA_URL")
		}
	default:
		return fmt.Errorf("unknown LLM_DEFAULT_PROVIDER %q", c.LLM.DefaultProvider)
	}

	switch c.STT.Backend {
	case "openai":
		if c.STT.OpenAIKey == "" {
			missing = append(missing, "STT_OPENAI_API_KEY")
		}
	case "local":
	default:
		return fmt.Errorf("unknown STT_BACKEND %q", c.STT.Backend)
	}

	switch c.TTS.Backend {
	case "openai":
		if c.TTS.OpenAIKey == "" {
			missing = append(missing, "TTS_OPENAI_API_KEY")
		}
	case "local":
		if c.TTS.LocalModel == "" && len(c.TTS.LocalModels) == 0 {
			missing = append(missing, "TTS_LOCAL_PIPER_MODEL")
		}
	default:
		return fmt.Errorf("unknown TTS_BACKEND %q", c.TTS.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(dedupe(missing), ", "))
	}
	return nil
}

// parseModelMap accepts either a map from a config file or the env form
// "ko=/models/ko.onnx,ja=/models/ja.onnx".
func parseModelMap(raw any) (map[string]string, error) {
	out := make(map[string]string)
	switch val := raw.(type) {
	case nil:
	case map[string]any:
		for k, m := range val {
			out[strings.ToLower(k)] = fmt.Sprint(m)
		}
	case map[string]string:
		for k, m := range val {
			out[strings.ToLower(k)] = m
		}
	case string:
		for _, pair := range strings.Split(val, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			code, model, ok := strings.Cut(pair, "=")
			if !ok || strings.TrimSpace(code) == "" || strings.TrimSpace(model) == "" {
				return nil, fmt.Errorf("expected code=model, got %q", pair)
			}
			out[strings.ToLower(strings.TrimSpace(code))] = strings.TrimSpace(model)
		}
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
	return out, nil
}

// resolveEnvRef replaces "${VAR_NAME}" with the value of that env var.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		if envVal := os.Getenv(val[2 : len(val)-1]); envVal != "" {
			return envVal
		}
	}
	return val
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// SetupLogging configures the global slog logger.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
