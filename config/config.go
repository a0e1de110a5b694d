package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds everything the server needs to come up. Round timings are
// per-room defaults; rooms may narrow them from the create request.
type Config struct {
	Addr        string        `koanf:"addr"`
	PostgresURL string        `koanf:"postgres_url"`
	JWTKey      string        `koanf:"jwt_key"`
	// AllowedOrigins is comma-separated, same shape in file and env.
	AllowedOrigins string        `koanf:"allowed_origins"`
	Debug          bool          `koanf:"debug"`
	TokenAge       time.Duration `koanf:"token_age"`

	ChoosingPromptDuration time.Duration `koanf:"choosing_prompt_duration"`
	DrawingDuration        time.Duration `koanf:"drawing_duration"`
	TurnSummaryDuration    time.Duration `koanf:"turn_summary_duration"`
	CommentaryInterval     time.Duration `koanf:"commentary_interval"`
	HistoryDepth           int           `koanf:"history_depth"`
}

func defaults() *Config {
	return &Config{
		Addr:                   ":5000",
		TokenAge:               time.Hour * 24 * 7,
		ChoosingPromptDuration: time.Second * 10,
		DrawingDuration:        time.Second * 80,
		TurnSummaryDuration:    time.Second * 6,
		CommentaryInterval:     time.Second * 3,
		HistoryDepth:           50,
	}
}

// Load layers defaults, an optional YAML file (SKETCH_CONFIG) and
// SKETCH_-prefixed env vars, low to high precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("SKETCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// SKETCH_POSTGRES_URL -> postgres_url, etc.
	envProvider := env.Provider("SKETCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "sketch_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.PostgresURL == "" {
		return nil, errors.New("postgres_url must not be empty")
	}
	if cfg.JWTKey == "" {
		return nil, errors.New("jwt_key must not be empty")
	}
	if cfg.AllowedOrigins == "" {
		return nil, errors.New("allowed_origins must not be empty")
	}
	return &cfg, nil
}

// Origins splits the allow-list into the form gin-contrib/cors wants.
func (c *Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
