package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Token        string  `env:"TOKEN,required,notEmpty"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	DBPath       string  `env:"DB_PATH"                 envDefault:"db.sqlite"`

	// OpenRouterAPIKey is passed through to the generation endpoint and never logged.
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY,required,notEmpty"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	DefaultModel      string `env:"DEFAULT_MODEL"       envDefault:"mistral-7b-instruct-free"`

	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT"      envDefault:"10s"`
	TranscriptTimeout time.Duration `env:"TRANSCRIPT_TIMEOUT" envDefault:"30s"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"30s"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
