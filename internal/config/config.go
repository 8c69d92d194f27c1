package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	LunchoAPI LunchoAPIConfig
	Cache     CacheConfig
	Locale    string `envconfig:"LOCALE" default:"en"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
}

type ServerConfig struct {
	Port         int           `envconfig:"SERVER_PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s" validate:"gt=0"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s" validate:"gt=0"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s" validate:"gt=0"`
}

type LunchoAPIConfig struct {
	BaseURL    string        `envconfig:"LUNCHO_API_BASE_URL" default:"http://localhost:8000" validate:"required,url"`
	Timeout    time.Duration `envconfig:"LUNCHO_API_TIMEOUT" default:"10s" validate:"gt=0"`
	MaxRetries uint64        `envconfig:"LUNCHO_API_MAX_RETRIES" default:"2" validate:"max=10"`
	// RefreshRate controls the background warmup of all-country data. Zero
	// turns it off.
	RefreshRate time.Duration `envconfig:"LUNCHO_API_REFRESH_RATE" default:"1h" validate:"gte=0"`
}

type CacheConfig struct {
	ReferenceCountry string        `envconfig:"CACHE_REFERENCE_COUNTRY" default:"JP" validate:"len=2,uppercase"`
	FetchTimeout     time.Duration `envconfig:"CACHE_FETCH_TIMEOUT" default:"30s" validate:"gte=0"`
}

// LoadConfig reads an optional .env file, then the environment. Variables
// already set in the environment win over the file.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}
