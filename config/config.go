package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds everything read from the environment at startup. It is
// loaded once in main and passed down; nothing reads os.Getenv after
// boot.
type Config struct {
	Port      string
	MongoURI  string
	JWTSecret []byte
	TokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string

	UploadDir  string
	MaxRecipes int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
}

// Load reads the environment. JWT_SECRET and MONGO_URI are mandatory;
// the process must not start without them.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               os.Getenv("PORT"),
		MongoURI:           os.Getenv("MONGO_URI"),
		JWTSecret:          []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:           2 * time.Hour,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		UploadDir:          os.Getenv("UPLOAD_DIR"),
		MaxRecipes:         50,
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("JWT_SECRET must be set")
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI must be set")
	}

	if cfg.Port == "" {
		cfg.Port = ":8080"
	} else if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return nil, errors.New("TOKEN_TTL must be a positive duration")
		}
		cfg.TokenTTL = ttl
	}
	if v := os.Getenv("INGEST_MAX_RECIPES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.New("INGEST_MAX_RECIPES must be a positive integer")
		}
		cfg.MaxRecipes = n
	}

	return cfg, nil
}
