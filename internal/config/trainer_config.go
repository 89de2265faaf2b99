package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vocabtrainer/backend/internal/models"
)

// TrainerConfig holds the configuration of the trainer client
type TrainerConfig struct {
	CatalogPath   string
	DailyNewLimit int
	LapseMinutes  float64
	LevelFilter   models.LevelFilter
	AutoplayAudio bool

	Cache   CacheConfig
	Remote  RemoteConfig
	Learner LearnerConfig

	SaveDebounce time.Duration
	Logging      LoggingConfig
}

// CacheConfig selects and configures the local cache
type CacheConfig struct {
	Driver        string // sqlite, redis or memory
	Path          string
	BaseKey       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// RemoteConfig holds the progress server settings; an empty BaseURL disables sync
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LearnerConfig holds the learner identity. A learner id without a token is pending.
type LearnerConfig struct {
	ID    string
	Token string
}

// Identity converts the settings into a learner identity
func (l LearnerConfig) Identity() models.Identity {
	return models.Identity{ID: l.ID, Token: l.Token}
}

// LoadTrainer reads the trainer configuration from the environment, after loading an optional .env file
func LoadTrainer() (*TrainerConfig, error) {
	_ = godotenv.Load()

	cfg := &TrainerConfig{}
	var err error

	cfg.CatalogPath = stringEnv("CATALOG_PATH", "data/cards.json")

	if cfg.DailyNewLimit, err = intEnv("DAILY_NEW_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.DailyNewLimit <= 0 {
		return nil, fmt.Errorf("DAILY_NEW_LIMIT must be positive, got %d", cfg.DailyNewLimit)
	}
	if cfg.LapseMinutes, err = floatEnv("LAPSE_MINUTES", 10); err != nil {
		return nil, err
	}
	if cfg.LapseMinutes <= 0 {
		return nil, fmt.Errorf("LAPSE_MINUTES must be positive, got %v", cfg.LapseMinutes)
	}

	filter, ok := models.ParseLevelFilter(stringEnv("LEVEL_FILTER", string(models.LevelFilterAll)))
	if !ok {
		return nil, fmt.Errorf("invalid LEVEL_FILTER: expected one of all, a1, a2, b1, b2")
	}
	cfg.LevelFilter = filter

	if cfg.AutoplayAudio, err = boolEnv("AUTOPLAY_AUDIO", false); err != nil {
		return nil, err
	}

	cfg.Cache.Driver = strings.ToLower(stringEnv("CACHE_DRIVER", "sqlite"))
	cfg.Cache.Path = stringEnv("CACHE_PATH", "data/progress.db")
	cfg.Cache.BaseKey = stringEnv("CACHE_BASE_KEY", "vocab-progress")
	cfg.Cache.RedisAddr = fmt.Sprintf("%s:%s", stringEnv("REDIS_HOST", "localhost"), stringEnv("REDIS_PORT", "6379"))
	cfg.Cache.RedisPassword = stringEnv("REDIS_PASSWORD", "")
	if cfg.Cache.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	cfg.Cache.RedisPrefix = stringEnv("REDIS_PREFIX", "vocab:")

	cfg.Remote.BaseURL = stringEnv("REMOTE_BASE_URL", "")
	if cfg.Remote.Timeout, err = durationEnv("REMOTE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.Learner.ID = stringEnv("LEARNER_ID", "")
	cfg.Learner.Token = stringEnv("LEARNER_TOKEN", "")

	if cfg.SaveDebounce, err = durationEnv("SAVE_DEBOUNCE", 400*time.Millisecond); err != nil {
		return nil, err
	}

	cfg.Logging.Level = stringEnv("LOG_LEVEL", "info")
	cfg.Logging.Path = stringEnv("LOG_PATH", "logs/trainer.log")

	return cfg, nil
}
