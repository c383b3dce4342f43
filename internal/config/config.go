package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/pkg/errors"
)

type Config struct {
	Iris     IrisConfig
	Kakao    KakaoConfig
	TraceMoe TraceMoeConfig
	Logging  LoggingConfig
	Bot      BotConfig
}

type IrisConfig struct {
	BaseURL string
	WSURL   string
}

type KakaoConfig struct {
	Rooms []string
}

// TraceMoeConfig holds the scene search options. It is read-only after Load
// and shared by every invocation.
type TraceMoeConfig struct {
	BaseURL          string
	APIKey           string
	MinSimilarity    float64
	CutBorders       bool
	ShowRomajiTitle  bool
	SendCoverImage   bool
	SendScenePreview bool
	UseForward       bool
	LogDetails       bool
	Timeout          time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

type BotConfig struct {
	Prefix         string
	Platform       string
	MaxConcurrency int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Iris: IrisConfig{
			BaseURL: getEnv("IRIS_BASE_URL", "http://localhost:3000"),
			WSURL:   getEnv("IRIS_WS_URL", "ws://localhost:3000/ws"),
		},
		Kakao: KakaoConfig{
			Rooms: parseCommaSeparated(getEnv("KAKAO_ROOMS", "")),
		},
		TraceMoe: TraceMoeConfig{
			BaseURL:          getEnv("TRACEMOE_BASE_URL", constants.APIConfig.TraceMoeBaseURL),
			APIKey:           getEnv("TRACEMOE_API_KEY", ""),
			MinSimilarity:    getEnvFloat("TRACEMOE_MIN_SIMILARITY", constants.RecognitionDefaults.MinSimilarity),
			CutBorders:       getEnvBool("TRACEMOE_CUT_BORDERS", true),
			ShowRomajiTitle:  getEnvBool("TRACEMOE_SHOW_ROMAJI_TITLE", true),
			SendCoverImage:   getEnvBool("TRACEMOE_SEND_COVER_IMAGE", true),
			SendScenePreview: getEnvBool("TRACEMOE_SEND_SCENE_PREVIEW", true),
			UseForward:       getEnvBool("TRACEMOE_USE_FORWARD", false),
			LogDetails:       getEnvBool("TRACEMOE_LOG_DETAILS", false),
			Timeout:          time.Duration(getEnvInt("TRACEMOE_TIMEOUT_SECONDS", int(constants.APIConfig.TraceMoeTimeout/time.Second))) * time.Second,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "logs/bot.log"),
		},
		Bot: BotConfig{
			Prefix:         getEnv("BOT_PREFIX", "!"),
			Platform:       getEnv("BOT_PLATFORM", constants.DefaultPlatform),
			MaxConcurrency: getEnvInt("BOT_MAX_CONCURRENCY", constants.RecognitionDefaults.Concurrency),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Iris.BaseURL == "" {
		return errors.NewValidationError("IRIS_BASE_URL is required", "IRIS_BASE_URL", c.Iris.BaseURL)
	}
	if c.Iris.WSURL == "" {
		return errors.NewValidationError("IRIS_WS_URL is required", "IRIS_WS_URL", c.Iris.WSURL)
	}
	if c.TraceMoe.BaseURL == "" {
		return errors.NewValidationError("TRACEMOE_BASE_URL is required", "TRACEMOE_BASE_URL", c.TraceMoe.BaseURL)
	}
	if c.TraceMoe.MinSimilarity < 0 || c.TraceMoe.MinSimilarity > 100 {
		return errors.NewValidationError("TRACEMOE_MIN_SIMILARITY must be between 0 and 100",
			"TRACEMOE_MIN_SIMILARITY", c.TraceMoe.MinSimilarity)
	}
	if c.TraceMoe.Timeout <= 0 {
		return errors.NewValidationError("TRACEMOE_TIMEOUT_SECONDS must be positive",
			"TRACEMOE_TIMEOUT_SECONDS", c.TraceMoe.Timeout.String())
	}
	if strings.TrimSpace(c.Bot.Prefix) == "" {
		return errors.NewValidationError("BOT_PREFIX is required", "BOT_PREFIX", c.Bot.Prefix)
	}
	if c.Bot.MaxConcurrency < 1 {
		return errors.NewValidationError("BOT_MAX_CONCURRENCY must be at least 1",
			"BOT_MAX_CONCURRENCY", c.Bot.MaxConcurrency)
	}
	return nil
}

// RoomAllowed reports whether the bot should answer in room. An empty
// allow-list accepts every room.
func (c *Config) RoomAllowed(room string) bool {
	if len(c.Kakao.Rooms) == 0 {
		return true
	}
	for _, r := range c.Kakao.Rooms {
		if r == room {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
