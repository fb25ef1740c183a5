package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	Telegram TelegramConfig
	Session  SessionConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	API      APIConfig

	AutoMigrate bool
}

type DBConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
	MaxConns  int32
	OpTimeout time.Duration // per-statement budget; exceeded calls fail as transient
}

type TelegramConfig struct {
	AdminToken      string  // organizer bot
	UserToken       string  // participant bot
	UserBotUsername string  // used to build invite links t.me/<name>?start=<order_id>
	OrganizerIDs    []int64 // static organizer list (ADMIN_IDS)
	// bcrypt hash of the organizer password for /login; empty disables login.
	OrganizerPasswordHash string
	Currency              string // label appended to amounts
}

type SessionConfig struct {
	Backend string // "memory", "redis" or "postgres"
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AMQPConfig struct {
	URL string // empty disables submission events
}

type APIConfig struct {
	Addr string // empty disables the HTTP API
	Key  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return &Config{
		DB: DBConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      port,
			User:      getEnv("DB_USER", "postgres"),
			Password:  getEnv("DB_PASSWORD", ""),
			Database:  getEnv("DB_NAME", "orderbot"),
			MaxConns:  int32(maxConns),
			OpTimeout: getDuration("DB_OP_TIMEOUT", 5*time.Second),
		},
		Telegram: TelegramConfig{
			AdminToken:            getEnv("ADMIN_TOKEN", ""),
			UserToken:             getEnv("USER_TOKEN", ""),
			UserBotUsername:       strings.TrimPrefix(getEnv("USER_BOT_USERNAME", ""), "@"),
			OrganizerIDs:          parseIDs(getEnv("ADMIN_IDS", "")),
			OrganizerPasswordHash: getEnv("ORGANIZER_PASSWORD_HASH", ""),
			Currency:              getEnv("CURRENCY", "Toman"),
		},
		Session: SessionConfig{
			Backend: strings.ToLower(getEnv("SESSION_BACKEND", "postgres")),
			TTL:     getDuration("SESSION_TTL", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		AMQP: AMQPConfig{
			URL: getEnv("AMQP_URL", ""),
		},
		API: APIConfig{
			Addr: getEnv("HTTP_ADDR", ""),
			Key:  getEnv("API_KEY", ""),
		},
		AutoMigrate: isTrue(getEnv("AUTO_MIGRATE", "")),
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func isTrue(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}

// parseIDs reads a comma separated list of telegram user ids, skipping junk.
func parseIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
