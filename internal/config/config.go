package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки приложения
type Config struct {
	RunAddr        string
	APIPrefix      string
	DatabaseDSN    string
	SQLitePath     string
	RedisAddr      string
	JWTSecret      string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	LogLevel       string
	TrustedSubnet  string
	AllowedOrigins []string
}

// Значения по умолчанию
const (
	DefaultRunAddr        = ":8080"
	DefaultAPIPrefix      = "/api/v1"
	DefaultJWTSecret      = "default_jwt_secret"
	DefaultTokenTTL       = 7 * 24 * time.Hour
	DefaultRequestTimeout = 5 * time.Second
	DefaultLogLevel       = "info"
	DefaultTrustedSubnet  = "127.0.0.0/8"
)

// NewConfig читает .env, флаги командной строки и переменные окружения
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Load(os.Args[1:])
}

// Load собирает конфигурацию из переданных аргументов и окружения.
// Переменные окружения имеют приоритет над флагами.
func Load(args []string) (*Config, error) {
	flags := flag.NewFlagSet("shortener", flag.ContinueOnError)

	flagRunAddr := flags.String("a", DefaultRunAddr, "address and port to run server")
	flagAPIPrefix := flags.String("p", DefaultAPIPrefix, "path prefix of the REST API")
	flagDatabaseDSN := flags.String("d", "", "database DSN for PostgreSQL")
	flagSQLitePath := flags.String("f", "", "path to SQLite database file")
	flagRedisAddr := flags.String("r", "", "redis address for the redirect cache")
	flagJWTSecret := flags.String("j", DefaultJWTSecret, "JWT secret key")
	flagTokenTTL := flags.Duration("t", DefaultTokenTTL, "lifetime of issued tokens")
	flagRequestTimeout := flags.Duration("rt", DefaultRequestTimeout, "per-request timeout")
	flagLogLevel := flags.String("l", DefaultLogLevel, "log level")
	flagTrustedSubnet := flags.String("ts", DefaultTrustedSubnet, "CIDR allowed to read /metrics")
	flagAllowedOrigins := flags.String("o", "", "comma-separated CORS origins, empty allows any")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		RunAddr:        envOr("SERVER_ADDRESS", *flagRunAddr),
		APIPrefix:      envOr("API_PREFIX", *flagAPIPrefix),
		DatabaseDSN:    envOr("DATABASE_DSN", *flagDatabaseDSN),
		SQLitePath:     envOr("SQLITE_PATH", *flagSQLitePath),
		RedisAddr:      envOr("REDIS_ADDR", *flagRedisAddr),
		JWTSecret:      envOr("JWT_SECRET", *flagJWTSecret),
		TokenTTL:       *flagTokenTTL,
		RequestTimeout: *flagRequestTimeout,
		LogLevel:       envOr("LOG_LEVEL", *flagLogLevel),
		TrustedSubnet:  envOr("TRUSTED_SUBNET", *flagTrustedSubnet),
		AllowedOrigins: splitList(envOr("ALLOWED_ORIGINS", *flagAllowedOrigins)),
	}

	var err error
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if cfg.TokenTTL, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if cfg.RequestTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
	}

	// Валидация значений
	cfg.RunAddr = validateAddress(cfg.RunAddr)
	cfg.APIPrefix = validatePrefix(cfg.APIPrefix)
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret must not be empty")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if cfg.SQLitePath != "" && cfg.DatabaseDSN == "" {
		// Создаём директорию для файла базы, если она не существует
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Storage возвращает имя выбранного хранилища: postgres, sqlite или memory
func (c *Config) Storage() string {
	switch {
	case c.DatabaseDSN != "":
		return "postgres"
	case c.SQLitePath != "":
		return "sqlite"
	default:
		return "memory"
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList разбирает список через запятую, пропуская пустые элементы
func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func validateAddress(addr string) string {
	if !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

func validatePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
