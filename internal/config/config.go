// Package config loads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/validator"
	"github.com/siahsang/articles/models"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	FormatDev  = "dev"
	FormatJSON = "json"

	minSecretLength = 16
)

var ErrInvalidConfig = xerrors.Message("invalid configuration")

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	QueryTimeout    time.Duration
	MigrationsPath  string
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

type Config struct {
	HTTP        HTTPConfig
	StoreDriver string
	DB          DBConfig
	JWTSecret   string
	Log         LogConfig
	SeedUsers   []*models.User
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads envFile into the process environment, without overriding
// variables that are already set, and then builds the configuration. A
// missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, xerrors.Newf("loading %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

func FromLookup(lookup LookupFunc) (*Config, error) {
	v := validator.New()
	env := reader{lookup: lookup, v: v}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:            env.get("HTTP_ADDR", ":8080"),
			ReadTimeout:     env.getDuration("HTTP_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:    env.getDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     env.getDuration("HTTP_IDLE_TIMEOUT", time.Minute),
			ShutdownTimeout: env.getDuration("SHUTDOWN_TIMEOUT", 20*time.Second),
		},
		StoreDriver: env.get("STORE_DRIVER", DriverPostgres),
		DB: DBConfig{
			URL:             env.get("DATABASE_URL", ""),
			MaxOpenConns:    env.getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.getInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxIdleTime: env.getDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Second),
			QueryTimeout:    env.getDuration("DB_QUERY_TIMEOUT", 3*time.Second),
			MigrationsPath:  env.get("MIGRATIONS_PATH", "migrations"),
		},
		JWTSecret: env.get("JWT_SECRET", ""),
		Log: LogConfig{
			Level:  env.getLevel("LOG_LEVEL", slog.LevelInfo),
			Format: env.get("LOG_FORMAT", FormatDev),
		},
		SeedUsers: parseSeedUsers(env.get("SEED_USERS", "")),
	}

	cfg.validate(v)
	if !v.IsValid() {
		return nil, invalid(v.Errors)
	}
	return cfg, nil
}

func (cfg *Config) validate(v *validator.Validator) {
	v.Check(validator.PermittedValue(cfg.StoreDriver, DriverPostgres, DriverMemory), "STORE_DRIVER", "must be postgres or memory")
	if cfg.StoreDriver == DriverPostgres {
		v.CheckNotBlank(cfg.DB.URL, "DATABASE_URL", "must be provided for the postgres store")
	}
	v.Check(len(cfg.JWTSecret) >= minSecretLength, "JWT_SECRET", "must be at least 16 bytes long")
	v.Check(validator.PermittedValue(cfg.Log.Format, FormatDev, FormatJSON), "LOG_FORMAT", "must be dev or json")
	v.CheckNotBlank(cfg.HTTP.Addr, "HTTP_ADDR", "must be provided")
	v.Check(cfg.DB.MaxOpenConns >= 0, "DB_MAX_OPEN_CONNS", "must not be negative")
	v.Check(cfg.DB.MaxIdleConns >= 0, "DB_MAX_IDLE_CONNS", "must not be negative")
	v.Check(cfg.DB.QueryTimeout > 0, "DB_QUERY_TIMEOUT", "must be positive")
	v.Check(cfg.HTTP.ShutdownTimeout > 0, "SHUTDOWN_TIMEOUT", "must be positive")
}

func invalid(fields map[string]string) error {
	parts := make([]string, 0, len(fields))
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, key+" "+fields[key])
	}
	return xerrors.Newf("%w: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

// parseSeedUsers reads "alice,editor:staff" into users; the ":staff" suffix
// marks staff accounts.
func parseSeedUsers(raw string) []*models.User {
	var users []*models.User
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		username, role, _ := strings.Cut(entry, ":")
		users = append(users, &models.User{
			Username: strings.TrimSpace(username),
			IsStaff:  strings.EqualFold(strings.TrimSpace(role), "staff"),
		})
	}
	return users
}

type reader struct {
	lookup LookupFunc
	v      *validator.Validator
}

func (r reader) get(key, fallback string) string {
	if value, ok := r.lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func (r reader) getInt(key string, fallback int) int {
	raw := r.get(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	r.v.Check(err == nil, key, "must be an integer")
	return n
}

func (r reader) getDuration(key string, fallback time.Duration) time.Duration {
	raw := r.get(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	r.v.Check(err == nil, key, "must be a duration such as 5s or 1m")
	return d
}

func (r reader) getLevel(key string, fallback slog.Level) slog.Level {
	raw := r.get(key, "")
	if raw == "" {
		return fallback
	}
	var level slog.Level
	err := level.UnmarshalText([]byte(raw))
	r.v.Check(err == nil, key, "must be debug, info, warn or error")
	return level
}
