// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	id "clubportal/pkg/domain"
)

// DevSigningKey is used when TOKEN_SIGNING_KEY is unset. FromEnv refuses it in
// production mode.
const DevSigningKey = "dev-signing-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	Production        bool
	TokenSigningKey   string
	RoleLookupTimeout time.Duration
	FallbackRoute     string
	SignInRoute       string
	ShutdownTimeout   time.Duration
	Redis             RedisConfig
	Postgres          PostgresConfig

	// BootstrapSuperAdmin is granted superadmin at startup when set, so a fresh
	// deployment can reach the role assignment endpoint.
	BootstrapSuperAdmin id.PrincipalID
}

// RedisConfig configures the Redis session provider. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	Prefix       string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the role authority database. An empty URL selects the
// in-memory authority.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:            getEnv("PORTAL_ADDR", ":8080"),
		Production:      os.Getenv("PORTAL_ENV") == "production",
		TokenSigningKey: getEnv("TOKEN_SIGNING_KEY", DevSigningKey),
		FallbackRoute:   getEnv("FALLBACK_ROUTE", "/"),
		SignInRoute:     getEnv("SIGNIN_ROUTE", "/signin"),
	}
	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.Redis.Prefix = getEnv("REDIS_PREFIX", "clubportal:")
	cfg.Postgres.URL = os.Getenv("DATABASE_URL")

	var err error
	if cfg.RoleLookupTimeout, err = getDuration("ROLE_LOOKUP_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", 10); err != nil {
		return Server{}, err
	}
	if cfg.Redis.MinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Server{}, err
	}
	if cfg.Redis.DialTimeout, err = getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.ReadTimeout, err = getDuration("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Redis.WriteTimeout, err = getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Postgres.MaxOpenConns, err = getInt("DATABASE_MAX_OPEN_CONNS", 10); err != nil {
		return Server{}, err
	}
	if cfg.Postgres.MaxIdleConns, err = getInt("DATABASE_MAX_IDLE_CONNS", 5); err != nil {
		return Server{}, err
	}
	if cfg.Postgres.ConnMaxLifetime, err = getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return Server{}, err
	}

	if v := os.Getenv("BOOTSTRAP_SUPERADMIN"); v != "" {
		if cfg.BootstrapSuperAdmin, err = id.ParsePrincipalID(v); err != nil {
			return Server{}, fmt.Errorf("parse BOOTSTRAP_SUPERADMIN: %w", err)
		}
	}

	if cfg.Production && cfg.TokenSigningKey == DevSigningKey {
		return Server{}, fmt.Errorf("TOKEN_SIGNING_KEY must be set in production")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
