package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"clubportal/internal/cli"
	"clubportal/internal/i18n"
	jwttoken "clubportal/internal/jwt_token"
	"clubportal/internal/platform/config"
	"clubportal/internal/platform/logger"
	"clubportal/internal/platform/postgres"
	"clubportal/internal/platform/redis"
	"clubportal/internal/role"
	rolestore "clubportal/internal/role/store"
	"clubportal/internal/session/provider"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.New(logger.Text)
	slog.SetDefault(log)

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if client == nil {
		return errors.New("REDIS_URL is required")
	}
	defer client.Close()

	var authority role.Authority = rolestore.NewInMemory()
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		authority = rolestore.NewPostgres(db)
	}

	codec := jwttoken.NewCodec(cfg.TokenSigningKey)
	app := &cli.App{
		Provider: provider.NewRedis(client.Client, codec,
			provider.WithPrefix(cfg.Redis.Prefix),
			provider.WithRedisLogger(log),
		),
		Roles: role.NewResolver(authority,
			role.WithTimeout(cfg.RoleLookupTimeout),
			role.WithLogger(log),
		),
		Issuer:        devIssuer(cfg, codec),
		Catalog:       i18n.NewCatalog(),
		Logger:        log,
		FallbackRoute: cfg.FallbackRoute,
		CheckTimeout:  cfg.RoleLookupTimeout,
	}
	return cli.NewRootCommand(app).ExecuteContext(ctx)
}

// devIssuer exposes the codec to the issue command outside production only.
func devIssuer(cfg config.Server, codec *jwttoken.Codec) cli.TokenIssuer {
	if cfg.Production {
		return nil
	}
	return codec
}
