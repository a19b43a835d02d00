package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"clubportal/internal/dashboard"
	"clubportal/internal/i18n"
	jwttoken "clubportal/internal/jwt_token"
	"clubportal/internal/platform/config"
	"clubportal/internal/platform/httpserver"
	"clubportal/internal/platform/logger"
	"clubportal/internal/platform/metrics"
	"clubportal/internal/platform/postgres"
	"clubportal/internal/role"
	rolestore "clubportal/internal/role/store"
	httptransport "clubportal/internal/transport/http"
	id "clubportal/pkg/domain"
)

type roleStore interface {
	role.Authority
	httptransport.RoleAdmin
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small.
func main() {
	log := logger.New(logger.JSON)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	var (
		authority roleStore
		health    func(context.Context) error
	)
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		pg := rolestore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		authority = pg
		health = db.PingContext
		log.Info("role authority: postgres")
	} else {
		authority = rolestore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory role authority")
	}

	if err := bootstrapSuperAdmin(ctx, authority, cfg.BootstrapSuperAdmin, log); err != nil {
		return err
	}

	resolver := role.NewResolver(authority,
		role.WithTimeout(cfg.RoleLookupTimeout),
		role.WithLogger(log),
		role.WithMetrics(m),
	)
	codec := jwttoken.NewCodec(cfg.TokenSigningKey)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:        log,
		Metrics:       m,
		Gatherer:      prometheus.DefaultGatherer,
		Tokens:        jwttoken.NewCodecAdapter(codec),
		Roles:         resolver,
		Assignments:   authority,
		Dashboard:     dashboard.NewService(dashboard.NewInMemoryStore(), log, m),
		Catalog:       i18n.NewCatalog(),
		FallbackRoute: cfg.FallbackRoute,
		SignInRoute:   cfg.SignInRoute,
		CheckTimeout:  cfg.RoleLookupTimeout,
		SecureCookies: cfg.Production,
		Health:        health,
	})

	srv := httpserver.New(cfg.Addr, router)
	if err := httpserver.Serve(ctx, srv, cfg.ShutdownTimeout, log); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// bootstrapSuperAdmin grants superadmin to the configured principal. A nil ID is a
// no-op. Re-running it for an existing superadmin changes nothing.
func bootstrapSuperAdmin(ctx context.Context, roles httptransport.RoleAdmin, principalID id.PrincipalID, log *slog.Logger) error {
	if principalID.IsNil() {
		return nil
	}
	if err := roles.SetRole(ctx, principalID, role.SuperAdmin); err != nil {
		return fmt.Errorf("bootstrap superadmin: %w", err)
	}
	log.Info("bootstrap superadmin assigned", "principal_id", principalID.String())
	return nil
}
