package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumina-learn/lumina/internal/audit"
	"github.com/lumina-learn/lumina/internal/authz"
	"github.com/lumina-learn/lumina/internal/catalog"
	"github.com/lumina-learn/lumina/internal/config"
	"github.com/lumina-learn/lumina/internal/course"
	"github.com/lumina-learn/lumina/internal/observability/logger"
	"github.com/lumina-learn/lumina/internal/observability/metrics"
	"github.com/lumina-learn/lumina/internal/store/memory"
	"github.com/lumina-learn/lumina/internal/store/postgres"
)

// services is the wired domain layer shared by every subcommand.
type services struct {
	engine  *authz.Engine
	rules   *authz.RuleService
	guard   *authz.Guard
	catalog *catalog.Service
	courses *course.Service
	db      *postgres.DB
}

func (s *services) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

type repositories struct {
	rules       authz.RuleStore
	roles       authz.RoleRepository
	catalog     catalog.Repository
	assignRules authz.AssignRuleRepository
	courses     course.Repository
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*postgres.DB, error) {
	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.InfoContext(ctx, "connected to database", logger.Component("postgres"))
	return db, nil
}

func newServices(ctx context.Context, cfg *config.Config, meter *metrics.Meter, migrate bool) (*services, error) {
	svc := &services{}

	var repos repositories
	switch cfg.Database.Driver {
	case "memory":
		slog.WarnContext(ctx, "using in-memory store; changes are lost on exit", logger.Component("store"))
		s := memory.NewSeededStore()
		repos = repositories{
			rules:       memory.NewRuleRepository(s),
			roles:       memory.NewRoleRepository(s),
			catalog:     memory.NewCatalogRepository(s),
			assignRules: memory.NewAssignRuleRepository(s),
			courses:     memory.NewCourseRepository(s),
		}
	default:
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		svc.db = db
		if migrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}
		repos = repositories{
			rules:       postgres.NewRuleRepository(db),
			roles:       postgres.NewRoleRepository(db),
			catalog:     postgres.NewCatalogRepository(db),
			assignRules: postgres.NewAssignRuleRepository(db),
			courses:     postgres.NewCourseRepository(db),
		}
	}

	engine, err := authz.NewEngine(repos.rules, meter)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("failed to create authorization engine: %w", err)
	}

	auditLogger := audit.NewSlogLogger()
	svc.engine = engine
	svc.guard = authz.NewGuard(repos.assignRules, repos.roles, repos.catalog, auditLogger)
	svc.rules = authz.NewRuleService(repos.rules, repos.roles, repos.catalog, svc.guard, auditLogger)
	svc.catalog = catalog.NewService(repos.catalog, auditLogger)
	svc.courses = course.NewService(engine, repos.courses)
	return svc, nil
}

func initLogging(cfg *config.Config) func() {
	closer := logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		File:        cfg.Observability.LogFile,
		MaxSizeMB:   cfg.Observability.LogMaxSizeMB,
		MaxBackups:  cfg.Observability.LogMaxBackups,
		MaxAgeDays:  cfg.Observability.LogMaxAgeDays,
	})
	return func() { _ = closer.Close() }
}
