package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gymos/internal/adapter/gemini"
	"gymos/internal/adapter/memory"
	"gymos/internal/adapter/postgres"
	"gymos/internal/adapter/redisstore"
	"gymos/internal/app"
	"gymos/internal/config"
	"gymos/internal/domain"
	"gymos/internal/logging"
	"gymos/internal/metrics"
)

// stores holds the repositories selected by configuration.
type stores struct {
	checkIns domain.CheckInRepository
	members  domain.MemberRepository
	sessions domain.SessionRepository
	closers  []closer
	log      *zap.Logger
}

type closer struct {
	name  string
	close func() error
}

// Close releases the stores in reverse order of opening. Failures are logged.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			s.log.Warn("close failed", zap.String("store", c.name), zap.Error(err))
		}
	}
}

// services is the wired application layer.
type services struct {
	auth     *app.AuthService
	checkIns *app.CheckInService
	history  *app.HistoryService
	reports  *app.ReportService
	scanner  *app.FoodScanner
	hub      *app.SessionHub
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	return cfg, log, nil
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	st := &stores{log: log}

	if cfg.Database.URL == "" {
		log.Warn("no database configured, using in-memory store")
		db := memory.New()
		st.checkIns, st.members, st.sessions = db, db, db.NewSessionRepo()
	} else {
		db, err := postgres.Open(ctx, cfg.Database.URL, postgres.Options{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			ConnLifetime: cfg.Database.ConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		st.closers = append(st.closers, closer{name: "postgres", close: db.Close})
		st.checkIns, st.members, st.sessions = db, db, postgres.NewSessionRepo(db)
	}

	if cfg.Redis.URL != "" {
		client, err := redisstore.Dial(ctx, cfg.Redis.URL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		st.closers = append(st.closers, closer{name: "redis", close: client.Close})
		st.sessions = redisstore.NewSessionRepo(client)
		log.Info("sessions stored in redis")
	}
	return st, nil
}

func newCompleter(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (domain.Completer, error) {
	if !cfg.Enabled() {
		log.Info("ai completion disabled, plans use the fallback", zap.Bool("demo_mode", cfg.DemoMode))
		return nil, nil
	}
	client, err := gemini.New(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("ai client: %w", err)
	}
	return gemini.WithBreaker(client, gemini.BreakerSettings{
		Failures: uint32(cfg.BreakerFailures),
		Cooldown: cfg.BreakerCooldown,
		OnStateChange: func(from, to string) {
			log.Warn("ai circuit breaker state changed", zap.String("from", from), zap.String("to", to))
		},
	}), nil
}

func buildServices(cfg *config.Config, st *stores, ai domain.Completer, m *metrics.Recorder, log *zap.Logger) *services {
	store := app.NewRecordStore(st.checkIns, st.members, log)
	history := app.NewHistoryService(store)
	plans := app.NewPlanGenerator(store, ai, app.PlanGeneratorConfig{
		Timeout:     cfg.AI.PlanTimeout,
		CallCeiling: cfg.AI.CallCeiling,
	}, m, log)
	hub := app.NewSessionHub()

	return &services{
		auth:     app.NewAuthService(st.members, st.sessions, hub, cfg.Auth.SessionTTL),
		checkIns: app.NewCheckInService(plans, history, log),
		history:  history,
		reports:  app.NewReportService(store, history, cfg.GymName, m),
		scanner: app.NewFoodScanner(ai, app.FoodScannerConfig{
			Timeout:     cfg.AI.ScanTimeout,
			CallCeiling: cfg.AI.CallCeiling,
			MaxBytes:    cfg.AI.MaxImageBytes,
		}, m, log),
		hub: hub,
	}
}
