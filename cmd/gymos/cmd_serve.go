package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	adapthttp "gymos/internal/adapter/http"
	"gymos/internal/app"
	"gymos/internal/domain"
	"gymos/internal/metrics"
)

const (
	sessionSweepInterval = time.Hour
	shutdownTimeout      = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	ai, err := newCompleter(ctx, cfg.AI, log)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc := buildServices(cfg, st, ai, m, log)

	var oidcCfg *adapthttp.OIDCConfig
	if cfg.OIDC.Enabled() {
		oidcCfg, err = adapthttp.NewOIDC(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return fmt.Errorf("oidc: %w", err)
		}
		log.Info("sso enabled", zap.String("issuer", cfg.OIDC.Issuer))
	}

	events, unsubscribe := svc.hub.Subscribe(32)
	defer unsubscribe()
	go logSessionEvents(events, log)
	go sweepSessions(ctx, st.sessions, log)

	h := adapthttp.New(adapthttp.Services{
		Auth:     svc.auth,
		CheckIns: svc.checkIns,
		History:  svc.history,
		Reports:  svc.reports,
		Scanner:  svc.scanner,
	}, adapthttp.Options{
		WebDir:          cfg.WebDir,
		GymName:         cfg.GymName,
		ForwardAuth:     cfg.Auth.ForwardAuth,
		OIDC:            oidcCfg,
		AIRatePerMinute: cfg.HTTP.AIRatePerMinute,
		AIBurst:         cfg.HTTP.AIBurst,
		Log:             log,
		Metrics:         m,
	}).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func logSessionEvents(events <-chan app.SessionEvent, log *zap.Logger) {
	for e := range events {
		log.Info("session event",
			zap.String("kind", string(e.Kind)),
			zap.String("member_id", string(e.MemberID)),
			zap.Time("at", e.At))
	}
}

// sweepSessions removes expired sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions domain.SessionRepository, log *zap.Logger) {
	t := time.NewTicker(sessionSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := sessions.DeleteExpired(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("expired session sweep failed", zap.Error(err))
			}
		}
	}
}
