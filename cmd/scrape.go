package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rageshhub/youtube-email-scraper/internal/auth"
	"github.com/rageshhub/youtube-email-scraper/internal/browser"
	"github.com/rageshhub/youtube-email-scraper/internal/config"
	"github.com/rageshhub/youtube-email-scraper/internal/logging"
	"github.com/rageshhub/youtube-email-scraper/internal/metrics"
	"github.com/rageshhub/youtube-email-scraper/internal/scraper"
	"github.com/rageshhub/youtube-email-scraper/internal/solver"
	"github.com/rageshhub/youtube-email-scraper/internal/store"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run the batch over the record store",
	RunE:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.FilePath)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger = logger.With(zap.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Addr, logger)
	}

	recordStore := store.NewCSVStore(cfg.Store.Path, logger)
	records, err := recordStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	logger.Info("Record store loaded",
		zap.String("path", cfg.Store.Path),
		zap.Int("records", len(records)))

	session, err := browser.NewChromedp(browser.Config{
		Headless:      cfg.Browser.Headless,
		UserAgent:     cfg.Browser.UserAgent,
		ProfileDir:    browser.ProfileDir(cfg.Browser.ProfileRoot, cfg.Credentials.Email),
		ActionTimeout: time.Duration(cfg.Browser.ActionTimeoutSeconds) * time.Second,
		VisibleWait:   time.Duration(cfg.Browser.VisibleWaitSeconds) * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() { _ = session.Close() }()

	solverClient := solver.NewTwoCaptcha(solver.Config{
		APIKey:       cfg.Solver.APIKey,
		PollInterval: time.Duration(cfg.Solver.PollIntervalSeconds) * time.Second,
		Timeout:      cfg.SolverTimeout(),
	}, logger)

	authenticator := auth.New(auth.Config{
		Email:    cfg.Credentials.Email,
		Password: cfg.Credentials.Password,
		Settle:   cfg.NavigateSettle(),
	}, nil, logger)

	processor := scraper.NewProcessor(session, solverClient, recordStore, nil, scraper.Config{
		NavigateSettle: cfg.NavigateSettle(),
		SubmitSettle:   cfg.SubmitSettle(),
	}, logger)

	runner := scraper.NewRunner(authenticator, session, processor, scraper.RunnerConfig{
		HaltOnUnavailable: cfg.Scraper.HaltOnUnavailable,
	}, logger)

	return runner.Run(ctx, records)
}

// startMetricsServer exposes /metrics until ctx is canceled.
func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("Metrics listener started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
