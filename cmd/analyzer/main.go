package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/kalshibot/config"
	"github.com/alejandrodnm/kalshibot/internal/adapters/kalshi"
	"github.com/alejandrodnm/kalshibot/internal/adapters/llm"
	"github.com/alejandrodnm/kalshibot/internal/adapters/notify"
	"github.com/alejandrodnm/kalshibot/internal/adapters/reddit"
	"github.com/alejandrodnm/kalshibot/internal/adapters/storage"
	"github.com/alejandrodnm/kalshibot/internal/adapters/web"
	"github.com/alejandrodnm/kalshibot/internal/application/execution"
	"github.com/alejandrodnm/kalshibot/internal/application/pipeline"
	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/matcher"
	"github.com/alejandrodnm/kalshibot/internal/metrics"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one pass and exit")
	live := flag.Bool("live", false, "place real orders (default: dry run, trades are only logged)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the result table after every pass")
	history := flag.Bool("history", false, "print the trade ledger and exit")
	ticker := flag.String("ticker", "", "with -history: only this ticker")
	since := flag.Duration("since", 0, "with -history: only trades newer than this (e.g. 24h)")
	seenID := flag.String("seen", "", "with -history: show when this post id or URL was first seen")
	demo := flag.Bool("demo", false, "use the Kalshi demo environment")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *live {
		cfg.Trading.DryRun = false
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *demo {
		cfg.Kalshi.BaseURL = kalshi.DemoBaseURL
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table)

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history {
		if err := printHistory(ctx, store, notifier, *ticker, *since); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		posts, urls, closeDedup, err := openDedup(ctx, cfg, store)
		if err != nil {
			slog.Error("failed to open dedup store", "err", err, "backend", cfg.Dedup.Backend)
			os.Exit(1)
		}
		defer closeDedup()
		if err := printDedup(ctx, notifier, posts, urls, *seenID); err != nil {
			slog.Error("dedup summary failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("kalshibot starting",
		"config", *configPath,
		"interval", cfg.PollInterval(),
		"dry_run", cfg.Trading.DryRun,
		"once", *once,
		"dedup", cfg.Dedup.Backend,
		"venue", cfg.Kalshi.BaseURL,
	)

	if !cfg.Trading.DryRun && !confirmLive(ctx) {
		slog.Info("live trading aborted by user")
		return
	}

	venue, err := newVenue(cfg)
	if err != nil {
		slog.Error("failed to create kalshi client", "err", err)
		os.Exit(1)
	}

	posts, urls, closeDedup, err := openDedup(ctx, cfg, store)
	if err != nil {
		slog.Error("failed to open dedup store", "err", err, "backend", cfg.Dedup.Backend)
		os.Exit(1)
	}
	defer closeDedup()

	scrapers, err := newScrapers(cfg, posts, urls)
	if err != nil {
		slog.Error("failed to create scrapers", "err", err)
		os.Exit(1)
	}

	rec := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, rec)
		defer srv.Shutdown(context.Background())
	}

	var estimator ports.Estimator
	if cfg.LLM.APIKey != "" {
		est, err := llm.New(llm.Config{APIKey: cfg.LLM.APIKey, Model: cfg.LLM.Model, BaseURL: cfg.LLM.BaseURL})
		if err != nil {
			slog.Error("failed to create estimator", "err", err)
			os.Exit(1)
		}
		breaker := llm.NewBreaker(est, llm.BreakerConfig{
			MaxFailures: cfg.LLM.BreakerMaxFailures,
			Cooldown:    time.Duration(cfg.LLM.BreakerCooldownSec) * time.Second,
		})
		rec.TrackBreaker("estimator", breaker.State)
		slog.Info("estimator ready", "model", cfg.LLM.Model, "breaker", breaker.State())
		estimator = breaker
	} else {
		slog.Warn("OPENAI_API_KEY not set, groups will be scraped but not estimated")
	}

	sources := matcher.DefaultSourceTable()
	if len(cfg.Sources) > 0 {
		sources = matcher.NewSourceTable(cfg.Sources)
	}

	executor := execution.New(execution.Config{
		Thresholds: domain.Thresholds{
			MinDelta:            cfg.Trading.MinDelta,
			ConfidenceThreshold: cfg.Trading.ConfidenceThreshold,
			MaxContracts:        cfg.Trading.MaxContracts,
			MaxBalanceFraction:  cfg.Trading.MaxBalanceFraction,
		},
		DryRun:           cfg.Trading.DryRun,
		CallTimeout:      cfg.CallTimeout(),
		MaxOpenPerTicker: cfg.Trading.MaxOpenPerTicker,
	}, venue, store, rec)

	p := pipeline.New(pipeline.Config{
		PollInterval: cfg.PollInterval(),
		CallTimeout:  cfg.CallTimeout(),
	}, venue, matcher.New(sources, cfg.Matcher.MinKeywordLen), scrapers, estimator, executor, notifier, rec)

	if *once {
		summary := p.RunOnce(ctx)
		if err := notifier.NotifyPass(ctx, summary); err != nil {
			slog.Warn("notifier error", "err", err)
		}
		return
	}

	if err := p.Run(ctx); err != nil {
		slog.Error("pipeline exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("kalshibot stopped cleanly")
}

// confirmLive da 5 segundos para abortar con Ctrl+C antes de operar con dinero real.
func confirmLive(ctx context.Context) bool {
	fmt.Printf("\n⚠️  LIVE TRADING MODE — REAL MONEY WILL BE SPENT\n")
	fmt.Printf("   Press Ctrl+C within 5 seconds to abort...\n\n")

	t := time.NewTimer(5 * time.Second)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func newVenue(cfg *config.Config) (*kalshi.Client, error) {
	if cfg.Kalshi.APIKeyID == "" {
		if !cfg.Trading.DryRun {
			return nil, errors.New("KALSHI_API_KEY_ID is required for live trading")
		}
		slog.Warn("kalshi credentials not set, balance calls will fail and approved signals end as FAILED")
		return kalshi.NewClient(cfg.Kalshi.BaseURL, nil), nil
	}

	signer, err := kalshi.LoadSigner(cfg.Kalshi.APIKeyID, cfg.Kalshi.PrivateKeyPath, cfg.Kalshi.PrivateKey)
	if err != nil {
		return nil, err
	}
	return kalshi.NewClient(cfg.Kalshi.BaseURL, signer), nil
}

func newScrapers(cfg *config.Config, posts, urls ports.DedupStore) ([]ports.Scraper, error) {
	client, err := reddit.NewClient(reddit.ClientConfig{
		Credentials: reddit.Credentials{
			ClientID:     cfg.Reddit.ClientID,
			ClientSecret: cfg.Reddit.ClientSecret,
			UserAgent:    cfg.Reddit.UserAgent,
		},
		RatePerSec: cfg.Reddit.RatePerSec,
		Timeout:    cfg.CallTimeout(),
	})
	if err != nil {
		return nil, err
	}

	scrapers := []ports.Scraper{reddit.NewScraper(reddit.ScraperConfig{
		TimeFilter:     cfg.Reddit.TimeFilter,
		SearchLimit:    cfg.Reddit.SearchLimit,
		CommentsLimit:  cfg.Reddit.CommentsLimit,
		SubredditDelay: cfg.SubredditDelay(),
		MaxKeywords:    cfg.Reddit.MaxKeywords,
	}, client, posts)}

	if len(cfg.Web.URLs) > 0 {
		scrapers = append(scrapers, web.NewFetcher(web.Config{
			URLs:        cfg.Web.URLs,
			DomainDelay: cfg.DomainDelay(),
			Timeout:     time.Duration(cfg.Web.TimeoutSec) * time.Second,
		}, urls))
		slog.Info("web fetcher enabled", "urls", len(cfg.Web.URLs))
	}
	return scrapers, nil
}

func serveMetrics(addr string, rec *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err, "addr", addr)
		}
	}()
	slog.Info("metrics server listening", "addr", addr)
	return srv
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
