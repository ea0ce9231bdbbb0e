package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/davecgh/go-spew/spew"
	"golang.org/x/time/rate"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/api"
	"github.com/noxer-shop/storefront/pkg/cache"
	"github.com/noxer-shop/storefront/pkg/catalog"
	"github.com/noxer-shop/storefront/pkg/config"
	"github.com/noxer-shop/storefront/pkg/controller"
	"github.com/noxer-shop/storefront/pkg/database"
	"github.com/noxer-shop/storefront/tui"
)

func main() {
	debug := flag.Bool("debug", false, "log at debug level and dump the session state on exit")
	apiURL := flag.String("api", "", "products API base URL (overrides API_BASE_URL)")
	offline := flag.Bool("offline", false, "skip the products API and browse the mock catalog")
	flag.Parse()

	config.LoadEnv() // Load environment variables first
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger, closeLog, err := newLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fallback, closeFallback, err := newFallback(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize mock catalog: %v", err)
	}
	defer closeFallback()

	var primary api.Fetcher = offlineFetcher{}
	if !*offline {
		store, closeStore := newResponseStore(cfg)
		defer closeStore()
		remote := api.NewRemote(cfg.APIBaseURL, cfg.APIPrefix,
			api.WithTimeout(cfg.APITimeout),
			api.WithRateLimit(rate.Limit(cfg.APIRateLimit), 1),
			api.WithRemoteLogger(logger),
		)
		primary = api.NewCached(remote, store, cfg.CacheTTL, logger)
	}
	source := api.NewSource(primary, api.WithFallback(fallback), api.WithLogger(logger))

	ctrl := controller.New(source, controller.WithPerPage(cfg.PerPage), controller.WithLogger(logger))
	app := tui.NewApp(tui.Options{
		Session:      ctrl,
		Suggester:    source,
		Categories:   catalog.DefaultCategories(),
		Debounce:     cfg.SearchDebounce,
		ScrollMargin: cfg.ScrollMargin,
		Context:      ctx,
		Logger:       logger,
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	app.SetSender(p.Send)
	cancel := ctrl.Subscribe(func(controller.State) { p.Send(tui.StateChanged{}) })
	defer cancel()

	logger.Info("storefront started", "api", cfg.APIBaseURL, "offline", *offline, "per_page", cfg.PerPage)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Fatalf("Storefront exited with error: %v", err)
	}

	if *debug {
		spew.Fdump(os.Stderr, ctrl.State())
	}
}

// newLogger writes JSON logs to path; the terminal belongs to the TUI
func newLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	var w io.Writer = io.Discard
	closeFn := func() {}
	if path != "" && path != "-" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = func() { f.Close() }
	}
	log.SetOutput(w)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), closeFn, nil
}

// newResponseStore prefers Redis and falls back to an in-process LRU
func newResponseStore(cfg config.Config) (cache.Store, func()) {
	redisClient, err := cache.NewRedisClient(cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err == nil {
		return cache.NewRedisStore(redisClient.GetClient(), api.CachePrefix), redisClient.Close
	}
	if !errors.Is(err, cache.ErrNotConfigured) {
		log.Printf("Error connecting to Redis (%v), caching responses in memory.", err)
	}
	return cache.NewMemoryStore(cfg.CacheSize, cfg.CacheTTL), func() {}
}

// newFallback builds the mock catalog: the SQL fixture store when DB_DRIVER
// is set, else a YAML fixture file, else the built-in dataset.
func newFallback(cfg config.Config, logger *slog.Logger) (api.Fetcher, func(), error) {
	if cfg.DB.Driver != "" {
		dbClient, err := database.NewClient(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		return database.NewProductStore(dbClient, logger), dbClient.Close, nil
	}
	if cfg.MockCatalogPath != "" {
		f, err := catalog.LoadFixtureFile(cfg.MockCatalogPath)
		if err != nil {
			return nil, nil, err
		}
		return catalog.New(f.Products), func() {}, nil
	}
	return catalog.Default(), func() {}, nil
}

var errOffline = errors.New("products API disabled by -offline")

// offlineFetcher always fails, so every request is served by the mock catalog
type offlineFetcher struct{}

func (offlineFetcher) MainProducts(context.Context) ([]models.Product, error) {
	return nil, errOffline
}

func (offlineFetcher) FilteredProducts(context.Context, models.Query) (models.PaginatedResult, error) {
	return models.PaginatedResult{}, errOffline
}
