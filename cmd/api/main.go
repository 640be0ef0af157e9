package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mapforge/internal/adapter/repo"
	"mapforge/internal/artifacts"
	"mapforge/internal/generator"
	"mapforge/internal/http/handlers"
	httpapi "mapforge/internal/http/httpapi"
	"mapforge/internal/infra"
	"mapforge/internal/infra/geoip"
	"mapforge/internal/mapgen"
	"mapforge/internal/queue"
	"mapforge/internal/storage"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	// DB pool is optional; without DATABASE_URL history recording is off.
	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	if closer, ok := resolver.(io.Closer); ok {
		defer closer.Close()
	}

	uploads, err := storage.NewFileStore(cfg.InputDirectory)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare input directory")
	}
	if err := os.MkdirAll(cfg.ArchivesDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare archives directory")
	}

	// Orchestrations run on baseCtx so an HTTP disconnect does not abort
	// a job; shutdown cancels it.
	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()

	store := queue.NewStore()
	waiter := queue.NewWaiter(store, cfg.QueuePollEvery)
	cleaner := artifacts.NewManager(cfg.ArchiveTTL, logger)
	registry := generator.NewRegistry(cfg.ArchiveTTL)

	var history *repo.GenerationRepositoryPG
	if dbpool != nil {
		history = repo.NewGenerationRepository(dbpool)
	}

	orchCfg := generator.Config{
		Store:       store,
		Waiter:      waiter,
		Engine:      mapgen.NewEngine(logger),
		Artifacts:   cleaner,
		Logger:      logger,
		Limited:     cfg.PublicMode,
		ArchivesDir: cfg.ArchivesDir,
	}
	if history != nil {
		orchCfg.History = history
	}
	orch := generator.New(orchCfg)

	app := handlers.NewApp(cfg, logger, store, registry, orch)
	app.GeoIP = resolver
	app.Uploads = uploads
	app.BaseCtx = baseCtx
	if history != nil {
		app.History = history
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	cancelBase()
	logger.Info().Msg("server stopped")
}
