package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "catalog-media/internal/broker/kafka"
	"catalog-media/internal/config"
	asset_h "catalog-media/internal/http-server/handler/asset"
	"catalog-media/internal/http-server/router"
	"catalog-media/internal/repository/asset"
	postgres_repo "catalog-media/internal/repository/asset/db/postgres"
	local_store "catalog-media/internal/repository/asset/storage/local"
	minio_store "catalog-media/internal/repository/asset/storage/minio"
	ingest_uc "catalog-media/internal/usecase/ingest"
	"catalog-media/migrations"

	"github.com/pressly/goose/v3"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type fileStore interface {
	Save(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
}

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.ProducerClient
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	assetRepo := postgres_repo.NewAssetsRepository(db, retries)

	store, uploadsDir, err := newFileStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	var producer *kafka_impl.ProducerClient
	ingestUsecase := ingest_uc.NewUsecase(assetRepo, store, nil, logger, retries, cfg.Upload.MaxFileSize, cfg.Storage.PublicBaseURL)
	if cfg.Kafka.Enabled {
		producer = kafka_impl.NewProducerClient(cfg)
		ingestUsecase = ingest_uc.NewUsecase(assetRepo, store, producer, logger, retries, cfg.Upload.MaxFileSize, cfg.Storage.PublicBaseURL)
	}

	assetHandler := asset_h.NewAssetHandler(ingestUsecase, logger, cfg.Upload.MaxFileSize, cfg.Upload.MaxFiles)

	h := &router.Handler{
		AssetHandler: assetHandler,
		UploadsDir:   uploadsDir,
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		db:       db,
		producer: producer,
	}, nil
}

func newFileStore(cfg *config.Config, logger *zlog.Zerolog) (fileStore, string, error) {
	switch cfg.Storage.Backend {
	case "minio":
		store, err := minio_store.NewFileStore(context.Background(), cfg, logger)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create minio store: %w", err)
		}
		return store, "", nil
	case "", "local":
		store, err := local_store.NewFileStore(cfg.Storage.Root)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create local store: %w", err)
		}
		return store, store.Root(), nil
	default:
		return nil, "", fmt.Errorf("%w: unknown storage backend %q", asset.ErrStorageError, cfg.Storage.Backend)
	}
}

func runMigrations(db *dbpg.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db.Master, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.db != nil && a.db.Master != nil {
			a.db.Master.Close()
		}

		if a.producer != nil {
			a.producer.Close()
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
