package auditor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog-media/internal/auditor"
	kafka_impl "catalog-media/internal/broker/kafka"
	"catalog-media/internal/config"
	"catalog-media/internal/repository/asset"
	postgres_repo "catalog-media/internal/repository/asset/db/postgres"
	local_store "catalog-media/internal/repository/asset/storage/local"
	minio_store "catalog-media/internal/repository/asset/storage/minio"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type fileStore interface {
	Delete(ctx context.Context, path string) error
	List(ctx context.Context) ([]asset.StoredFile, error)
}

// App wires the storage auditor: database, file store and the asset event
// consumer.
type App struct {
	cfg      *config.Config
	logger   *zlog.Zerolog
	db       *dbpg.DB
	consumer *kafka_impl.ConsumerClient
	auditor  *auditor.Auditor
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

	assetRepo := postgres_repo.NewAssetsRepository(db, retries)

	store, err := newFileStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	var a *auditor.Auditor
	var consumer *kafka_impl.ConsumerClient
	if cfg.Kafka.Enabled {
		consumer = kafka_impl.NewConsumerClient(cfg)
		a = auditor.New(store, assetRepo, consumer, logger, retries, cfg.Auditor.SweepInterval, cfg.Auditor.MinFileAge)
	} else {
		a = auditor.New(store, assetRepo, nil, logger, retries, cfg.Auditor.SweepInterval, cfg.Auditor.MinFileAge)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		consumer: consumer,
		auditor:  a,
	}, nil
}

func newFileStore(cfg *config.Config, logger *zlog.Zerolog) (fileStore, error) {
	if cfg.Storage.Backend == "minio" {
		store, err := minio_store.NewFileStore(context.Background(), cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio store: %w", err)
		}
		return store, nil
	}

	store, err := local_store.NewFileStore(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create local store: %w", err)
	}
	return store, nil
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		a.logger.Info().Str("signal", sig.String()).Msg("Received signal, stopping auditor")
		cancel()
	}()

	err := a.auditor.Run(ctx)

	if a.db != nil && a.db.Master != nil {
		a.db.Master.Close()
	}
	if a.consumer != nil {
		a.consumer.Close()
	}
	return err
}
