// Package auditor reconciles durable storage with the assets table. The row
// is the source of truth: files whose inline deletion failed, or that lost
// their row some other way, are swept here instead of failing requests.
package auditor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"catalog-media/internal/domain"
	"catalog-media/internal/repository/asset"

	kafka "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type fileStore interface {
	Delete(ctx context.Context, path string) error
	List(ctx context.Context) ([]asset.StoredFile, error)
}

type assetRepository interface {
	ListPaths(ctx context.Context) ([]string, error)
}

type eventConsumer interface {
	StartConsuming(ctx context.Context, out chan<- kafka.Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg kafka.Message) error
}

type Auditor struct {
	store    fileStore
	repo     assetRepository
	consumer eventConsumer
	logger   *zlog.Zerolog
	retries  retry.Strategy

	sweepInterval time.Duration
	minFileAge    time.Duration
}

func New(store fileStore, repo assetRepository, consumer eventConsumer, logger *zlog.Zerolog, retries retry.Strategy, sweepInterval, minFileAge time.Duration) *Auditor {
	return &Auditor{
		store:         store,
		repo:          repo,
		consumer:      consumer,
		logger:        logger,
		retries:       retries,
		sweepInterval: sweepInterval,
		minFileAge:    minFileAge,
	}
}

// Run consumes removal events for second-chance file deletion and sweeps
// the whole store on an interval. It returns when the context is cancelled.
func (a *Auditor) Run(ctx context.Context) error {
	messages := make(chan kafka.Message, 16)
	if a.consumer != nil {
		go a.consumer.StartConsuming(ctx, messages, a.retries)
	}

	ticker := time.NewTicker(a.sweepInterval)
	defer ticker.Stop()

	a.logger.Info().Dur("sweep_interval", a.sweepInterval).Msg("Auditor started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Auditor stopped")
			return nil
		case msg := <-messages:
			a.handleMessage(ctx, msg)
		case <-ticker.C:
			if err := a.Sweep(ctx); err != nil {
				a.logger.Error().Err(err).Msg("Sweep failed")
			}
		}
	}
}

func (a *Auditor) handleMessage(ctx context.Context, msg kafka.Message) {
	var event domain.AssetEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to unmarshal asset event, skipping")
		a.commit(ctx, msg)
		return
	}

	if event.Type == domain.EventAssetRemoved {
		err := a.store.Delete(ctx, event.Path)
		switch {
		case err == nil:
			a.logger.Info().Str("path", event.Path).Msg("Removed file for deleted asset")
		case errors.Is(err, asset.ErrFileNotFound):
			// Already gone, inline deletion succeeded.
		default:
			a.logger.Warn().Err(err).Str("path", event.Path).Msg("Deferred file deletion failed, sweep will retry")
		}
	}

	a.commit(ctx, msg)
}

func (a *Auditor) commit(ctx context.Context, msg kafka.Message) {
	if err := a.consumer.Commit(ctx, msg); err != nil {
		a.logger.Error().Err(err).Msg("Failed to commit message")
	}
}

// Sweep deletes stored files that no asset row references. Files younger
// than minFileAge are skipped so an in-flight ingestion cannot lose its
// file between the storage write and the row insert.
func (a *Auditor) Sweep(ctx context.Context) error {
	paths, err := a.repo.ListPaths(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(paths))
	for _, p := range paths {
		known[p] = true
	}

	files, err := a.store.List(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-a.minFileAge)
	removed := 0
	for _, f := range files {
		if known[f.Path] || f.ModTime.After(cutoff) {
			continue
		}
		if err := a.store.Delete(ctx, f.Path); err != nil {
			a.logger.Warn().Err(err).Str("path", f.Path).Msg("Failed to delete orphaned file")
			continue
		}
		removed++
		a.logger.Info().Str("path", f.Path).Msg("Deleted orphaned file")
	}

	a.logger.Info().Int("files", len(files)).Int("orphans_removed", removed).Msg("Sweep completed")
	return nil
}
