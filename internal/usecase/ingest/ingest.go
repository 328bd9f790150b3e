package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-media/internal/domain"
	repoasset "catalog-media/internal/repository/asset"
	"catalog-media/internal/transcode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// AssetRef is what the client gets back for each accepted file.
type AssetRef struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
}

// Result reconciles an ingestion batch: every file ends up either in
// Accepted or named in Errors.
type Result struct {
	Accepted []AssetRef
	Errors   []string
}

// Usecase re-validates, transcodes and stores incoming image batches and
// links the survivors to their owning catalog record. Client-side
// validation is never trusted: type and size are re-checked against the
// actual bytes here.
type Usecase struct {
	repo        assetRepository
	store       fileStore
	producer    eventProducer
	logger      *zlog.Zerolog
	retries     retry.Strategy
	maxFileSize int64
	baseURL     string
}

func NewUsecase(repo assetRepository, store fileStore, producer eventProducer, logger *zlog.Zerolog, retries retry.Strategy, maxFileSize int64, baseURL string) *Usecase {
	if maxFileSize <= 0 {
		maxFileSize = domain.DefaultMaxFileSize
	}
	return &Usecase{
		repo:        repo,
		store:       store,
		producer:    producer,
		logger:      logger,
		retries:     retries,
		maxFileSize: maxFileSize,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
	}
}

// Ingest processes one batch for one owner. The owner must exist before any
// file I/O happens; after that, each file fails or succeeds independently
// and a single failure never aborts the batch. The owning record is linked
// only when at least one file succeeded.
func (u *Usecase) Ingest(ctx context.Context, kind domain.ResourceKind, ownerID int64, files []domain.IncomingFile) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	exists, err := u.repo.OwnerExists(ctx, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check owner: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s %d", ErrOwnerNotFound, kind, ownerID)
	}

	basePos, err := u.repo.NextPosition(ctx, kind, ownerID)
	if err != nil {
		u.logger.Warn().Err(err).Str("kind", string(kind)).Int64("owner_id", ownerID).Msg("Failed to query next position, starting at 0")
		basePos = 0
	}

	target := domain.TargetFor(kind)
	result := &Result{}
	var stored []*domain.Asset

	for seq, f := range files {
		a, err := u.ingestOne(ctx, kind, ownerID, f, seq, basePos+len(stored), target)
		if err != nil {
			u.logger.Warn().
				Err(err).
				Str("kind", string(kind)).
				Int64("owner_id", ownerID).
				Str("filename", f.Name).
				Msg("File rejected")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		stored = append(stored, a)
	}

	if len(stored) == 0 {
		return result, nil
	}

	for _, a := range stored {
		if err := u.repo.Save(ctx, a); err != nil {
			u.logger.Error().Err(err).Str("path", a.Path).Msg("Failed to save asset row, dropping file")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", a.OriginalName, err))
			if delErr := u.store.Delete(ctx, a.Path); delErr != nil {
				u.logger.Warn().Err(delErr).Str("path", a.Path).Msg("Failed to clean up unlinked file")
			}
			continue
		}

		result.Accepted = append(result.Accepted, AssetRef{
			ID:           a.ID,
			URL:          u.publicURL(a.Path),
			OriginalName: a.OriginalName,
		})
		u.publish(ctx, domain.EventAssetIngested, a)
	}

	if len(result.Accepted) == 0 {
		return result, nil
	}

	if !kind.MultiImage() {
		first := result.Accepted[0]
		if err := u.repo.LinkOwnerImage(ctx, kind, ownerID, u.pathOf(stored, first.ID)); err != nil {
			u.logger.Error().Err(err).Str("kind", string(kind)).Int64("owner_id", ownerID).Msg("Failed to link owner image")
		}
	}

	u.logger.Info().
		Str("kind", string(kind)).
		Int64("owner_id", ownerID).
		Int("accepted", len(result.Accepted)).
		Int("rejected", len(result.Errors)).
		Msg("Ingestion completed")
	return result, nil
}

func (u *Usecase) ingestOne(ctx context.Context, kind domain.ResourceKind, ownerID int64, f domain.IncomingFile, seq, position int, target domain.TargetSize) (*domain.Asset, error) {
	if int64(len(f.Data)) > u.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(f.Data), u.maxFileSize)
	}

	mt := mimetype.Detect(f.Data)
	if !domain.AllowedMIMETypes[mt.String()] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	img, err := transcode.Decode(f.Data)
	if err != nil {
		return nil, err
	}

	encoded, err := transcode.EncodeJPEG(transcode.Cover(img, target.Width, target.Height))
	if err != nil {
		return nil, err
	}

	path := assetPath(kind, ownerID, seq)
	if err := u.store.Save(ctx, path, encoded); err != nil {
		return nil, err
	}

	return &domain.Asset{
		ID:           uuid.New().String(),
		OwnerKind:    kind,
		OwnerID:      ownerID,
		Path:         path,
		OriginalName: f.Name,
		Size:         int64(len(encoded)),
		Position:     position,
		CreatedAt:    time.Now(),
	}, nil
}

// RemoveAsset deletes the relational row first, then attempts to delete the
// physical file. File deletion failure is logged and swallowed: the row is
// the source of truth and a dangling file is picked up by the storage
// auditor.
func (u *Usecase) RemoveAsset(ctx context.Context, assetID string) error {
	a, err := u.repo.Delete(ctx, assetID)
	if err != nil {
		if errors.Is(err, repoasset.ErrAssetNotFound) {
			return ErrAssetNotFound
		}
		return fmt.Errorf("failed to delete asset row: %w", err)
	}

	if err := u.repo.UnlinkOwnerImage(ctx, a.OwnerKind, a.OwnerID, a.Path); err != nil {
		u.logger.Warn().Err(err).Str("asset_id", assetID).Msg("Failed to clear owner image reference")
	}

	if err := u.store.Delete(ctx, a.Path); err != nil {
		u.logger.Warn().Err(err).Str("asset_id", assetID).Str("path", a.Path).Msg("Failed to delete physical file, leaving for audit")
	}

	u.publish(ctx, domain.EventAssetRemoved, a)

	u.logger.Info().Str("asset_id", assetID).Str("path", a.Path).Msg("Asset removed")
	return nil
}

// ListAssets returns the owner's linked assets with resolvable URLs.
func (u *Usecase) ListAssets(ctx context.Context, kind domain.ResourceKind, ownerID int64) ([]AssetRef, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}

	exists, err := u.repo.OwnerExists(ctx, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check owner: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s %d", ErrOwnerNotFound, kind, ownerID)
	}

	assets, err := u.repo.ListByOwner(ctx, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	refs := make([]AssetRef, 0, len(assets))
	for _, a := range assets {
		refs = append(refs, AssetRef{
			ID:           a.ID,
			URL:          u.publicURL(a.Path),
			OriginalName: a.OriginalName,
		})
	}
	return refs, nil
}

func (u *Usecase) publish(ctx context.Context, typ domain.AssetEventType, a *domain.Asset) {
	if u.producer == nil {
		return
	}
	event := &domain.AssetEvent{
		Type:       typ,
		AssetID:    a.ID,
		OwnerKind:  a.OwnerKind,
		OwnerID:    a.OwnerID,
		Path:       a.Path,
		OccurredAt: time.Now(),
	}
	if err := u.producer.SendEvent(ctx, u.retries, event); err != nil {
		u.logger.Warn().Err(err).Str("asset_id", a.ID).Str("type", string(typ)).Msg("Failed to publish asset event")
	}
}

func (u *Usecase) publicURL(path string) string {
	return u.baseURL + "/" + path
}

func (u *Usecase) pathOf(assets []*domain.Asset, id string) string {
	for _, a := range assets {
		if a.ID == id {
			return a.Path
		}
	}
	return ""
}

// assetPath builds the collision-free storage path:
// {kind dir}/{kind}_{ownerID}_{seq}_{unixMillis}_{token}.jpg. Uniqueness is
// probabilistic via the timestamp and random token; no directory lock is
// taken.
func assetPath(kind domain.ResourceKind, ownerID int64, seq int) string {
	token := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("%s/%s_%d_%d_%d_%s.%s",
		kind.OwnerTable(), kind, ownerID, seq, time.Now().UnixMilli(), token, domain.CanonicalExt)
}
