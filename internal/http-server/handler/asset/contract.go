package asset

import (
	"context"

	"catalog-media/internal/domain"
	"catalog-media/internal/usecase/ingest"
)

type ingestUsecase interface {
	Ingest(ctx context.Context, kind domain.ResourceKind, ownerID int64, files []domain.IncomingFile) (*ingest.Result, error)
	RemoveAsset(ctx context.Context, assetID string) error
	ListAssets(ctx context.Context, kind domain.ResourceKind, ownerID int64) ([]ingest.AssetRef, error)
}
