package ingest

import (
	"context"

	"catalog-media/internal/domain"

	"github.com/wb-go/wbf/retry"
)

type assetRepository interface {
	OwnerExists(ctx context.Context, kind domain.ResourceKind, ownerID int64) (bool, error)
	Save(ctx context.Context, a *domain.Asset) error
	Delete(ctx context.Context, id string) (*domain.Asset, error)
	ListByOwner(ctx context.Context, kind domain.ResourceKind, ownerID int64) ([]domain.Asset, error)
	LinkOwnerImage(ctx context.Context, kind domain.ResourceKind, ownerID int64, path string) error
	UnlinkOwnerImage(ctx context.Context, kind domain.ResourceKind, ownerID int64, path string) error
	NextPosition(ctx context.Context, kind domain.ResourceKind, ownerID int64) (int, error)
}

type fileStore interface {
	Save(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
}

type eventProducer interface {
	SendEvent(ctx context.Context, strategy retry.Strategy, event *domain.AssetEvent) error
}
