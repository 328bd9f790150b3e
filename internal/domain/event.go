package domain

import "time"

// AssetEventType labels lifecycle events published after ingestion and
// removal. The auditor consumes removal events for second-chance cleanup
// of physical files whose inline deletion failed.
type AssetEventType string

const (
	EventAssetIngested AssetEventType = "asset.ingested"
	EventAssetRemoved  AssetEventType = "asset.removed"
)

type AssetEvent struct {
	Type       AssetEventType `json:"type"`
	AssetID    string         `json:"asset_id"`
	OwnerKind  ResourceKind   `json:"owner_kind"`
	OwnerID    int64          `json:"owner_id"`
	Path       string         `json:"path"`
	OccurredAt time.Time      `json:"occurred_at"`
}

const (
	KafkaTopicAssetEvents = "asset-events"
	KafkaGroupAuditor     = "asset-auditor-group"
)
