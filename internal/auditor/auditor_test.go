package auditor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"catalog-media/internal/domain"
	"catalog-media/internal/repository/asset"

	kafka "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type fakeStore struct {
	files   []asset.StoredFile
	deleted []string
	delErr  error
}

func (s *fakeStore) Delete(ctx context.Context, path string) error {
	s.deleted = append(s.deleted, path)
	return s.delErr
}

func (s *fakeStore) List(ctx context.Context) ([]asset.StoredFile, error) {
	return s.files, nil
}

type fakeRepo struct {
	paths []string
}

func (r *fakeRepo) ListPaths(ctx context.Context) ([]string, error) {
	return r.paths, nil
}

type fakeConsumer struct {
	committed []kafka.Message
}

func (c *fakeConsumer) StartConsuming(ctx context.Context, out chan<- kafka.Message, strategy retry.Strategy) {
}

func (c *fakeConsumer) Commit(ctx context.Context, msg kafka.Message) error {
	c.committed = append(c.committed, msg)
	return nil
}

func newTestAuditor(store *fakeStore, repo *fakeRepo, consumer *fakeConsumer) *Auditor {
	zlog.Init()
	if consumer == nil {
		return New(store, repo, nil, &zlog.Logger, retry.Strategy{Attempts: 1}, time.Hour, time.Hour)
	}
	return New(store, repo, consumer, &zlog.Logger, retry.Strategy{Attempts: 1}, time.Hour, time.Hour)
}

func TestSweepRemovesOldOrphans(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	young := time.Now().Add(-time.Minute)

	store := &fakeStore{files: []asset.StoredFile{
		{Path: "products/product_1_0_1_aa.jpg", ModTime: old},   // referenced
		{Path: "products/product_1_1_2_bb.jpg", ModTime: old},   // orphan, old
		{Path: "products/product_1_2_3_cc.jpg", ModTime: young}, // orphan, in-flight
	}}
	repo := &fakeRepo{paths: []string{"products/product_1_0_1_aa.jpg"}}
	a := newTestAuditor(store, repo, nil)

	if err := a.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(store.deleted) != 1 || store.deleted[0] != "products/product_1_1_2_bb.jpg" {
		t.Fatalf("expected exactly the old orphan deleted, got %v", store.deleted)
	}
}

func TestSweepSkipsWhenNothingOrphaned(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	store := &fakeStore{files: []asset.StoredFile{
		{Path: "brands/brand_1_0_1_aa.jpg", ModTime: old},
	}}
	repo := &fakeRepo{paths: []string{"brands/brand_1_0_1_aa.jpg"}}
	a := newTestAuditor(store, repo, nil)

	if err := a.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("referenced files must survive the sweep, deleted: %v", store.deleted)
	}
}

func TestHandleMessageDeletesRemovedAssetFile(t *testing.T) {
	store := &fakeStore{}
	consumer := &fakeConsumer{}
	a := newTestAuditor(store, &fakeRepo{}, consumer)

	event := domain.AssetEvent{
		Type: domain.EventAssetRemoved,
		Path: "banners/banner_3_0_1_dd.jpg",
	}
	value, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}

	a.handleMessage(context.Background(), kafka.Message{Value: value})

	if len(store.deleted) != 1 || store.deleted[0] != event.Path {
		t.Fatalf("expected file deletion for %q, got %v", event.Path, store.deleted)
	}
	if len(consumer.committed) != 1 {
		t.Fatal("message must be committed after handling")
	}
}

func TestHandleMessageToleratesMissingFile(t *testing.T) {
	store := &fakeStore{delErr: asset.ErrFileNotFound}
	consumer := &fakeConsumer{}
	a := newTestAuditor(store, &fakeRepo{}, consumer)

	value, _ := json.Marshal(domain.AssetEvent{
		Type: domain.EventAssetRemoved,
		Path: "banners/banner_3_0_1_dd.jpg",
	})
	a.handleMessage(context.Background(), kafka.Message{Value: value})

	if len(consumer.committed) != 1 {
		t.Fatal("an already-deleted file must still commit the message")
	}
}

func TestHandleMessageIgnoresIngestEvents(t *testing.T) {
	store := &fakeStore{}
	consumer := &fakeConsumer{}
	a := newTestAuditor(store, &fakeRepo{}, consumer)

	value, _ := json.Marshal(domain.AssetEvent{
		Type: domain.EventAssetIngested,
		Path: "products/product_1_0_1_aa.jpg",
	})
	a.handleMessage(context.Background(), kafka.Message{Value: value})

	if len(store.deleted) != 0 {
		t.Fatalf("ingest events must not delete files, deleted: %v", store.deleted)
	}
	if len(consumer.committed) != 1 {
		t.Fatal("message must be committed")
	}
}

func TestHandleMessageSkipsMalformedPayload(t *testing.T) {
	store := &fakeStore{}
	consumer := &fakeConsumer{}
	a := newTestAuditor(store, &fakeRepo{}, consumer)

	a.handleMessage(context.Background(), kafka.Message{Value: []byte("{broken")})

	if len(store.deleted) != 0 {
		t.Fatal("malformed payload must not trigger deletions")
	}
	if len(consumer.committed) != 1 {
		t.Fatal("malformed messages are committed to avoid poison loops")
	}
}
