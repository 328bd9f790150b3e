package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"catalog-media/internal/repository/asset"
)

func TestSaveAndDelete(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	path := "brands/brand_5_0_1_ab.jpg"
	if err := s.Save(ctx, path, []byte("payload")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), "brands", "brand_5_0_1_ab.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := s.Delete(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, path); !errors.Is(err, asset.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound on second delete, got %v", err)
	}
}

func TestSaveRefusesExistingPath(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	path := "products/product_1_0_1_ab.jpg"
	if err := s.Save(ctx, path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, path, []byte("second")); err == nil {
		t.Fatal("a stored path must never be overwritten")
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), filepath.FromSlash(path)))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first" {
		t.Fatalf("original content clobbered: %q", data)
	}
}

func TestSaveRejectsTraversal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, p := range []string{"../escape.jpg", "/etc/passwd", "a/../../b.jpg", "."} {
		if err := s.Save(ctx, p, []byte("x")); err == nil {
			t.Errorf("path %q must be rejected", p)
		}
	}
}

func TestListReturnsRelativePaths(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	want := map[string]bool{
		"brands/brand_1_0_1_aa.jpg":     true,
		"products/product_2_0_1_bb.jpg": true,
	}
	for p := range want {
		if err := s.Save(ctx, p, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	files, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d", len(want), len(files))
	}
	for _, f := range files {
		if !want[f.Path] {
			t.Errorf("unexpected path %q", f.Path)
		}
		if f.Size != 1 {
			t.Errorf("%s: expected size 1, got %d", f.Path, f.Size)
		}
		if f.ModTime.IsZero() {
			t.Errorf("%s: missing mod time", f.Path)
		}
	}
}
