package crop

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestNewSessionDecodeError(t *testing.T) {
	_, err := NewSession("bad.bin", []byte("definitely not an image"), Config{})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestNewSessionEmptySource(t *testing.T) {
	_, err := NewSession("empty.png", nil, Config{})
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestSessionDisplayFitsViewport(t *testing.T) {
	s, err := NewSession("wide.png", pngBytes(t, 1280, 480), Config{
		ViewportWidth:  640,
		ViewportHeight: 480,
	})
	if err != nil {
		t.Fatal(err)
	}

	dw, dh := s.DisplaySize()
	if dw != 640 || dh != 240 {
		t.Fatalf("expected display 640x240, got %gx%g", dw, dh)
	}
	if !s.Region().Valid() {
		t.Fatal("initial region invalid")
	}
}

func TestConfirmProducesExactTargetDims(t *testing.T) {
	sources := [][2]int{{1024, 768}, {300, 200}, {2000, 2000}, {101, 733}}

	for _, src := range sources {
		s, err := NewSession("src.png", pngBytes(t, src[0], src[1]), Config{
			TargetWidth:  800,
			TargetHeight: 800,
		})
		if err != nil {
			t.Fatalf("source %v: %v", src, err)
		}

		// Shuffle the region around first; output size must not depend on
		// the on-screen crop size.
		s.Region().BeginResize(CornerSE)
		s.Region().Apply(-30, -30)
		s.Region().End()

		out, err := s.Confirm()
		if err != nil {
			t.Fatalf("source %v: confirm failed: %v", src, err)
		}
		if out.Width != 800 || out.Height != 800 {
			t.Fatalf("source %v: expected 800x800, got %dx%d", src, out.Width, out.Height)
		}

		decoded, _, err := image.Decode(bytes.NewReader(out.Data))
		if err != nil {
			t.Fatalf("source %v: output not decodable: %v", src, err)
		}
		b := decoded.Bounds()
		if b.Dx() != 800 || b.Dy() != 800 {
			t.Fatalf("source %v: encoded buffer is %dx%d", src, b.Dx(), b.Dy())
		}
	}
}

func TestWaitResolvesOnConfirm(t *testing.T) {
	s, err := NewSession("src.png", pngBytes(t, 640, 480), Config{
		TargetWidth:  400,
		TargetHeight: 400,
	})
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		if _, err := s.Confirm(); err != nil {
			t.Errorf("confirm failed: %v", err)
		}
	}()

	out, err := s.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out == nil {
		t.Fatal("expected processed image, got nil")
	}
	if out.OriginalName != "src.png" {
		t.Fatalf("expected original name kept, got %q", out.OriginalName)
	}
}

func TestWaitResolvesNilOnCancel(t *testing.T) {
	s, err := NewSession("src.png", pngBytes(t, 640, 480), Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Cancel(); err != nil {
		t.Fatal(err)
	}

	out, err := s.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		t.Fatal("cancelled session must resolve nil")
	}
}

func TestSecondResolutionFails(t *testing.T) {
	s, err := NewSession("src.png", pngBytes(t, 640, 480), Config{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Confirm(); err != nil {
		t.Fatal(err)
	}
	if err := s.Cancel(); !errors.Is(err, ErrResolved) {
		t.Fatalf("expected ErrResolved, got %v", err)
	}
	if _, err := s.Confirm(); !errors.Is(err, ErrResolved) {
		t.Fatalf("expected ErrResolved, got %v", err)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	s, err := NewSession("src.png", pngBytes(t, 640, 480), Config{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
