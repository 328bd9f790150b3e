package crop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"sync"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultViewportWidth  = 640
	DefaultViewportHeight = 480
)

// Config describes one editing session: the viewport the source is displayed
// in, the canonical output geometry, and the JPEG quality of the committed
// buffer.
type Config struct {
	ViewportWidth  float64
	ViewportHeight float64
	TargetWidth    int
	TargetHeight   int
	Quality        int
}

func (c *Config) applyDefaults() {
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = DefaultViewportWidth
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = DefaultViewportHeight
	}
	if c.TargetWidth <= 0 {
		c.TargetWidth = 800
	}
	if c.TargetHeight <= 0 {
		c.TargetHeight = 800
	}
	if c.Quality <= 0 {
		c.Quality = 85
	}
}

// ProcessedImage is the committed output of a session: a canonical-format
// buffer at exactly the configured target dimensions.
type ProcessedImage struct {
	Data         []byte
	OriginalName string
	Size         int64
	Width        int
	Height       int
}

// Session is an interactive crop over one source image. It has two states:
// awaiting input and resolved. Confirm and Cancel resolve it exactly once;
// Wait blocks the caller until then. Gestures mutate the embedded region
// while the session is awaiting input.
type Session struct {
	cfg    Config
	name   string
	src    image.Image
	scale  float64
	region *Region

	mu       sync.Mutex
	resolved bool
	done     chan *ProcessedImage
}

// NewSession decodes the source, computes the display scale that fits the
// viewport while preserving the source's native aspect ratio, and centers a
// region at the target aspect ratio over the displayed image.
func NewSession(name string, data []byte, cfg Config) (*Session, error) {
	if len(data) == 0 {
		return nil, ErrNoSource
	}
	cfg.applyDefaults()

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := src.Bounds()
	srcW, srcH := float64(b.Dx()), float64(b.Dy())
	scale := math.Min(cfg.ViewportWidth/srcW, cfg.ViewportHeight/srcH)

	dispW := srcW * scale
	dispH := srcH * scale
	aspect := float64(cfg.TargetWidth) / float64(cfg.TargetHeight)

	return &Session{
		cfg:    cfg,
		name:   name,
		src:    src,
		scale:  scale,
		region: NewRegion(dispW, dispH, aspect),
		done:   make(chan *ProcessedImage, 1),
	}, nil
}

// Region exposes the session's crop region for gesture input.
func (s *Session) Region() *Region { return s.region }

// DisplaySize returns the dimensions of the scaled source as shown in the
// viewport.
func (s *Session) DisplaySize() (float64, float64) {
	b := s.src.Bounds()
	return float64(b.Dx()) * s.scale, float64(b.Dy()) * s.scale
}

// Confirm maps the region from display to source coordinates, remaps that
// rectangle onto the canonical target canvas and encodes it. The session
// resolves with the result.
func (s *Session) Confirm() (*ProcessedImage, error) {
	s.mu.Lock()
	if s.resolved {
		s.mu.Unlock()
		return nil, ErrResolved
	}
	s.resolved = true
	s.mu.Unlock()

	out, err := s.render()
	if err != nil {
		// Resolve as cancelled so a waiting caller is not stuck.
		s.done <- nil
		return nil, err
	}
	s.done <- out
	return out, nil
}

// Cancel resolves the session with no output.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return ErrResolved
	}
	s.resolved = true
	s.done <- nil
	return nil
}

// Wait blocks until the session resolves. A confirmed session yields the
// processed image; a cancelled one yields nil, nil.
func (s *Session) Wait(ctx context.Context) (*ProcessedImage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-s.done:
		return out, nil
	}
}

// render performs the pure geometric remap: region -> source pixels ->
// target canvas. No crop policy lives in the encoder.
func (s *Session) render() (*ProcessedImage, error) {
	rc := s.region.Rect()
	b := s.src.Bounds()

	srcRect := image.Rect(
		b.Min.X+int(math.Round(rc.X/s.scale)),
		b.Min.Y+int(math.Round(rc.Y/s.scale)),
		b.Min.X+int(math.Round((rc.X+rc.W)/s.scale)),
		b.Min.Y+int(math.Round((rc.Y+rc.H)/s.scale)),
	)
	srcRect = srcRect.Intersect(b)
	if srcRect.Empty() {
		return nil, fmt.Errorf("crop region maps outside the source image")
	}

	dst := image.NewRGBA(image.Rect(0, 0, s.cfg.TargetWidth, s.cfg.TargetHeight))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), s.src, srcRect, xdraw.Src, nil)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, dst, &jpeg.Options{Quality: s.cfg.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &ProcessedImage{
		Data:         buf.Bytes(),
		OriginalName: s.name,
		Size:         int64(buf.Len()),
		Width:        s.cfg.TargetWidth,
		Height:       s.cfg.TargetHeight,
	}, nil
}
