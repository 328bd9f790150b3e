package domain

import "time"

// ResourceKind identifies which catalog record an image asset belongs to.
// Each kind is normalized to its own canonical target size on ingestion.
type ResourceKind string

const (
	KindProduct  ResourceKind = "product"
	KindBrand    ResourceKind = "brand"
	KindCategory ResourceKind = "category"
	KindBanner   ResourceKind = "banner"
)

// TargetSize is the canonical output geometry for a resource kind.
type TargetSize struct {
	Width  int
	Height int
}

func (t TargetSize) AspectRatio() float64 {
	return float64(t.Width) / float64(t.Height)
}

var kindTargets = map[ResourceKind]TargetSize{
	KindProduct:  {Width: 800, Height: 800},
	KindBrand:    {Width: 400, Height: 400},
	KindCategory: {Width: 400, Height: 400},
	KindBanner:   {Width: 1200, Height: 400},
}

// TargetFor returns the canonical dimensions for kind, defaulting to the
// product size for unknown kinds.
func TargetFor(kind ResourceKind) TargetSize {
	if t, ok := kindTargets[kind]; ok {
		return t
	}
	return kindTargets[KindProduct]
}

func (k ResourceKind) Valid() bool {
	_, ok := kindTargets[k]
	return ok
}

// MultiImage reports whether the kind links many assets per owner through
// the assets table alone (products) or mirrors a single path on the owner row.
func (k ResourceKind) MultiImage() bool {
	return k == KindProduct
}

// OwnerTable returns the relational table holding records of this kind.
func (k ResourceKind) OwnerTable() string {
	switch k {
	case KindProduct:
		return "products"
	case KindBrand:
		return "brands"
	case KindCategory:
		return "categories"
	case KindBanner:
		return "banners"
	}
	return ""
}

// ImageColumn returns the owner-row column mirroring the first linked asset
// path for single-image kinds, or "" for multi-image kinds.
func (k ResourceKind) ImageColumn() string {
	switch k {
	case KindBrand, KindCategory:
		return "logo_path"
	case KindBanner:
		return "image_path"
	}
	return ""
}

// Asset is a durably stored, canonically encoded image plus its linkage to
// an owning catalog record. Path is relative to the storage root and never
// reused for a new file.
type Asset struct {
	ID           string
	OwnerKind    ResourceKind
	OwnerID      int64
	Path         string
	OriginalName string
	Size         int64
	Position     int
	CreatedAt    time.Time
}

// IncomingFile is one file of an ingestion batch as received over the
// network boundary. ContentType is the client's claim and is re-validated
// against the actual bytes before any processing.
type IncomingFile struct {
	Name        string
	ContentType string
	Data        []byte
}

const (
	// CanonicalExt is the extension of the single lossy format every
	// ingested image is normalized to.
	CanonicalExt = "jpg"

	DefaultJPEGQuality = 85
	DefaultMaxFileSize = 10 << 20
)

// AllowedMIMETypes are the raster photo formats accepted for ingestion.
var AllowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}
