// Package transcode normalizes raster images to the canonical lossy format.
// It is pure geometry and encoding; which region of an image survives is
// decided by the callers.
package transcode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const Quality = 85

// Decode reads any accepted raster format, honoring EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Cover scales img to fill exactly width x height, cropping the overflow of
// the longer dimension around the center.
func Cover(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	targetRatio := float64(width) / float64(height)
	srcRatio := float64(srcW) / float64(srcH)

	cropW, cropH := srcW, srcH
	if srcRatio > targetRatio {
		cropW = int(float64(srcH) * targetRatio)
	} else {
		cropH = int(float64(srcW) / targetRatio)
	}

	x0 := b.Min.X + (srcW-cropW)/2
	y0 := b.Min.Y + (srcH-cropH)/2
	srcRect := image.Rect(x0, y0, x0+cropW, y0+cropH)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, srcRect, xdraw.Src, nil)
	return dst
}

// Fit bounds img to maxWidth x maxHeight preserving its aspect ratio. Images
// already inside the bounds are returned unchanged; Fit never upscales.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}

// EncodeJPEG writes img in the canonical lossy format at the fixed quality
// factor.
func EncodeJPEG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
