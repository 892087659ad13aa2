// Package thumbnail derives fixed-dimension preview images from uploaded
// raster content. Derivation is best-effort: callers treat any error here
// as "no thumbnail", never as a failed ingestion.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// DefaultSize is the square edge length used when no size is configured.
const DefaultSize = 300

// Deriver re-encodes images into size×size cover-fit PNG thumbnails. PNG
// keeps the output deterministic for identical input bytes.
type Deriver struct {
	size int
}

func NewDeriver(size int) *Deriver {
	if size <= 0 {
		size = DefaultSize
	}
	return &Deriver{size: size}
}

// Size returns the configured target edge length.
func (d *Deriver) Size() int { return d.size }

// Derive decodes r and returns the encoded thumbnail bytes. The source
// image is cropped to a centered square and scaled, so the result always
// has the exact configured dimensions.
func (d *Deriver) Derive(r io.Reader) ([]byte, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	thumb := imaging.Fill(src, d.size, d.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// Bounds is a convenience for tests and debugging: it decodes the produced
// thumbnail and reports its dimensions.
func Bounds(thumb []byte) (image.Rectangle, error) {
	img, _, err := image.Decode(bytes.NewReader(thumb))
	if err != nil {
		return image.Rectangle{}, err
	}
	return img.Bounds(), nil
}
