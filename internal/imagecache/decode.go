package imagecache

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Registered decoders for the formats the CDN serves
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/mmcdole/moviedeck/internal/domain"
)

const defaultJPEGQuality = 85

// Decoder turns fetched bytes into a domain.Image.
type Decoder interface {
	Decode(key domain.ImageKey, data []byte) (*domain.Image, error)
}

// StdDecoder validates image bytes and, when the payload is wider than the
// requested size variant, downscales and re-encodes it as JPEG.
type StdDecoder struct {
	Quality int // JPEG quality 1-100 (default 85)
}

// Decode implements Decoder.
func (d StdDecoder) Decode(key domain.ImageKey, data []byte) (*domain.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	target := key.Size.Width()
	if target == 0 || cfg.Width <= target {
		return &domain.Image{Key: key, Data: data, Width: cfg.Width, Height: cfg.Height, Format: format}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	bounds := src.Bounds()
	height := bounds.Dy() * target / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, target, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	quality := d.Quality
	if quality < 1 || quality > 100 {
		quality = defaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	return &domain.Image{Key: key, Data: buf.Bytes(), Width: target, Height: height, Format: "jpeg"}, nil
}
