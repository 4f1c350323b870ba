package domain

// ImageSize is a poster/backdrop size variant served by the image CDN.
type ImageSize string

const (
	ImageSizeSmall    ImageSize = "w154"
	ImageSizeMedium   ImageSize = "w342"
	ImageSizeCover    ImageSize = "w500"
	ImageSizeOriginal ImageSize = "original"
)

// Width returns the pixel width of the variant (0 for original)
func (s ImageSize) Width() int {
	switch s {
	case ImageSizeSmall:
		return 154
	case ImageSizeMedium:
		return 342
	case ImageSizeCover:
		return 500
	default:
		return 0
	}
}

// Valid reports whether s is a known variant
func (s ImageSize) Valid() bool {
	switch s {
	case ImageSizeSmall, ImageSizeMedium, ImageSizeCover, ImageSizeOriginal:
		return true
	}
	return false
}

// ImageKey identifies one cached image: resource path plus size variant.
type ImageKey struct {
	Path string
	Size ImageSize
}

// String returns the disk key ("w500/abc.jpg" style, path keeps its leading slash)
func (k ImageKey) String() string {
	return string(k.Size) + k.Path
}

// Image is a decoded image ready for display.
type Image struct {
	Key    ImageKey
	Data   []byte // encoded bytes as stored on disk
	Width  int
	Height int
	Format string // "jpeg", "png", "gif", "webp"
}

// Bytes returns the memory cost of the image
func (i *Image) Bytes() int64 {
	if i == nil {
		return 0
	}
	return int64(len(i.Data))
}
