package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is the quality used when re-encoding pages.
const JPEGQuality = 90

// Encoded is a page normalised to JPEG.
type Encoded struct {
	// Base64 is the standard base64 encoding of the JPEG bytes.
	Base64 string
	Width  int
	Height int
}

// EncodeJPEG decodes any supported image (JPEG, PNG, GIF, WebP), applies its
// EXIF orientation and re-encodes it as JPEG.
func EncodeJPEG(data []byte) (Encoded, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Encoded{}, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return Encoded{}, fmt.Errorf("encode jpeg: %w", err)
	}

	b := img.Bounds()
	return Encoded{
		Base64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Dimensions reads the size of an encoded image without decoding its pixels.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
