package storage

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// Longest edge of a stored photo per RECIPE_IMAGE_QUALITY
var qualitySizes = map[string]int{
	"HIGH":   1600,
	"MEDIUM": 1024,
	"LOW":    640,
}

const (
	ThumbnailWidth  = 300
	ThumbnailHeight = 200
	jpegQuality     = 85
)

// ProcessedImage holds the encoded photo and thumbnail of an upload
type ProcessedImage struct {
	Photo     []byte
	Thumbnail []byte
}

// ProcessPhoto decodes an uploaded image, fits it to the size for quality
// and renders a cropped thumbnail. Both are JPEG encoded.
func ProcessPhoto(r io.Reader, quality string) (*ProcessedImage, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	size, ok := qualitySizes[strings.ToUpper(quality)]
	if !ok {
		size = qualitySizes["MEDIUM"]
	}
	bounds := img.Bounds()
	if bounds.Dx() > size || bounds.Dy() > size {
		img = imaging.Fit(img, size, size, imaging.Lanczos)
	}

	photo, err := encodeJPEG(img)
	if err != nil {
		return nil, err
	}
	thumb, err := encodeJPEG(imaging.Fill(img, ThumbnailWidth, ThumbnailHeight, imaging.Center, imaging.Lanczos))
	if err != nil {
		return nil, err
	}
	return &ProcessedImage{Photo: photo, Thumbnail: thumb}, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
