package camera

import (
	"fmt"
	"image"
	"os"

	// Decoders for the file-upload fallback. WebP comes up often with photos
	// exported from phones and browsers.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/chai2010/webp"
)

// LoadStill decodes a still image from disk for the upload fallback path.
// JPEG, PNG and WebP are accepted.
func LoadStill(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}
