package classify

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrUnsupportedImage is returned for payloads that are not JPEG, PNG or GIF
var ErrUnsupportedImage = errors.New("unsupported image")

// Image is a validated upload
type Image struct {
	Data   []byte
	Format string // jpeg, png or gif
	Width  int
	Height int
}

// DecodeImage validates data as a JPEG, PNG or GIF image without decoding pixels
func DecodeImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty payload", ErrUnsupportedImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, fmt.Errorf("%w: zero-sized %s", ErrUnsupportedImage, format)
	}

	return Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// MediaType returns the MIME type for the image format
func (i Image) MediaType() string {
	return "image/" + i.Format
}

// Base64 returns the standard base64 encoding of the image bytes
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI returns the image as a data: URI
func (i Image) DataURI() string {
	return "data:" + i.MediaType() + ";base64," + i.Base64()
}
