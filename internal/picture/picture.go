// Package picture converts picked image files to data URLs and downsizes
// profile pictures before upload.
package picture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/h2non/bimg"
)

// Data URL errors.
var (
	ErrNotDataURL   = errors.New("not a data URL")
	ErrInvalidB64   = errors.New("invalid base64 payload")
	ErrDecodeFailed = errors.New("failed to decode image")
)

const dataURLPrefix = "data:"

// CompressOptions control the profile-picture downscale pipeline.
type CompressOptions struct {
	// MaxDimension caps both width and height, preserving aspect ratio.
	MaxDimension int
	// Quality is the JPEG quality (1-100).
	Quality int
}

// DefaultCompressOptions cap profile pictures at 512px on the longest side,
// re-encoded as JPEG at quality 85.
func DefaultCompressOptions() CompressOptions {
	return CompressOptions{
		MaxDimension: 512,
		Quality:      85,
	}
}

// ToDataURL encodes raw image bytes as a data URL with the given MIME type.
func ToDataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// ParseDataURL splits a data URL into its MIME type and decoded bytes.
func ParseDataURL(dataURL string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return "", nil, ErrNotDataURL
	}
	rest := dataURL[len(dataURLPrefix):]

	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, ErrNotDataURL
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrNotDataURL
	}
	mimeType = strings.TrimSuffix(meta, ";base64")

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidB64, err)
	}
	return mimeType, data, nil
}

// Compress downsizes the image in a data URL so that neither dimension
// exceeds opts.MaxDimension (aspect ratio preserved; images already within
// bounds are not upscaled) and re-encodes it as JPEG at opts.Quality.
// Returns a new JPEG data URL.
func Compress(dataURL string, opts CompressOptions) (string, error) {
	_, data, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}

	img := bimg.NewImage(data)
	metadata, err := img.Metadata()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	options := bimg.Options{
		Quality:       opts.Quality,
		Type:          bimg.JPEG,
		StripMetadata: true,
	}

	// Scale down the longest side only; never upscale.
	width := metadata.Size.Width
	height := metadata.Size.Height
	if opts.MaxDimension > 0 && (width > opts.MaxDimension || height > opts.MaxDimension) {
		if width >= height {
			options.Width = opts.MaxDimension
		} else {
			options.Height = opts.MaxDimension
		}
	}

	out, err := img.Process(options)
	if err != nil {
		return "", fmt.Errorf("failed to process image: %w", err)
	}

	return ToDataURL("image/jpeg", out), nil
}
