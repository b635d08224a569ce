package validate

import (
	"errors"
	"fmt"
	"strings"
)

// File validation errors
var (
	ErrInvalidMIMEType = errors.New("invalid MIME type")
	ErrFileTooLarge    = errors.New("file too large")
)

// Image MIME types accepted by the picture pickers.
const (
	MIMEImageJPEG = "image/jpeg"
	MIMEImagePNG  = "image/png"
	MIMEImageWebP = "image/webp"
)

// AllowedPictureTypes defines the image MIME types accepted for both the
// profile picture and the recipe picture. GIFs are deliberately excluded.
var AllowedPictureTypes = []string{
	MIMEImageJPEG,
	MIMEImagePNG,
	MIMEImageWebP,
}

// MaxProfilePicBytes is the size ceiling for profile picture uploads.
const MaxProfilePicBytes = 5 * 1024 * 1024

// FileConstraints defines validation constraints for picked files.
type FileConstraints struct {
	AllowedTypes []string // Allowed MIME types
	MaxSizeBytes int64    // Maximum file size in bytes (0 = no maximum)
}

// MIMEType validates a MIME type against allowed types.
// Returns the normalized MIME type (lowercased) and an error if invalid.
func MIMEType(mimeType string, allowedTypes []string) (string, error) {
	// Normalize: trim whitespace and lowercase
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	if mimeType == "" {
		return "", ErrEmpty
	}

	// Check if in allowed list
	for _, allowed := range allowedTypes {
		if mimeType == strings.ToLower(allowed) {
			return mimeType, nil
		}
	}

	return "", fmt.Errorf("%w: %q not in allowed types", ErrInvalidMIMEType, mimeType)
}

// FileSize validates a file size against constraints.
func FileSize(sizeBytes int64, constraints FileConstraints) error {
	if sizeBytes <= 0 {
		return errors.New("file size must be positive")
	}

	if constraints.MaxSizeBytes > 0 && sizeBytes > constraints.MaxSizeBytes {
		return fmt.Errorf("%w: got %d bytes, maximum is %d", ErrFileTooLarge, sizeBytes, constraints.MaxSizeBytes)
	}

	return nil
}

// File validates both MIME type and file size.
func File(mimeType string, sizeBytes int64, constraints FileConstraints) (string, error) {
	// Validate MIME type
	validatedType, err := MIMEType(mimeType, constraints.AllowedTypes)
	if err != nil {
		return "", err
	}

	// Validate size
	if err := FileSize(sizeBytes, constraints); err != nil {
		return "", err
	}

	return validatedType, nil
}

// ProfilePicture validates a profile picture pick: allowed image types,
// max 5 MiB.
func ProfilePicture(mimeType string, sizeBytes int64) (string, error) {
	return File(mimeType, sizeBytes, FileConstraints{
		AllowedTypes: AllowedPictureTypes,
		MaxSizeBytes: MaxProfilePicBytes,
	})
}

// RecipePicture validates a recipe picture pick. Only the MIME type is
// checked; the recipe path stores the raw data URL without a size ceiling
// or recompression, matching observed behavior.
func RecipePicture(mimeType string) (string, error) {
	return MIMEType(mimeType, AllowedPictureTypes)
}
