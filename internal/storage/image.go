package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

var (
	ErrEmptyImage   = errors.New("The submitted file is empty.")
	ErrInvalidImage = errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
)

// ImageInfo describes a decoded image header.
type ImageInfo struct {
	Format      string
	ContentType string
	Width       int
	Height      int
}

// ValidateImage checks that content is a supported image no larger than maxBytes.
// maxBytes <= 0 disables the size check.
func ValidateImage(content []byte, maxBytes int64) (*ImageInfo, error) {
	if len(content) == 0 {
		return nil, ErrEmptyImage
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, fmt.Errorf("File too large (max %dMB).", maxBytes/(1024*1024))
	}

	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, ErrInvalidImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrInvalidImage
	}

	return &ImageInfo{
		Format:      format,
		ContentType: formatToMIME(format),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func formatToMIME(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
