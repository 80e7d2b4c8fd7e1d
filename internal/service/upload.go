package service

import (
	"context"
	"log/slog"

	"fitcraft/internal/middleware"
	"fitcraft/internal/storage"
)

// FileUpload is an uploaded file as received from the client.
type FileUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// imageProblem returns the user-facing message for an invalid image, or "".
func imageProblem(upload *FileUpload, maxBytes int64) string {
	if upload == nil {
		return "No file was submitted."
	}
	if _, err := storage.ValidateImage(upload.Content, maxBytes); err != nil {
		return err.Error()
	}
	return ""
}

// discardBlob removes a blob whose owning row was never written or no longer references it.
func discardBlob(ctx context.Context, blobs storage.BlobStore, key string) {
	if key == "" {
		return
	}
	if err := blobs.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete blob",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
