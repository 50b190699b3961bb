package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/jaevor/go-nanoid"
)

func parsePagination(r *http.Request) (limit int, offset int) {
	limit = 100
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}

// generateUniqueID retries until the 21-char nanoid is free according to
// the exists check.
func generateUniqueID(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	maxRetries := 10

	generateID, err := nanoid.Standard(21)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	for i := 0; i < maxRetries; i++ {
		id := generateID()
		taken, err := exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check for id existence: %w", err)
		}
		if !taken {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxRetries)
}

// detectMimeType prefers the extension mapping; the client-supplied type
// is only a fallback.
func detectMimeType(filename string, clientType string) string {
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	if clientType != "" {
		return clientType
	}
	return "application/octet-stream"
}
