package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"lextutor-backend/storage"

	"github.com/gin-gonic/gin"
)

// ArtifactStore reads and removes captured scraping artifacts
type ArtifactStore interface {
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// ArtifactHandler serves diagnostic artifacts such as no-results screenshots
type ArtifactHandler struct {
	store ArtifactStore
}

// NewArtifactHandler creates a new artifact handler
func NewArtifactHandler(store ArtifactStore) *ArtifactHandler {
	return &ArtifactHandler{store: store}
}

// GetArtifact handles GET /api/artifacts/*path
func (h *ArtifactHandler) GetArtifact(c *gin.Context) {
	storagePath, ok := artifactParam(c)
	if !ok {
		return
	}

	body, err := h.store.Download(c.Request.Context(), storagePath)
	if err != nil {
		respondArtifactError(c, err, "DOWNLOAD_FAILED")
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, storage.ContentType(storagePath), body, nil)
}

// DeleteArtifact handles DELETE /api/artifacts/*path
func (h *ArtifactHandler) DeleteArtifact(c *gin.Context) {
	storagePath, ok := artifactParam(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), storagePath); err != nil {
		respondArtifactError(c, err, "DELETE_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"path": storagePath},
	})
}

func artifactParam(c *gin.Context) (string, bool) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")
	if storagePath == "" {
		respondError(c, http.StatusBadRequest, "INVALID_PATH", "artifact path is required")
		return "", false
	}
	return storagePath, true
}

func respondArtifactError(c *gin.Context, err error, code string) {
	switch {
	case errors.Is(err, storage.ErrArtifactNotFound):
		respondError(c, http.StatusNotFound, "ARTIFACT_NOT_FOUND", err.Error())
	case errors.Is(err, storage.ErrInvalidPath):
		respondError(c, http.StatusBadRequest, "INVALID_PATH", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, code, err.Error())
	}
}
