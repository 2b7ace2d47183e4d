package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/internal/infrastructure/storage/minio"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// DocumentStore is the slice of the object store the handler needs.
type DocumentStore interface {
	Put(ctx context.Context, appealID common.ID, stage, filename, contentType string, r io.Reader, size int64) (string, error)
	List(ctx context.Context, appealID common.ID, stage string) ([]minio.Document, error)
	PresignedGet(ctx context.Context, key string) (string, error)
}

// DocumentHandler serves the per-stage document folder endpoints.
type DocumentHandler struct {
	store  DocumentStore
	logger logging.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(store DocumentStore, log logging.Logger) *DocumentHandler {
	return &DocumentHandler{store: store, logger: log.Named("document_handler")}
}

// RegisterRoutes mounts the document routes under the given group.
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/appeals/:id/documents")
	{
		docs.POST("/:stage", h.Upload)
		docs.GET("/:stage", h.List)
	}
	rg.GET("/documents/url", h.DownloadURL)
}

// Upload stores a multipart file in the appeal's stage folder.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, h.logger, errors.InvalidParam("multipart field 'file' is required"))
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, h.logger, errors.Wrap(err, errors.ErrCodeValidation, "opening uploaded file"))
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key, err := h.store.Put(c.Request.Context(),
		common.ID(c.Param("id")), c.Param("stage"), file.Filename, contentType, src, file.Size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

// List returns the documents in the appeal's stage folder.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.store.List(c.Request.Context(), common.ID(c.Param("id")), c.Param("stage"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// DownloadURL returns a time-limited download link for a document key.
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		respondError(c, h.logger, errors.InvalidParam("query parameter 'key' is required"))
		return
	}
	u, err := h.store.PresignedGet(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u})
}
