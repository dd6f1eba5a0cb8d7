package handler

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/hrnotify/internal/logger"
)

// PreviewFunc renders every email template with sample data.
type PreviewFunc func(ctx context.Context, now time.Time) (map[string]string, error)

// PreviewHandler serves rendered template previews.
type PreviewHandler struct {
	render PreviewFunc
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(render PreviewFunc) *PreviewHandler {
	return &PreviewHandler{render: render}
}

// ListPreviews returns the template IDs that can be previewed.
func (h *PreviewHandler) ListPreviews(c *gin.Context) {
	previews, err := h.render(c.Request.Context(), time.Now())
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to render previews: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ids := make([]string, 0, len(previews))
	for id := range previews {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	c.JSON(http.StatusOK, gin.H{"templates": ids})
}

// GetPreview returns one rendered template as HTML.
func (h *PreviewHandler) GetPreview(c *gin.Context) {
	id := strings.TrimPrefix(c.Param("template"), "/")

	previews, err := h.render(c.Request.Context(), time.Now())
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to render previews: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	html, ok := previews[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown template: " + id})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
