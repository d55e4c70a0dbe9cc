package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"kitchen-collab/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Signer is the slice of the store the handler needs
type Signer interface {
	SignUpload(ctx context.Context, key, contentType string) (string, error)
	PublicURL(key string) string
}

type Handler struct {
	signer Signer
}

func NewHandler(signer Signer) *Handler {
	return &Handler{signer: signer}
}

type SignUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	ProjectID   string `json:"project_id" binding:"required"`
}

// SignUpload handles POST /uploads/sign. The caller uploads directly to the
// returned URL and then confirms the upload against the project routes.
func (h *Handler) SignUpload(c *gin.Context) {
	if h.signer == nil {
		c.Error(errors.Internal(fmt.Errorf("object storage is not configured")))
		return
	}

	var form SignUploadRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	ext := strings.TrimPrefix(path.Ext(form.Filename), ".")
	if ext == "" {
		c.Error(errors.BadRequest("Filename has no extension", nil))
		return
	}

	key := fmt.Sprintf("cooking-images/%s/%s.%s", form.ProjectID, uuid.NewString(), ext)

	url, err := h.signer.SignUpload(c.Request.Context(), key, form.ContentType)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"key":        key,
		"public_url": h.signer.PublicURL(key),
	})
}
