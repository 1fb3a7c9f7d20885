package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, ownerID, filename string, data []byte) (*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
}

// DocumentHandler exposes document intake and listing endpoints.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Upload godoc
// @Summary Upload a PDF for signing
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Success 201 {object} response.Envelope
// @Router /docs [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
		return
	}

	doc, err := h.service.Upload(c.Request.Context(), claims.UserID, fileHeader.Filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Get godoc
// @Summary Fetch one document's metadata
// @Tags Documents
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} response.Envelope
// @Router /docs/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, doc)
}

// List godoc
// @Summary List the caller's documents
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /docs [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	docs, err := h.service.ListByOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, docs)
}
