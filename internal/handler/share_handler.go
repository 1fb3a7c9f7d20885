package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/signetflow/signet-api/internal/dto"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/response"
)

type shareService interface {
	Share(ctx context.Context, req *dto.ShareRequest) error
}

// ShareHandler emails signed-document links.
type ShareHandler struct {
	service shareService
}

// NewShareHandler constructs the handler.
func NewShareHandler(service shareService) *ShareHandler {
	return &ShareHandler{service: service}
}

// Share godoc
// @Summary Email a signed document link
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.ShareRequest true "Recipient"
// @Success 200 {object} response.Envelope
// @Router /share [post]
func (h *ShareHandler) Share(c *gin.Context) {
	var req dto.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid share payload"))
		return
	}
	if err := h.service.Share(c.Request.Context(), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"shared": true})
}
