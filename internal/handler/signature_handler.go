package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/signetflow/signet-api/internal/dto"
	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/export"
	"github.com/signetflow/signet-api/pkg/pdfkit"
	"github.com/signetflow/signet-api/pkg/response"
)

type placementService interface {
	Place(ctx context.Context, req dto.PlaceSignatureRequest, signerID, ipAddress string) (*dto.PlacementResult, error)
}

type finalizeService interface {
	Finalize(ctx context.Context, fileID string) (*dto.FinalizeResult, error)
}

type lifecycleService interface {
	Accept(ctx context.Context, signatureID string) (*models.Signature, error)
	Reject(ctx context.Context, signatureID, reason string) (*models.Signature, error)
	Remove(ctx context.Context, signatureID, requesterID string) error
	ClearAll(ctx context.Context, fileID, requesterID string) (int64, error)
	PendingForFile(ctx context.Context, fileID string) ([]models.Signature, error)
	AuditTrail(ctx context.Context, fileID string) ([]models.AuditEntry, error)
}

// SignatureHandler exposes placement, finalization and lifecycle endpoints.
type SignatureHandler struct {
	placement placementService
	finalize  finalizeService
	lifecycle lifecycleService
	reports   *export.PDFRenderer
}

// NewSignatureHandler constructs the handler.
func NewSignatureHandler(placement placementService, finalize finalizeService, lifecycle lifecycleService) *SignatureHandler {
	return &SignatureHandler{
		placement: placement,
		finalize:  finalize,
		lifecycle: lifecycle,
		reports:   export.NewPDFRenderer(),
	}
}

// Place godoc
// @Summary Place a signature on a document page
// @Tags Signatures
// @Accept json
// @Produce json
// @Param payload body dto.PlaceSignatureRequest true "Placement"
// @Success 200 {object} response.Envelope
// @Router /signature/place [post]
func (h *SignatureHandler) Place(c *gin.Context) {
	var req dto.PlaceSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid placement payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.placement.Place(c.Request.Context(), req, claims.UserID, c.ClientIP())
	if err != nil {
		var bounds *pdfkit.BoundsError
		if errors.As(err, &bounds) {
			response.ErrorWithMeta(c, err, bounds.Meta())
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ListForFile godoc
// @Summary List a document's pending signatures
// @Tags Signatures
// @Produce json
// @Param fileId path string true "Document id"
// @Success 200 {object} response.Envelope
// @Router /signature/file/{fileId} [get]
func (h *SignatureHandler) ListForFile(c *gin.Context) {
	sigs, err := h.lifecycle.PendingForFile(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sigs)
}

// Finalize godoc
// @Summary Bake all eligible signatures into a signed artifact
// @Tags Signatures
// @Accept json
// @Produce json
// @Param payload body dto.FinalizeRequest true "Document"
// @Success 200 {object} response.Envelope
// @Router /signature/finalize [post]
func (h *SignatureHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "fileId is required"))
		return
	}
	result, err := h.finalize.Finalize(c.Request.Context(), req.FileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Accept godoc
// @Summary Accept a placed signature
// @Tags Signatures
// @Produce json
// @Param id path string true "Signature id"
// @Success 200 {object} response.Envelope
// @Router /signature/accept/{id} [post]
func (h *SignatureHandler) Accept(c *gin.Context) {
	sig, err := h.lifecycle.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sig)
}

// Reject godoc
// @Summary Reject a placed signature
// @Tags Signatures
// @Accept json
// @Produce json
// @Param id path string true "Signature id"
// @Param payload body dto.RejectSignatureRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Router /signature/reject/{id} [post]
func (h *SignatureHandler) Reject(c *gin.Context) {
	var req dto.RejectSignatureRequest
	_ = c.ShouldBindJSON(&req)
	sig, err := h.lifecycle.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sig)
}

// Remove godoc
// @Summary Remove one of the caller's signatures
// @Tags Signatures
// @Produce json
// @Param signatureId path string true "Signature id"
// @Success 204 {object} nil
// @Router /signature/remove/{signatureId} [delete]
func (h *SignatureHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.lifecycle.Remove(c.Request.Context(), c.Param("signatureId"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Clear godoc
// @Summary Remove all of the caller's signatures on a document
// @Tags Signatures
// @Accept json
// @Produce json
// @Param payload body dto.ClearSignaturesRequest true "Document"
// @Success 200 {object} response.Envelope
// @Router /signature/clear-signatures [delete]
func (h *SignatureHandler) Clear(c *gin.Context) {
	var req dto.ClearSignaturesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "fileId is required"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	removed, err := h.lifecycle.ClearAll(c.Request.Context(), req.FileID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}

// Audit godoc
// @Summary Document signature audit trail
// @Tags Signatures
// @Produce json
// @Param fileId path string true "Document id"
// @Param format query string false "Set to pdf for a downloadable report"
// @Success 200 {object} response.Envelope
// @Router /signature/audit/{fileId} [get]
func (h *SignatureHandler) Audit(c *gin.Context) {
	fileID := c.Param("fileId")
	entries, err := h.lifecycle.AuditTrail(c.Request.Context(), fileID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("format") != "pdf" {
		response.OK(c, entries)
		return
	}

	table := export.Table{
		Title:   "Signature Audit Trail",
		Headers: []string{"Signature", "Signer", "Status", "IP", "Signed At", "Placed At"},
	}
	for _, e := range entries {
		signedAt := ""
		if e.SignedAt != nil {
			signedAt = e.SignedAt.UTC().Format("2006-01-02 15:04:05")
		}
		table.Rows = append(table.Rows, []string{
			e.SignatureID, e.SignerID, string(e.Status), e.IPAddress,
			signedAt, e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	pdfBytes, err := h.reports.Render(table)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit report"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="audit-`+fileID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
