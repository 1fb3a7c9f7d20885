package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/signetflow/signet-api/internal/dto"
	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/pdfkit"
)

type placementDocumentStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

type placementSignatureStore interface {
	ReplacePending(ctx context.Context, sig *models.Signature) (int64, error)
}

type pageGeometryResolver interface {
	Resolve(ctx context.Context, doc *models.Document) (*models.PageGeometry, error)
}

type placementMetrics interface {
	CountPlacement(outcome string)
}

// PlacementService validates placement requests, translates viewport
// coordinates into PDF user space and persists the resulting signature.
type PlacementService struct {
	documents  placementDocumentStore
	signatures placementSignatureStore
	geometry   pageGeometryResolver
	metrics    placementMetrics
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewPlacementService constructs the service.
func NewPlacementService(documents placementDocumentStore, signatures placementSignatureStore, geometry pageGeometryResolver, metrics placementMetrics, logger *zap.Logger) *PlacementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{
		documents:  documents,
		signatures: signatures,
		geometry:   geometry,
		metrics:    metrics,
		validator:  validator.New(),
		logger:     logger,
	}
}

// Place runs the placement contract: validate, locate the page, map the
// coordinate, then atomically supersede the signer's prior pending placement.
func (s *PlacementService) Place(ctx context.Context, req dto.PlaceSignatureRequest, signerID, ipAddress string) (*dto.PlacementResult, error) {
	result, err := s.place(ctx, req, signerID, ipAddress)
	if s.metrics != nil {
		if err != nil {
			s.metrics.CountPlacement("rejected")
		} else {
			s.metrics.CountPlacement("ok")
		}
	}
	return result, err
}

func (s *PlacementService) place(ctx context.Context, req dto.PlaceSignatureRequest, signerID, ipAddress string) (*dto.PlacementResult, error) {
	if signerID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required fields")
	}
	if !isFinite(*req.XCoordinate) || !isFinite(*req.YCoordinate) || !isFinite(*req.RenderedPageHeight) ||
		(req.RenderedPageWidth != nil && !isFinite(*req.RenderedPageWidth)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid numeric values")
	}

	doc, err := s.documents.GetByID(ctx, req.FileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	geo, err := s.geometry.Resolve(ctx, doc)
	if err != nil {
		return nil, err
	}

	pageNumber := *req.PageNumber
	page, ok := geo.Page(pageNumber)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("invalid page number %d: document has %d pages", pageNumber, geo.PageCount))
	}

	view := pdfkit.Viewport{Height: *req.RenderedPageHeight}
	if req.RenderedPageWidth != nil {
		view.Width = *req.RenderedPageWidth
	}
	placement, err := pdfkit.MapToPage(
		pdfkit.PageSpace{Width: page.Width, Height: page.Height},
		view, *req.XCoordinate, *req.YCoordinate)
	if err != nil {
		return nil, err
	}

	sig := &models.Signature{
		FileID:             req.FileID,
		SignerID:           signerID,
		PageNumber:         pageNumber,
		XCoordinate:        *req.XCoordinate,
		YCoordinate:        *req.YCoordinate,
		SignatureText:      req.Signature,
		Font:               req.Font,
		PDFPageWidth:       page.Width,
		PDFPageHeight:      page.Height,
		RenderedPageWidth:  req.RenderedPageWidth,
		RenderedPageHeight: *req.RenderedPageHeight,
		PDFX:               placement.PDFX,
		PDFY:               placement.PDFY,
		WidthScale:         placement.WidthScale,
		HeightScale:        placement.HeightScale,
		IPAddress:          ipAddress,
		Status:             models.SignatureStatusPending,
	}

	superseded, err := s.signatures.ReplacePending(ctx, sig)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist signature")
	}
	if superseded > 0 {
		s.logger.Info("superseded prior pending placement",
			zap.String("document", req.FileID),
			zap.String("signer", signerID),
			zap.Int64("superseded", superseded))
	}

	result := &dto.PlacementResult{
		SignatureID:        sig.ID,
		PDFCoordinates:     dto.Coordinates{X: placement.PDFX, Y: placement.PDFY},
		BrowserCoordinates: dto.Coordinates{X: *req.XCoordinate, Y: *req.YCoordinate},
		PageDimensions: dto.PageDimensions{
			PDF:      dto.Dimensions{Width: page.Width, Height: page.Height},
			Rendered: dto.Dimensions{Width: view.Width, Height: view.Height},
		},
		ScaleFactors: dto.ScaleFactors{Width: placement.WidthScale, Height: placement.HeightScale},
	}
	return result, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
