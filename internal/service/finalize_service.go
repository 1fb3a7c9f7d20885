package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/signetflow/signet-api/internal/dto"
	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/pdfkit"
)

type finalizeSignatureStore interface {
	ListByFileAndStatuses(ctx context.Context, fileID string, statuses ...models.SignatureStatus) ([]models.Signature, error)
	MarkSignedAndFlagDocument(ctx context.Context, fileID, signedFile string, at time.Time) error
}

type artifactWriter interface {
	SaveUnique(filename string, data []byte) (string, error)
}

type finalizeMetrics interface {
	CountFinalization(baked, skipped int)
}

// FinalizeService bakes a document's eligible signatures into a fresh copy
// of the pristine source PDF and transitions entity states once the artifact
// is durably written.
type FinalizeService struct {
	documents  placementDocumentStore
	signatures finalizeSignatureStore
	uploads    fileReader
	artifacts  artifactWriter
	fonts      *pdfkit.Library
	metrics    finalizeMetrics
	fontSize   float64
	logger     *zap.Logger
}

// NewFinalizeService constructs the service.
func NewFinalizeService(documents placementDocumentStore, signatures finalizeSignatureStore, uploads fileReader, artifacts artifactWriter, fonts *pdfkit.Library, metrics finalizeMetrics, fontSize float64, logger *zap.Logger) *FinalizeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fontSize <= 0 {
		fontSize = 20
	}
	return &FinalizeService{
		documents:  documents,
		signatures: signatures,
		uploads:    uploads,
		artifacts:  artifacts,
		fonts:      fonts,
		metrics:    metrics,
		fontSize:   fontSize,
		logger:     logger,
	}
}

// Finalize renders every pending and previously signed signature into a new
// signed artifact. Signed ones are re-baked because each run starts from the
// pristine original, so repeated finalization yields identical positions.
func (s *FinalizeService) Finalize(ctx context.Context, fileID string) (*dto.FinalizeResult, error) {
	doc, err := s.documents.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	sigs, err := s.signatures.ListByFileAndStatuses(ctx, fileID,
		models.SignatureStatusPending, models.SignatureStatusSigned)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signatures")
	}

	data, err := s.uploads.Read(doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "original pdf unavailable")
	}
	pdf, err := pdfkit.Open(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "original pdf unreadable")
	}

	baked, skipped := 0, 0
	for i := range sigs {
		sig := &sigs[i]
		if sig.PageNumber < 1 || sig.PageNumber > pdf.PageCount() {
			s.logger.Warn("signature page no longer exists, skipping",
				zap.String("signature", sig.ID), zap.Int("page", sig.PageNumber),
				zap.Int("page_count", pdf.PageCount()))
			skipped++
			continue
		}
		page, err := pdf.PageSize(sig.PageNumber)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "page dimensions unreadable")
		}

		placement, err := s.derivePlacement(sig, page)
		if err != nil {
			s.logger.Warn("signature no longer maps inside its page, skipping",
				zap.String("signature", sig.ID), zap.Error(err))
			skipped++
			continue
		}

		font := s.fonts.Resolve(sig.Font)
		baseline := placement.PDFY - font.AscentAt(s.fontSize)
		if err := pdf.DrawText(sig.PageNumber, placement.PDFX, baseline, sig.SignatureText, font, s.fontSize); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to draw signature")
		}

		s.logger.Debug("baked signature",
			zap.String("signature", sig.ID),
			zap.Int("page", sig.PageNumber),
			zap.Float64("pdf_x", placement.PDFX),
			zap.Float64("pdf_y", placement.PDFY),
			zap.String("font", font.Name()))
		baked++
	}

	out, err := pdf.Bytes()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "failed to serialize signed pdf")
	}

	filename := fmt.Sprintf("signed-%d.pdf", time.Now().UnixMilli())
	saved, err := s.artifacts.SaveUnique(filename, out)
	if err != nil {
		// No state transition happens on write failure.
		return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "failed to persist signed pdf")
	}
	signedFile := path.Join("signed", saved)

	if err := s.signatures.MarkSignedAndFlagDocument(ctx, fileID, signedFile, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "artifact written but state update failed")
	}

	if s.metrics != nil {
		s.metrics.CountFinalization(baked, skipped)
	}
	s.logger.Info("document finalized",
		zap.String("document", fileID),
		zap.String("signed_file", signedFile),
		zap.Int("baked", baked),
		zap.Int("skipped", skipped))

	return &dto.FinalizeResult{SignedFile: signedFile, Baked: baked, Skipped: skipped}, nil
}

// derivePlacement re-derives PDF coordinates against the current page
// dimensions. The raw viewport snapshot is the canonical source of truth;
// scale factors cached at placement time are only consulted when the
// snapshot is absent, and a bare coordinate passes through at scale 1.
func (s *FinalizeService) derivePlacement(sig *models.Signature, page pdfkit.PageSpace) (pdfkit.Placement, error) {
	if sig.RenderedPageHeight > 0 {
		view := pdfkit.Viewport{Height: sig.RenderedPageHeight}
		if sig.RenderedPageWidth != nil {
			view.Width = *sig.RenderedPageWidth
		}
		return pdfkit.MapToPage(page, view, sig.XCoordinate, sig.YCoordinate)
	}

	widthScale, heightScale := sig.WidthScale, sig.HeightScale
	if widthScale == 0 {
		widthScale = 1
	}
	if heightScale == 0 {
		heightScale = 1
	}
	p := pdfkit.Placement{
		PDFX:        sig.XCoordinate * widthScale,
		PDFY:        page.Height - sig.YCoordinate*heightScale,
		WidthScale:  widthScale,
		HeightScale: heightScale,
	}
	if p.PDFX < 0 || p.PDFX > page.Width || p.PDFY < 0 || p.PDFY > page.Height {
		return pdfkit.Placement{}, pdfkit.NewBoundsError(p.PDFX, p.PDFY, page)
	}
	return p, nil
}
