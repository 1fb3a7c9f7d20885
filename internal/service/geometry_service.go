package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/pdfkit"
)

type geometryCache interface {
	Get(ctx context.Context, documentID string) (*models.PageGeometry, error)
	Set(ctx context.Context, documentID string, geo *models.PageGeometry) error
}

type fileReader interface {
	Read(filename string) ([]byte, error)
}

// GeometryService resolves the page layout of a document's pristine PDF,
// consulting the cache before parsing the file.
type GeometryService struct {
	uploads fileReader
	cache   geometryCache
	logger  *zap.Logger
}

// NewGeometryService constructs the service. cache may be nil.
func NewGeometryService(uploads fileReader, cache geometryCache, logger *zap.Logger) *GeometryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeometryService{uploads: uploads, cache: cache, logger: logger}
}

// Resolve returns the page count and per-page dimensions for a document.
func (s *GeometryService) Resolve(ctx context.Context, doc *models.Document) (*models.PageGeometry, error) {
	if s.cache != nil {
		if geo, err := s.cache.Get(ctx, doc.ID); err == nil && geo != nil {
			return geo, nil
		} else if err != nil {
			s.logger.Warn("geometry cache unavailable", zap.String("document", doc.ID), zap.Error(err))
		}
	}

	data, err := s.uploads.Read(doc.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "original pdf unavailable")
	}
	pdf, err := pdfkit.Open(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "original pdf unreadable")
	}

	geo := &models.PageGeometry{PageCount: pdf.PageCount()}
	geo.Pages = make([]models.PageSize, 0, geo.PageCount)
	for n := 1; n <= geo.PageCount; n++ {
		size, err := pdf.PageSize(n)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "page dimensions unreadable")
		}
		geo.Pages = append(geo.Pages, models.PageSize{Width: size.Width, Height: size.Height})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, doc.ID, geo); err != nil {
			s.logger.Warn("geometry cache write failed", zap.String("document", doc.ID), zap.Error(err))
		}
	}
	return geo, nil
}
