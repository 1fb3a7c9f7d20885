package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
}

type uploadWriter interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

// DocumentService handles document intake and retrieval. Uploads are
// validated as well-formed PDFs before anything touches disk.
type DocumentService struct {
	documents documentStore
	uploads   uploadWriter
	pdfConf   *model.Configuration
	maxBytes  int64
	logger    *zap.Logger
}

// NewDocumentService constructs the service. maxBytes caps upload size;
// zero disables the cap.
func NewDocumentService(documents documentStore, uploads uploadWriter, maxBytes int64, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &DocumentService{
		documents: documents,
		uploads:   uploads,
		pdfConf:   conf,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Upload validates and stores a PDF, returning its metadata record.
func (s *DocumentService) Upload(ctx context.Context, ownerID, filename string, data []byte) (*models.Document, error) {
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing signer identity")
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty upload")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxBytes))
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only PDF files are accepted")
	}

	if err := api.Validate(bytes.NewReader(data), s.pdfConf); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is not a valid PDF")
	}
	pages, err := api.PageCount(bytes.NewReader(data), s.pdfConf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to read PDF pages")
	}

	stored := uuid.NewString() + ".pdf"
	if _, err := s.uploads.Save(stored, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "failed to store upload")
	}

	doc := &models.Document{
		OwnerID:   ownerID,
		Filename:  filepath.Base(filename),
		FilePath:  stored,
		PageCount: pages,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		// The stored file has no record pointing at it; remove it.
		if cleanupErr := s.uploads.Delete(stored); cleanupErr != nil {
			s.logger.Warn("orphaned upload left on disk",
				zap.String("file", stored), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}

	s.logger.Info("document uploaded",
		zap.String("document", doc.ID),
		zap.String("owner", ownerID),
		zap.Int("pages", pages),
		zap.Int("bytes", len(data)))
	return doc, nil
}

// Get returns one document's metadata.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

// ListByOwner returns the requester's documents, newest first.
func (s *DocumentService) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	docs, err := s.documents.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}
