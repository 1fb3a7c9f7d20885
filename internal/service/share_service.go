package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/signetflow/signet-api/internal/dto"
	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
	"github.com/signetflow/signet-api/pkg/mailer"
)

type shareDocumentLoader interface {
	Get(ctx context.Context, id string) (*models.Document, error)
}

// ShareService emails a download link for a finalized document.
type ShareService struct {
	documents shareDocumentLoader
	mail      mailer.Mailer
	baseURL   string
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewShareService constructs the service. baseURL is the public origin the
// signed-file path is joined to.
func NewShareService(documents shareDocumentLoader, mail mailer.Mailer, baseURL string, logger *zap.Logger) *ShareService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareService{
		documents: documents,
		mail:      mail,
		baseURL:   strings.TrimRight(baseURL, "/"),
		validate:  validator.New(),
		logger:    logger,
	}
}

// Share sends the document's signed artifact link to the recipient. The
// document must already be finalized.
func (s *ShareService) Share(ctx context.Context, req *dto.ShareRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "a valid recipient email and file id are required")
	}

	doc, err := s.documents.Get(ctx, req.FileID)
	if err != nil {
		return err
	}
	if doc.SignedFile == nil || *doc.SignedFile == "" {
		return appErrors.Clone(appErrors.ErrValidation, "document has not been finalized yet")
	}

	link := fmt.Sprintf("%s/%s", s.baseURL, strings.TrimLeft(*doc.SignedFile, "/"))
	subject := fmt.Sprintf("Signed document: %s", doc.Filename)
	body := fmt.Sprintf("A signed copy of %q is ready.\r\n\r\nDownload it here: %s\r\n", doc.Filename, link)

	if err := s.mail.Send(req.Recipient, subject, body); err != nil {
		return appErrors.Wrap(err, appErrors.ErrIO.Code, appErrors.ErrIO.Status, "failed to send share email")
	}

	s.logger.Info("document shared",
		zap.String("document", doc.ID), zap.String("recipient", req.Recipient))
	return nil
}
