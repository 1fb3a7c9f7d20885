package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/signetflow/signet-api/internal/models"
	appErrors "github.com/signetflow/signet-api/pkg/errors"
)

type lifecycleSignatureStore interface {
	GetByID(ctx context.Context, id string) (*models.Signature, error)
	ListByFileAndStatuses(ctx context.Context, fileID string, statuses ...models.SignatureStatus) ([]models.Signature, error)
	SetSigned(ctx context.Context, id string, at time.Time) error
	SetRejected(ctx context.Context, id, reason string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByFileAndSigner(ctx context.Context, fileID, signerID string) (int64, error)
	AuditTrail(ctx context.Context, fileID string) ([]models.AuditEntry, error)
}

type lifecycleDocumentStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	SetStatus(ctx context.Context, id string, status models.DocumentStatus) error
}

// LifecycleService drives individual signature state transitions and the
// document status changes that cascade from them.
type LifecycleService struct {
	signatures lifecycleSignatureStore
	documents  lifecycleDocumentStore
	logger     *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(signatures lifecycleSignatureStore, documents lifecycleDocumentStore, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{signatures: signatures, documents: documents, logger: logger}
}

// Accept moves a signature to signed and flags its document signed.
func (s *LifecycleService) Accept(ctx context.Context, signatureID string) (*models.Signature, error) {
	sig, err := s.loadSignature(ctx, signatureID)
	if err != nil {
		return nil, err
	}
	if sig.Status == models.SignatureStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrConflict, "signature was already rejected")
	}

	now := time.Now().UTC()
	if err := s.signatures.SetSigned(ctx, sig.ID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept signature")
	}
	if err := s.documents.SetStatus(ctx, sig.FileID, models.DocumentStatusSigned); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document status")
	}

	sig.Status = models.SignatureStatusSigned
	sig.SignedAt = &now
	s.logger.Info("signature accepted",
		zap.String("signature", sig.ID), zap.String("document", sig.FileID))
	return sig, nil
}

// Reject moves a signature to rejected with an optional reason and flags
// its document rejected.
func (s *LifecycleService) Reject(ctx context.Context, signatureID, reason string) (*models.Signature, error) {
	sig, err := s.loadSignature(ctx, signatureID)
	if err != nil {
		return nil, err
	}
	if sig.Status == models.SignatureStatusSigned {
		return nil, appErrors.Clone(appErrors.ErrConflict, "signature was already signed")
	}

	if err := s.signatures.SetRejected(ctx, sig.ID, reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject signature")
	}
	if err := s.documents.SetStatus(ctx, sig.FileID, models.DocumentStatusRejected); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document status")
	}

	sig.Status = models.SignatureStatusRejected
	sig.RejectReason = &reason
	s.logger.Info("signature rejected",
		zap.String("signature", sig.ID), zap.String("document", sig.FileID),
		zap.String("reason", reason))
	return sig, nil
}

// Remove deletes a single placed signature. Only the signer who placed it
// may remove it.
func (s *LifecycleService) Remove(ctx context.Context, signatureID, requesterID string) error {
	sig, err := s.loadSignature(ctx, signatureID)
	if err != nil {
		return err
	}
	if sig.SignerID != requesterID {
		return appErrors.Clone(appErrors.ErrForbidden, "signature belongs to another signer")
	}
	if err := s.signatures.DeleteByID(ctx, sig.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove signature")
	}
	s.logger.Info("signature removed",
		zap.String("signature", sig.ID), zap.String("signer", requesterID))
	return nil
}

// ClearAll deletes every signature the requester placed on the document and
// returns how many were removed.
func (s *LifecycleService) ClearAll(ctx context.Context, fileID, requesterID string) (int64, error) {
	if _, err := s.documents.GetByID(ctx, fileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	removed, err := s.signatures.DeleteByFileAndSigner(ctx, fileID, requesterID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear signatures")
	}
	s.logger.Info("signatures cleared",
		zap.String("document", fileID), zap.String("signer", requesterID),
		zap.Int64("removed", removed))
	return removed, nil
}

// PendingForFile lists the document's not-yet-finalized signatures.
func (s *LifecycleService) PendingForFile(ctx context.Context, fileID string) ([]models.Signature, error) {
	sigs, err := s.signatures.ListByFileAndStatuses(ctx, fileID, models.SignatureStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list signatures")
	}
	return sigs, nil
}

// AuditTrail returns the full signature history of a document.
func (s *LifecycleService) AuditTrail(ctx context.Context, fileID string) ([]models.AuditEntry, error) {
	entries, err := s.signatures.AuditTrail(ctx, fileID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}
	return entries, nil
}

func (s *LifecycleService) loadSignature(ctx context.Context, id string) (*models.Signature, error) {
	sig, err := s.signatures.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "signature not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signature")
	}
	return sig, nil
}
