package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/signetflow/signet-api/internal/models"
)

const signatureColumns = `id, file_id, signer_id, page_number, x_coordinate, y_coordinate,
       signature_text, font, pdf_page_width, pdf_page_height, rendered_page_width,
       rendered_page_height, pdf_x, pdf_y, width_scale, height_scale, ip_address,
       status, reject_reason, signed_at, created_at`

// SignatureRepository handles signature persistence.
type SignatureRepository struct {
	db *sqlx.DB
}

// NewSignatureRepository constructs the repository.
func NewSignatureRepository(db *sqlx.DB) *SignatureRepository {
	return &SignatureRepository{db: db}
}

// ReplacePending atomically supersedes the signer's prior pending placement
// on the document and inserts the new one. Returns how many stale pending
// records were removed. Terminal (signed/rejected) records are untouched.
func (r *SignatureRepository) ReplacePending(ctx context.Context, sig *models.Signature) (int64, error) {
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}
	if sig.Status == "" {
		sig.Status = models.SignatureStatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin placement tx: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM signatures WHERE file_id = $1 AND signer_id = $2 AND status = $3`,
		sig.FileID, sig.SignerID, models.SignatureStatusPending)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("supersede pending signature: %w", err)
	}
	superseded, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("count superseded signatures: %w", err)
	}

	const insert = `INSERT INTO signatures
	(id, file_id, signer_id, page_number, x_coordinate, y_coordinate, signature_text, font,
	 pdf_page_width, pdf_page_height, rendered_page_width, rendered_page_height,
	 pdf_x, pdf_y, width_scale, height_scale, ip_address, status, reject_reason, signed_at, created_at)
	VALUES (:id, :file_id, :signer_id, :page_number, :x_coordinate, :y_coordinate, :signature_text, :font,
	 :pdf_page_width, :pdf_page_height, :rendered_page_width, :rendered_page_height,
	 :pdf_x, :pdf_y, :width_scale, :height_scale, :ip_address, :status, :reject_reason, :signed_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, sig); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("insert signature: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit placement: %w", err)
	}
	return superseded, nil
}

// GetByID retrieves one signature row.
func (r *SignatureRepository) GetByID(ctx context.Context, id string) (*models.Signature, error) {
	query := `SELECT ` + signatureColumns + ` FROM signatures WHERE id = $1`
	var sig models.Signature
	if err := r.db.GetContext(ctx, &sig, query, id); err != nil {
		return nil, err
	}
	return &sig, nil
}

// ListByFileAndStatuses returns the document's signatures in the given states.
func (r *SignatureRepository) ListByFileAndStatuses(ctx context.Context, fileID string, statuses ...models.SignatureStatus) ([]models.Signature, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	query := `SELECT ` + signatureColumns + ` FROM signatures
	WHERE file_id = $1 AND status = ANY($2) ORDER BY created_at`
	var sigs []models.Signature
	if err := r.db.SelectContext(ctx, &sigs, query, fileID, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	return sigs, nil
}

// SetSigned marks one signature signed with a timestamp.
func (r *SignatureRepository) SetSigned(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE signatures SET status = $2, signed_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.SignatureStatusSigned, at); err != nil {
		return fmt.Errorf("mark signature signed: %w", err)
	}
	return nil
}

// SetRejected marks one signature rejected with a reason.
func (r *SignatureRepository) SetRejected(ctx context.Context, id, reason string) error {
	const query = `UPDATE signatures SET status = $2, reject_reason = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.SignatureStatusRejected, reason); err != nil {
		return fmt.Errorf("mark signature rejected: %w", err)
	}
	return nil
}

// DeleteByID removes one signature.
func (r *SignatureRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM signatures WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete signature: %w", err)
	}
	return nil
}

// DeleteByFileAndSigner removes all of one signer's signatures on a document.
func (r *SignatureRepository) DeleteByFileAndSigner(ctx context.Context, fileID, signerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM signatures WHERE file_id = $1 AND signer_id = $2`, fileID, signerID)
	if err != nil {
		return 0, fmt.Errorf("clear signatures: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared signatures: %w", err)
	}
	return affected, nil
}

// MarkSignedAndFlagDocument promotes all pending signatures on the document
// to signed and records the signed artifact, in one transaction. Called only
// after the artifact has been durably written.
func (r *SignatureRepository) MarkSignedAndFlagDocument(ctx context.Context, fileID, signedFile string, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE signatures SET status = $2, signed_at = $3 WHERE file_id = $1 AND status = $4`,
		fileID, models.SignatureStatusSigned, at, models.SignatureStatusPending); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("mark signatures signed: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET status = $2, signed_file = $3 WHERE id = $1`,
		fileID, models.DocumentStatusSigned, signedFile); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("flag document signed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

// AuditTrail returns the audit projection of every signature on a document.
func (r *SignatureRepository) AuditTrail(ctx context.Context, fileID string) ([]models.AuditEntry, error) {
	const query = `SELECT id, signer_id, status, ip_address, signed_at, created_at
	FROM signatures WHERE file_id = $1 ORDER BY created_at`
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, fileID); err != nil {
		return nil, fmt.Errorf("load audit trail: %w", err)
	}
	return entries, nil
}
