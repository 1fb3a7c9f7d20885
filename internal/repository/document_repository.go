package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/signetflow/signet-api/internal/models"
)

// DocumentRepository handles document metadata persistence.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores metadata for an uploaded document.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	if doc.Status == "" {
		doc.Status = models.DocumentStatusDraft
	}
	const query = `INSERT INTO documents
	(id, owner_id, filename, file_path, page_count, signed_file, status, uploaded_at)
	VALUES (:id, :owner_id, :filename, :file_path, :page_count, :signed_file, :status, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID retrieves one document row.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	const query = `SELECT id, owner_id, filename, file_path, page_count, signed_file, status, uploaded_at
	FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByOwner returns the documents uploaded by one user, newest first.
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	const query = `SELECT id, owner_id, filename, file_path, page_count, signed_file, status, uploaded_at
	FROM documents WHERE owner_id = $1 ORDER BY uploaded_at DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// SetStatus updates the workflow status of a document.
func (r *DocumentRepository) SetStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	const query = `UPDATE documents SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}
