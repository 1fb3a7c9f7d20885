package models

import "time"

// DocumentStatus tracks where a document sits in the signing workflow.
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "draft"
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusSigned   DocumentStatus = "signed"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// Document is an uploaded PDF awaiting signatures. FilePath always points at
// the pristine original; SignedFile is set once finalization has produced an
// immutable signed artifact.
type Document struct {
	ID         string         `db:"id" json:"id"`
	OwnerID    string         `db:"owner_id" json:"ownerId"`
	Filename   string         `db:"filename" json:"filename"`
	FilePath   string         `db:"file_path" json:"filePath"`
	PageCount  int            `db:"page_count" json:"pageCount"`
	SignedFile *string        `db:"signed_file" json:"signedFile,omitempty"`
	Status     DocumentStatus `db:"status" json:"status"`
	UploadedAt time.Time      `db:"uploaded_at" json:"uploadedAt"`
}
