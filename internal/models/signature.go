package models

import "time"

// SignatureStatus tracks a placed signature's lifecycle. Signed and rejected
// are terminal; records in those states remain as audit history.
type SignatureStatus string

const (
	SignatureStatusPending  SignatureStatus = "pending"
	SignatureStatusSigned   SignatureStatus = "signed"
	SignatureStatusRejected SignatureStatus = "rejected"
)

// Signature is one signer's placement on a document page. The rendered-*
// fields snapshot the client viewport at capture time; PDFX/PDFY and the
// scale factors are a cached derivation of those snapshots, re-derived from
// scratch during finalization.
type Signature struct {
	ID                 string          `db:"id" json:"id"`
	FileID             string          `db:"file_id" json:"fileId"`
	SignerID           string          `db:"signer_id" json:"signerId"`
	PageNumber         int             `db:"page_number" json:"pageNumber"`
	XCoordinate        float64         `db:"x_coordinate" json:"xCoordinate"`
	YCoordinate        float64         `db:"y_coordinate" json:"yCoordinate"`
	SignatureText      string          `db:"signature_text" json:"signature"`
	Font               string          `db:"font" json:"font"`
	PDFPageWidth       float64         `db:"pdf_page_width" json:"pdfPageWidth"`
	PDFPageHeight      float64         `db:"pdf_page_height" json:"pdfPageHeight"`
	RenderedPageWidth  *float64        `db:"rendered_page_width" json:"renderedPageWidth,omitempty"`
	RenderedPageHeight float64         `db:"rendered_page_height" json:"renderedPageHeight"`
	PDFX               float64         `db:"pdf_x" json:"pdfX"`
	PDFY               float64         `db:"pdf_y" json:"pdfY"`
	WidthScale         float64         `db:"width_scale" json:"widthScale"`
	HeightScale        float64         `db:"height_scale" json:"heightScale"`
	IPAddress          string          `db:"ip_address" json:"-"`
	Status             SignatureStatus `db:"status" json:"status"`
	RejectReason       *string         `db:"reject_reason" json:"rejectReason,omitempty"`
	SignedAt           *time.Time      `db:"signed_at" json:"signedAt,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
}

// AuditEntry is the audit-trail projection of a signature.
type AuditEntry struct {
	SignatureID string          `db:"id" json:"signatureId"`
	SignerID    string          `db:"signer_id" json:"signerId"`
	Status      SignatureStatus `db:"status" json:"status"`
	IPAddress   string          `db:"ip_address" json:"ipAddress"`
	SignedAt    *time.Time      `db:"signed_at" json:"signedAt,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}
