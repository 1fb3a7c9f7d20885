package dto

// ShareRequest asks for the signed artifact link to be emailed.
type ShareRequest struct {
	FileID    string `json:"fileId" validate:"required"`
	Recipient string `json:"recipient" validate:"required,email"`
}
