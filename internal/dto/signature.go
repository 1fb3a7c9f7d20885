package dto

// PlaceSignatureRequest captures a raw client placement in viewport pixels.
// Coordinates are bound as pointers so "missing" and "zero" stay
// distinguishable during validation.
type PlaceSignatureRequest struct {
	FileID             string   `json:"fileId" validate:"required"`
	PageNumber         *int     `json:"pageNumber" validate:"required"`
	XCoordinate        *float64 `json:"xCoordinate" validate:"required"`
	YCoordinate        *float64 `json:"yCoordinate" validate:"required"`
	Signature          string   `json:"signature" validate:"required"`
	Font               string   `json:"font"`
	RenderedPageHeight *float64 `json:"renderedPageHeight" validate:"required"`
	RenderedPageWidth  *float64 `json:"renderedPageWidth"`
}

// Coordinates is an (x, y) pair in either coordinate space.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PageDimensions reports both the PDF user-space and rendered viewport sizes.
type PageDimensions struct {
	PDF      Dimensions `json:"pdf"`
	Rendered Dimensions `json:"rendered"`
}

// Dimensions is a width/height pair.
type Dimensions struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height"`
}

// ScaleFactors are the per-axis rendered-pixel to PDF-point ratios.
type ScaleFactors struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PlacementResult echoes the computed placement back for client confirmation.
type PlacementResult struct {
	SignatureID        string         `json:"signatureId"`
	PDFCoordinates     Coordinates    `json:"pdfCoordinates"`
	BrowserCoordinates Coordinates    `json:"browserCoordinates"`
	PageDimensions     PageDimensions `json:"pageDimensions"`
	ScaleFactors       ScaleFactors   `json:"scaleFactors"`
}

// FinalizeRequest names the document to bake.
type FinalizeRequest struct {
	FileID string `json:"fileId" validate:"required"`
}

// FinalizeResult reports the signed artifact.
type FinalizeResult struct {
	SignedFile string `json:"signedFile"`
	Baked      int    `json:"baked"`
	Skipped    int    `json:"skipped"`
}

// RejectSignatureRequest carries the rejection reason.
type RejectSignatureRequest struct {
	Reason string `json:"reason"`
}

// ClearSignaturesRequest names the document whose signatures to clear.
type ClearSignaturesRequest struct {
	FileID string `json:"fileId" validate:"required"`
}
