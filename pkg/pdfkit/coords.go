package pdfkit

import (
	"fmt"

	appErrors "github.com/signetflow/signet-api/pkg/errors"
)

// PageSpace is the PDF user-space size of a page, in points.
type PageSpace struct {
	Width  float64
	Height float64
}

// Viewport is the client-rendered size of the same page, in pixels.
// Width may be zero when the client only reports its rendered height,
// in which case uniform zoom is assumed.
type Viewport struct {
	Width  float64
	Height float64
}

// Placement is a viewport point translated into PDF user space, together
// with the scale factors used for the translation.
type Placement struct {
	PDFX        float64
	PDFY        float64
	WidthScale  float64
	HeightScale float64
}

// MapToPage converts a top-left-origin viewport coordinate into a
// bottom-left-origin PDF user-space coordinate. Placement and finalization
// both go through this function; keeping a single implementation is what
// guarantees the baked signature lands where the client previewed it.
func MapToPage(page PageSpace, view Viewport, x, y float64) (Placement, error) {
	if view.Height <= 0 {
		return Placement{}, appErrors.Clone(appErrors.ErrValidation, "rendered page height must be positive")
	}

	heightScale := page.Height / view.Height
	widthScale := heightScale
	if view.Width > 0 {
		widthScale = page.Width / view.Width
	}

	p := Placement{
		PDFX:        x * widthScale,
		PDFY:        page.Height - y*heightScale,
		WidthScale:  widthScale,
		HeightScale: heightScale,
	}

	if p.PDFX < 0 || p.PDFX > page.Width || p.PDFY < 0 || p.PDFY > page.Height {
		return Placement{}, NewBoundsError(p.PDFX, p.PDFY, page)
	}

	return p, nil
}

// BoundsError reports a mapped point falling outside its page, keeping the
// offending coordinates so transports can expose them structurally.
type BoundsError struct {
	X          float64
	Y          float64
	PageWidth  float64
	PageHeight float64

	err *appErrors.Error
}

// NewBoundsError builds the typed out-of-bounds error for a point on page.
func NewBoundsError(x, y float64, page PageSpace) *BoundsError {
	return &BoundsError{
		X:          x,
		Y:          y,
		PageWidth:  page.Width,
		PageHeight: page.Height,
		err: appErrors.Clone(appErrors.ErrOutOfBounds,
			fmt.Sprintf("point (%.2f, %.2f) outside page bounds [0, %.2f] x [0, %.2f]",
				x, y, page.Width, page.Height)),
	}
}

func (e *BoundsError) Error() string { return e.err.Error() }

// Unwrap exposes the domain error so code-based matching keeps working.
func (e *BoundsError) Unwrap() error { return e.err }

// Meta returns the bounds detail in response-metadata form.
func (e *BoundsError) Meta() map[string]interface{} {
	return map[string]interface{}{
		"bounds": map[string]interface{}{
			"x":          e.X,
			"y":          e.Y,
			"pageWidth":  e.PageWidth,
			"pageHeight": e.PageHeight,
		},
	}
}

// MapToViewport is the inverse of MapToPage, recovering the viewport pixel
// coordinate a PDF-space point was placed at.
func MapToViewport(page PageSpace, view Viewport, pdfX, pdfY float64) (x, y float64, err error) {
	if view.Height <= 0 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "rendered page height must be positive")
	}

	heightScale := page.Height / view.Height
	widthScale := heightScale
	if view.Width > 0 {
		widthScale = page.Width / view.Width
	}
	if widthScale == 0 || heightScale == 0 {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "degenerate page dimensions")
	}

	return pdfX / widthScale, (page.Height - pdfY) / heightScale, nil
}
