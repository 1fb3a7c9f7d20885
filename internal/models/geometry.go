package models

// PageSize is one page's user-space dimensions in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PageGeometry is the page layout of a document's pristine PDF. The source
// file is immutable after upload, so the geometry can be cached freely.
type PageGeometry struct {
	PageCount int        `json:"pageCount"`
	Pages     []PageSize `json:"pages"`
}

// Page returns the 1-indexed page size and whether it exists.
func (g *PageGeometry) Page(pageNumber int) (PageSize, bool) {
	if pageNumber < 1 || pageNumber > len(g.Pages) {
		return PageSize{}, false
	}
	return g.Pages[pageNumber-1], true
}
