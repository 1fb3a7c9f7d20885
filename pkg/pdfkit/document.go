// Package pdfkit wraps the PDF read/compose capability used for signature
// baking: loading a page set, querying page dimensions, embedding signature
// fonts and drawing text at user-space coordinates.
package pdfkit

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/georgepadayatti/gopdf/pdf/generic"
	"github.com/georgepadayatti/gopdf/pdf/reader"
	"github.com/georgepadayatti/gopdf/pdf/writer"
)

// Document is an open PDF being composed. Not safe for concurrent use; each
// finalize run works on its own instance.
type Document struct {
	reader   *reader.PdfFileReader
	writer   *writer.IncrementalPdfFileWriter
	embedded map[string]*embeddedFont
	wrapped  map[int]bool
}

type embeddedFont struct {
	resource     string
	font         *Font
	cidDict      *generic.DictionaryObject
	compositeRef generic.Reference
	widths       map[uint16]float64
}

// Open parses a PDF from raw bytes.
func Open(data []byte) (*Document, error) {
	r, err := reader.NewPdfFileReaderFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	return &Document{
		reader:   r,
		writer:   writer.NewIncrementalPdfFileWriter(r),
		embedded: make(map[string]*embeddedFont),
		wrapped:  make(map[int]bool),
	}, nil
}

// OpenFile parses a PDF from disk.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return Open(data)
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.reader.GetPageCount()
}

// PageSize returns the user-space dimensions of a page. pageNumber is
// 1-indexed, matching how clients report placements.
func (d *Document) PageSize(pageNumber int) (PageSpace, error) {
	page, err := d.reader.GetPage(pageNumber - 1)
	if err != nil {
		return PageSpace{}, fmt.Errorf("page %d: %w", pageNumber, err)
	}

	if arr, ok := page.Get("MediaBox").(generic.ArrayObject); ok && len(arr) >= 4 {
		llx := numericValue(arr[0])
		lly := numericValue(arr[1])
		urx := numericValue(arr[2])
		ury := numericValue(arr[3])
		return PageSpace{Width: urx - llx, Height: ury - lly}, nil
	}

	// US Letter when the page carries no MediaBox of its own.
	return PageSpace{Width: 612, Height: 792}, nil
}

// DrawText paints text onto a page with its baseline at (x, y) in PDF user
// space, using the given signature font and size. The font program is
// embedded on first use and reused for subsequent draws in this document.
func (d *Document) DrawText(pageNumber int, x, y float64, text string, font *Font, size float64) error {
	if font == nil {
		return fmt.Errorf("font is required")
	}
	if pageNumber < 1 || pageNumber > d.PageCount() {
		return fmt.Errorf("page %d out of range [1, %d]", pageNumber, d.PageCount())
	}

	ef, err := d.embedFont(font)
	if err != nil {
		return err
	}
	ef.recordWidths(text)

	if err := d.isolatePageContent(pageNumber); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("q\nBT\n")
	fmt.Fprintf(&buf, "/%s %f Tf\n", ef.resource, size)
	fmt.Fprintf(&buf, "1 0 0 1 %f %f Tm\n", x, y)
	buf.WriteString("0 0 0 rg\n")
	fmt.Fprintf(&buf, "<%s> Tj\n", hex.EncodeToString(font.ttf.Encode(text)))
	buf.WriteString("ET\nQ")

	streamRef := d.writer.AddObject(generic.NewStream(nil, buf.Bytes()))

	resources := generic.NewDictionary()
	fontRes := generic.NewDictionary()
	fontRes.Set(ef.resource, ef.ref())
	resources.Set("Font", fontRes)

	if _, err := d.writer.AddStreamToPage(pageNumber-1, streamRef, resources, false); err != nil {
		return fmt.Errorf("stamp page %d: %w", pageNumber, err)
	}
	return nil
}

// Bytes serializes the composed document.
func (d *Document) Bytes() ([]byte, error) {
	for _, ef := range d.embedded {
		ef.cidDict.Set("W", ef.widthArray())
	}

	var out bytes.Buffer
	if err := d.writer.Write(&out); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return out.Bytes(), nil
}

// embedFont adds the font program, descriptor and composite font dictionary
// to the document once per font name.
func (d *Document) embedFont(font *Font) (*embeddedFont, error) {
	if ef, ok := d.embedded[font.Name()]; ok {
		return ef, nil
	}

	ttf := font.ttf
	baseName := sanitizeFontName(font.Name())

	fileDict := generic.NewDictionary()
	fileDict.Set("Length1", generic.IntegerObject(len(ttf.Data())))
	fileRef := d.writer.AddObject(generic.NewStream(fileDict, ttf.Data()))

	descriptor := generic.NewDictionary()
	for key, value := range ttf.FontDescriptor() {
		switch v := value.(type) {
		case string:
			descriptor.Set(key, generic.NameObject(v))
		case int:
			descriptor.Set(key, generic.IntegerObject(v))
		case float64:
			descriptor.Set(key, generic.RealObject(v))
		case [4]float64:
			descriptor.Set(key, generic.ArrayObject{
				generic.RealObject(v[0]), generic.RealObject(v[1]),
				generic.RealObject(v[2]), generic.RealObject(v[3]),
			})
		}
	}
	descriptor.Set("FontFile2", fileRef)
	descriptorRef := d.writer.AddObject(descriptor)

	systemInfo := generic.NewDictionary()
	systemInfo.Set("Registry", generic.NewLiteralString("Adobe"))
	systemInfo.Set("Ordering", generic.NewLiteralString("Identity"))
	systemInfo.Set("Supplement", generic.IntegerObject(0))

	cid := generic.NewDictionary()
	cid.Set("Type", generic.NameObject("Font"))
	cid.Set("Subtype", generic.NameObject("CIDFontType2"))
	cid.Set("BaseFont", generic.NameObject(baseName))
	cid.Set("CIDSystemInfo", systemInfo)
	cid.Set("FontDescriptor", descriptorRef)
	cid.Set("DW", generic.IntegerObject(1000))
	cid.Set("CIDToGIDMap", generic.NameObject("Identity"))
	cidRef := d.writer.AddObject(cid)

	composite := generic.NewDictionary()
	composite.Set("Type", generic.NameObject("Font"))
	composite.Set("Subtype", generic.NameObject("Type0"))
	composite.Set("BaseFont", generic.NameObject(baseName))
	composite.Set("Encoding", generic.NameObject("Identity-H"))
	composite.Set("DescendantFonts", generic.ArrayObject{cidRef})
	compositeRef := d.writer.AddObject(composite)

	ef := &embeddedFont{
		resource: fmt.Sprintf("SF%d", len(d.embedded)+1),
		font:     font,
		cidDict:  cid,
		widths:   make(map[uint16]float64),
	}
	ef.compositeRef = compositeRef
	d.embedded[font.Name()] = ef
	return ef, nil
}

// isolatePageContent wraps the page's existing content in q/Q once, so
// stamped text is not affected by a dangling graphics state.
func (d *Document) isolatePageContent(pageNumber int) error {
	if d.wrapped[pageNumber] {
		return nil
	}

	qRef := d.writer.AddObject(generic.NewStream(nil, []byte("q")))
	if _, err := d.writer.AddStreamToPage(pageNumber-1, qRef, nil, true); err != nil {
		return fmt.Errorf("wrap page %d content: %w", pageNumber, err)
	}
	bigQRef := d.writer.AddObject(generic.NewStream(nil, []byte("Q")))
	if _, err := d.writer.AddStreamToPage(pageNumber-1, bigQRef, nil, false); err != nil {
		return fmt.Errorf("wrap page %d content: %w", pageNumber, err)
	}

	d.wrapped[pageNumber] = true
	return nil
}

func (ef *embeddedFont) ref() generic.Reference {
	return ef.compositeRef
}

// widthArray builds the CID W array for the glyphs drawn with this font,
// in 1000-per-em units.
func (ef *embeddedFont) widthArray() generic.ArrayObject {
	glyphs := make([]int, 0, len(ef.widths))
	for g := range ef.widths {
		glyphs = append(glyphs, int(g))
	}
	sort.Ints(glyphs)

	arr := make(generic.ArrayObject, 0, len(glyphs)*2)
	for _, g := range glyphs {
		arr = append(arr, generic.IntegerObject(g))
		arr = append(arr, generic.ArrayObject{generic.RealObject(ef.widths[uint16(g)])})
	}
	return arr
}

// recordWidths notes the advance widths of the glyphs used by text, scaled
// to 1000 units per em, so the W array can be emitted on serialization.
func (ef *embeddedFont) recordWidths(text string) {
	m := ef.font.ttf.Metrics()
	scale := 1.0
	if m.UnitsPerEm > 0 {
		scale = 1000 / m.UnitsPerEm
	}

	glyphs := ef.font.ttf.EncodeToGlyphs(text)
	i := 0
	for _, r := range text {
		if i >= len(glyphs) {
			break
		}
		g := glyphs[i]
		i++
		if _, ok := ef.widths[g]; !ok {
			ef.widths[g] = m.GetWidth(r) * scale
		}
	}
}

func numericValue(obj generic.PdfObject) float64 {
	switch v := obj.(type) {
	case generic.IntegerObject:
		return float64(v)
	case generic.RealObject:
		return float64(v)
	default:
		return 0
	}
}
