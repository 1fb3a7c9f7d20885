package pdfkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/georgepadayatti/gopdf/pdf/fonts"
	"go.uber.org/zap"
)

// Font is an embeddable TrueType font asset.
type Font struct {
	name string
	ttf  *fonts.TrueTypeFont
}

// Name returns the registry name the font was loaded under.
func (f *Font) Name() string {
	return f.name
}

// AscentAt returns the distance from the baseline to the top of the font's
// ascenders at the given size, in points.
func (f *Font) AscentAt(size float64) float64 {
	m := f.ttf.Metrics()
	if m.UnitsPerEm == 0 {
		return size * 0.8
	}
	return m.Ascender / m.UnitsPerEm * size
}

// registryFiles is the fixed set of cursive fonts offered for signature
// rendering, keyed by the label clients send.
var registryFiles = map[string]string{
	"Great Vibes":        "GreatVibes-Regular.ttf",
	"Dancing Script":     "DancingScript-VariableFont_wght.ttf",
	"Pacifico":           "Pacifico-Regular.ttf",
	"Satisfy":            "Satisfy-Regular.ttf",
	"Shadows Into Light": "ShadowsIntoLight-Regular.ttf",
	"Caveat":             "Caveat-VariableFont_wght.ttf",
	"Homemade Apple":     "HomemadeApple-Regular.ttf",
	"Indie Flower":       "IndieFlower-Regular.ttf",
}

// Library holds the loaded signature fonts. It is built once at startup and
// read-only afterwards, so concurrent resolves need no locking.
type Library struct {
	fonts       map[string]*Font
	defaultName string
}

// NewLibrary loads the signature font registry from dir. Assets that are
// missing or fail to parse are logged and skipped; the library is usable as
// long as the default font loaded.
func NewLibrary(dir, defaultName string, logger *zap.Logger) (*Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultName == "" {
		defaultName = "Great Vibes"
	}

	lib := &Library{
		fonts:       make(map[string]*Font, len(registryFiles)),
		defaultName: defaultName,
	}

	for name, file := range registryFiles {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			logger.Warn("signature font asset unavailable",
				zap.String("font", name), zap.Error(err))
			continue
		}
		ttf, err := fonts.LoadTrueTypeFont(sanitizeFontName(name), data)
		if err != nil {
			logger.Warn("signature font asset unreadable",
				zap.String("font", name), zap.Error(err))
			continue
		}
		lib.fonts[name] = &Font{name: name, ttf: ttf}
	}

	if _, ok := lib.fonts[defaultName]; !ok {
		return nil, fmt.Errorf("default signature font %q could not be loaded from %s", defaultName, dir)
	}

	return lib, nil
}

// Resolve maps a raw client font label to a loaded font asset, falling back
// to the default font when the label is unknown or its asset failed to load.
func (l *Library) Resolve(label string) *Font {
	if f, ok := l.fonts[NormalizeFontLabel(label)]; ok {
		return f
	}
	return l.fonts[l.defaultName]
}

// DefaultFont returns the fallback font.
func (l *Library) DefaultFont() *Font {
	return l.fonts[l.defaultName]
}

// Names lists the loaded font names.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.fonts))
	for name := range l.fonts {
		names = append(names, name)
	}
	return names
}

// NormalizeFontLabel strips quotes and CSS-style fallback lists from a font
// label, e.g. `"Great Vibes", cursive` becomes `Great Vibes`.
func NormalizeFontLabel(label string) string {
	label = strings.NewReplacer(`"`, "", `'`, "").Replace(label)
	if i := strings.Index(label, ","); i >= 0 {
		label = label[:i]
	}
	return strings.TrimSpace(label)
}

// sanitizeFontName produces a PDF-safe base font name.
func sanitizeFontName(name string) string {
	return strings.ReplaceAll(name, " ", "")
}
