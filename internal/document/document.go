// Package document loads character-sheet documents and classifies their pages.
//
// A SourceDocument is immutable once loaded: extraction strategies may run over
// it concurrently without locking. The only mutable attachment is the raster
// cache, which is internally synchronized and scoped to one parse run.
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrUnreadableDocument is returned when the document container cannot be
// parsed at all. It is the only fatal error the loader produces; everything
// else degrades to reduced coverage.
var ErrUnreadableDocument = errors.New("unreadable document")

// Format identifies the container format of a loaded document.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatText  Format = "text"
	FormatDOCX  Format = "docx"
	FormatXLSX  Format = "xlsx"
	FormatImage Format = "image"
)

// Token is one word-level token, optionally with a page position (PDF only).
type Token struct {
	Text     string
	X, Y     float64
	FontSize float64
	HasPos   bool
}

// Page holds the extractable content of one document page.
type Page struct {
	Index   int
	Text    string
	Tokens  []Token
	Width   float64
	Height  float64
	Density float64
	// ImageOnly marks pages whose density fell below the loader threshold;
	// they are OCR candidates even if a few glyphs were extractable.
	ImageOnly bool
}

// SourceDocument owns the raw bytes and classified pages of one document.
type SourceDocument struct {
	raw    []byte
	format Format
	hash   string
	pages  []Page
	raster *rasterCache
}

// Load parses raw document bytes into a SourceDocument. ext is the file
// extension hint including the leading dot; when empty the format is sniffed
// from the content. densityThreshold marks pages below it as image-only.
// Returns ErrUnreadableDocument when the container cannot be opened.
func Load(raw []byte, ext string, densityThreshold float64) (*SourceDocument, error) {
	format := detectFormat(raw, strings.ToLower(ext))

	doc := &SourceDocument{
		raw:    raw,
		format: format,
		hash:   contentHash(raw),
	}
	doc.raster = newRasterCache(doc)

	var err error
	switch format {
	case FormatPDF:
		doc.pages, err = loadPDFPages(raw)
	case FormatXLSX:
		doc.pages, err = loadExcelPages(raw)
	case FormatDOCX:
		doc.pages, err = loadDOCXPages(raw)
	case FormatImage:
		doc.pages, err = loadImagePages(raw)
	default:
		doc.pages, err = loadTextPages(raw)
	}
	if err != nil {
		return nil, err
	}

	for i := range doc.pages {
		p := &doc.pages[i]
		p.Index = i
		p.Density = densityScore(p)
		p.ImageOnly = p.Density < densityThreshold
	}
	return doc, nil
}

// detectFormat picks a format from the extension, falling back to content sniffing.
func detectFormat(raw []byte, ext string) Format {
	switch ext {
	case ".pdf":
		return FormatPDF
	case ".xlsx":
		return FormatXLSX
	case ".docx":
		return FormatDOCX
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return FormatImage
	case ".txt", ".md", "":
		// fall through to sniffing for empty ext
	default:
		return FormatText
	}
	if ext != "" {
		return FormatText
	}
	switch {
	case bytes.HasPrefix(raw, []byte("%PDF")):
		return FormatPDF
	case bytes.HasPrefix(raw, []byte("\x89PNG")),
		bytes.HasPrefix(raw, []byte("\xff\xd8\xff")):
		return FormatImage
	case bytes.HasPrefix(raw, []byte("PK\x03\x04")):
		// OOXML package; DOCX and XLSX share the zip signature.
		if zipContains(raw, "xl/workbook.xml") {
			return FormatXLSX
		}
		return FormatDOCX
	default:
		return FormatText
	}
}

// contentHash returns the hex sha256 of the raw bytes. It keys run-scoped
// memoization and makes records for identical inputs identical.
func contentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Format returns the detected container format.
func (d *SourceDocument) Format() Format { return d.format }

// Hash returns the content hash of the raw bytes.
func (d *SourceDocument) Hash() string { return d.hash }

// PageCount returns the number of pages.
func (d *SourceDocument) PageCount() int { return len(d.pages) }

// Page returns the page at index i. The returned page must not be modified.
func (d *SourceDocument) Page(i int) *Page {
	if i < 0 || i >= len(d.pages) {
		return nil
	}
	return &d.pages[i]
}

// Pages returns all pages. The returned slice must not be modified.
func (d *SourceDocument) Pages() []Page { return d.pages }

// ImageOnlyPages returns the indexes of pages classified below the density threshold.
func (d *SourceDocument) ImageOnlyPages() []int {
	var out []int
	for i := range d.pages {
		if d.pages[i].ImageOnly {
			out = append(out, i)
		}
	}
	return out
}

// HasPositions reports whether any page carries positioned tokens.
func (d *SourceDocument) HasPositions() bool {
	for i := range d.pages {
		for j := range d.pages[i].Tokens {
			if d.pages[i].Tokens[j].HasPos {
				return true
			}
		}
	}
	return false
}

// CanRasterize reports whether the document has a raster source for OCR.
func (d *SourceDocument) CanRasterize() bool {
	return d.format == FormatPDF || d.format == FormatImage
}

// Rasterize returns a PNG rendering of page i, producing it at most once per
// run. Errors are per-page and recoverable; the caller skips the page.
func (d *SourceDocument) Rasterize(i int, minWidth int) ([]byte, error) {
	if !d.CanRasterize() {
		return nil, fmt.Errorf("format %s has no raster source", d.format)
	}
	return d.raster.get(i, minWidth)
}

// RasterizationCount returns how many pages have actually been rasterized in
// this run. Used to assert that purely textual documents never pay raster cost.
func (d *SourceDocument) RasterizationCount() int {
	return d.raster.decodeCount()
}
