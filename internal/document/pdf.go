package document

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ledongthuc/pdf"
)

// rowTolerance is the Y distance in points within which positioned text
// fragments are treated as the same line.
const rowTolerance = 3.0

// wordGapFactor is the fraction of the font size beyond which a horizontal
// gap separates two words.
const wordGapFactor = 0.35

// loadPDFPages extracts per-page text and positioned tokens from PDF bytes.
func loadPDFPages(raw []byte) ([]Page, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: open PDF: %v", ErrUnreadableDocument, err)
	}

	numPages := r.NumPage()
	pages := make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pages = append(pages, loadPDFPage(r.Page(i)))
	}
	return pages, nil
}

// loadPDFPage reads one page, recovering from parser panics on malformed
// content streams; a failed page degrades to an empty (image-only) page.
func loadPDFPage(page pdf.Page) (out Page) {
	defer func() {
		if recover() != nil {
			out = Page{}
		}
	}()

	if page.V.IsNull() {
		return Page{}
	}

	out.Width, out.Height = pdfPageSize(page)

	if text, err := page.GetPlainText(nil); err == nil {
		out.Text = text
	}

	content := page.Content()
	out.Tokens = mergeFragments(content.Text)

	// Some PDFs yield structured content but empty plain text; rebuild the
	// flat text from tokens so downstream token scans still see the page.
	if out.Text == "" && len(out.Tokens) > 0 {
		var b bytes.Buffer
		for i := range out.Tokens {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(out.Tokens[i].Text)
		}
		out.Text = b.String()
	}
	return out
}

func pdfPageSize(page pdf.Page) (w, h float64) {
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Len() < 4 {
		return 0, 0
	}
	w = box.Index(2).Float64() - box.Index(0).Float64()
	h = box.Index(3).Float64() - box.Index(1).Float64()
	return w, h
}

// mergeFragments groups raw text fragments into word tokens: fragments on the
// same row whose gap is below a fraction of the font size are joined, larger
// gaps split words. Rows are emitted top-to-bottom, left-to-right.
func mergeFragments(texts []pdf.Text) []Token {
	frags := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S == "" || t.S == "\n" || t.S == " " {
			continue
		}
		frags = append(frags, t)
	}
	if len(frags) == 0 {
		return nil
	}

	// Top-to-bottom (PDF Y grows upward), then left-to-right.
	sort.SliceStable(frags, func(i, j int) bool {
		if diff := frags[i].Y - frags[j].Y; diff > rowTolerance || diff < -rowTolerance {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})

	var tokens []Token
	var cur bytes.Buffer
	var curStart pdf.Text
	var lastEnd float64
	var lastY float64

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		for _, part := range splitSpaces(cur.String()) {
			tokens = append(tokens, Token{
				Text:     part,
				X:        curStart.X,
				Y:        curStart.Y,
				FontSize: curStart.FontSize,
				HasPos:   true,
			})
		}
		cur.Reset()
	}

	for i, f := range frags {
		sameRow := i > 0 && abs(f.Y-lastY) <= rowTolerance
		gap := f.X - lastEnd
		maxGap := f.FontSize * wordGapFactor
		if maxGap <= 0 {
			maxGap = 2.0
		}
		if i == 0 || !sameRow || gap > maxGap {
			flush()
			curStart = f
		}
		cur.WriteString(f.S)
		lastEnd = f.X + f.W
		lastY = f.Y
	}
	flush()
	return tokens
}

// splitSpaces breaks a merged fragment on embedded spaces; fragments from
// text-showing operators often contain whole phrases.
func splitSpaces(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
