package document

import "unicode"

// wordsPerUnit calibrates density for pages without position data: a page
// with this many word tokens scores 1.0.
const wordsPerUnit = 25.0

// areaUnit converts page area in PDF points² into density units, so a full
// US-letter page of body text scores well above the default threshold.
const areaUnit = 10000.0

// densityScore estimates how much of a page is machine-readable text.
// For positioned pages it is word tokens per unit of token-spread area; for
// flat text it is a simple word-count ratio. Higher means more textual.
func densityScore(p *Page) float64 {
	words := 0
	minX, minY := 1e18, 1e18
	maxX, maxY := -1e18, -1e18
	positioned := 0
	for i := range p.Tokens {
		t := &p.Tokens[i]
		if !isWordToken(t.Text) {
			continue
		}
		words++
		if t.HasPos {
			positioned++
			if t.X < minX {
				minX = t.X
			}
			if t.Y < minY {
				minY = t.Y
			}
			if t.X > maxX {
				maxX = t.X
			}
			if t.Y > maxY {
				maxY = t.Y
			}
		}
	}
	if words == 0 {
		return 0
	}
	if positioned > 1 {
		area := (maxX - minX) * (maxY - minY)
		if area < areaUnit {
			// Degenerate spread: a handful of overlaid glyphs on a scan.
			area = pageArea(p)
		}
		if area <= 0 {
			area = areaUnit
		}
		return float64(words) / (area / areaUnit)
	}
	return float64(words) / wordsPerUnit
}

func pageArea(p *Page) float64 {
	if p.Width > 0 && p.Height > 0 {
		return p.Width * p.Height
	}
	// US letter in PDF points.
	return 612.0 * 792.0
}

// isWordToken reports whether a token counts as a recognizable word for
// density purposes: it must contain at least one letter or digit.
func isWordToken(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
