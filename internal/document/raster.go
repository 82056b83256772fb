package document

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/draw"
)

// rasterCache memoizes page rasterization for one parse run. Rasterizing is
// the only expensive loader operation, so it is deferred until the OCR
// fallback actually asks for a page, and each page is decoded at most once
// even when several invocations race for it.
type rasterCache struct {
	doc     *SourceDocument
	mu      sync.Mutex
	images  map[int][]byte
	errs    map[int]error
	decodes int
}

func newRasterCache(doc *SourceDocument) *rasterCache {
	return &rasterCache{
		doc:    doc,
		images: make(map[int][]byte),
		errs:   make(map[int]error),
	}
}

// get returns the PNG for page i, producing and caching it on first use.
func (c *rasterCache) get(i, minWidth int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if img, ok := c.images[i]; ok {
		return img, nil
	}
	if err, ok := c.errs[i]; ok {
		return nil, err
	}

	c.decodes++
	img, err := c.produce(i, minWidth)
	if err != nil {
		c.errs[i] = err
		return nil, err
	}
	c.images[i] = img
	return img, nil
}

func (c *rasterCache) decodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decodes
}

func (c *rasterCache) produce(i, minWidth int) ([]byte, error) {
	switch c.doc.format {
	case FormatImage:
		if i != 0 {
			return nil, fmt.Errorf("image document has a single page, requested %d", i)
		}
		img, _, err := image.Decode(bytes.NewReader(c.doc.raw))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		return encodeUpscaled(img, minWidth)
	case FormatPDF:
		return rasterizePDFPage(c.doc.raw, i, minWidth)
	default:
		return nil, fmt.Errorf("format %s has no raster source", c.doc.format)
	}
}

// rasterizePDFPage recovers the scanned bitmap of a PDF page by extracting
// its largest image XObject. Scanned-sheet exports place the page scan as one
// full-page image, so this recovers the page content without a PDF renderer.
func rasterizePDFPage(raw []byte, pageIdx, minWidth int) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rasterize page %d: %v", pageIdx, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("reopen PDF: %w", err)
	}
	page := r.Page(pageIdx + 1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d not present", pageIdx)
	}

	obj, ok := largestImageXObject(page)
	if !ok {
		return nil, fmt.Errorf("page %d has no image XObject", pageIdx)
	}

	img, err := decodeImageXObject(obj)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIdx, err)
	}
	return encodeUpscaled(img, minWidth)
}

// largestImageXObject walks the page resources and returns the image XObject
// covering the most pixels.
func largestImageXObject(page pdf.Page) (pdf.Value, bool) {
	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return pdf.Value{}, false
	}
	xObjects := resources.Key("XObject")
	if xObjects.IsNull() || xObjects.Kind() != pdf.Dict {
		return pdf.Value{}, false
	}

	var best pdf.Value
	bestPixels := int64(0)
	found := false
	for _, key := range xObjects.Keys() {
		obj := xObjects.Key(key)
		if obj.IsNull() || obj.Key("Subtype").Name() != "Image" {
			continue
		}
		pixels := obj.Key("Width").Int64() * obj.Key("Height").Int64()
		if pixels > bestPixels {
			best, bestPixels, found = obj, pixels, true
		}
	}
	return best, found
}

// decodeImageXObject turns an image XObject into an image.Image. DCTDecode
// streams pass through the PDF filter chain as raw JPEG; FlateDecode streams
// are raw samples reconstructed from the declared geometry and color space.
func decodeImageXObject(obj pdf.Value) (image.Image, error) {
	width := int(obj.Key("Width").Int64())
	height := int(obj.Key("Height").Int64())
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}

	rc := obj.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read image stream: %w", err)
	}

	if lastFilter(obj) == "DCTDecode" {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode embedded JPEG: %w", err)
		}
		return img, nil
	}
	return imageFromSamples(data, width, height, obj)
}

// lastFilter returns the name of the outermost stream filter.
func lastFilter(obj pdf.Value) string {
	filter := obj.Key("Filter")
	switch filter.Kind() {
	case pdf.Name:
		return filter.Name()
	case pdf.Array:
		if n := filter.Len(); n > 0 {
			return filter.Index(n - 1).Name()
		}
	}
	return ""
}

// imageFromSamples builds a grayscale or RGB image from decompressed sample
// data. 1-bit monochrome scans (common for fax-style exports) are expanded to
// 8-bit gray.
func imageFromSamples(data []byte, width, height int, obj pdf.Value) (image.Image, error) {
	bpc := int(obj.Key("BitsPerComponent").Int64())
	if bpc == 0 {
		bpc = 8
	}
	colorSpace := obj.Key("ColorSpace").Name()

	components := 1
	if colorSpace == "DeviceRGB" {
		components = 3
	}

	switch {
	case bpc == 1 && components == 1:
		rowBytes := (width + 7) / 8
		if len(data) < rowBytes*height {
			return nil, fmt.Errorf("short 1-bit sample data: %d bytes for %dx%d", len(data), width, height)
		}
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				bit := data[y*rowBytes+x/8] >> (7 - uint(x%8)) & 1
				if bit == 1 {
					img.SetGray(x, y, color.Gray{Y: 0xff})
				}
			}
		}
		return img, nil
	case bpc == 8 && components == 1:
		if len(data) < width*height {
			return nil, fmt.Errorf("short gray sample data: %d bytes for %dx%d", len(data), width, height)
		}
		img := image.NewGray(image.Rect(0, 0, width, height))
		copy(img.Pix, data[:width*height])
		return img, nil
	case bpc == 8 && components == 3:
		if len(data) < width*height*3 {
			return nil, fmt.Errorf("short RGB sample data: %d bytes for %dx%d", len(data), width, height)
		}
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < width*height; i++ {
			img.Pix[i*4+0] = data[i*3+0]
			img.Pix[i*4+1] = data[i*3+1]
			img.Pix[i*4+2] = data[i*3+2]
			img.Pix[i*4+3] = 0xff
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported image encoding: %d bpc, colorspace %s", bpc, colorSpace)
	}
}

// encodeUpscaled re-encodes img as PNG, upscaling to minWidth when the source
// is smaller; low-resolution scans recognize poorly at native size.
func encodeUpscaled(img image.Image, minWidth int) ([]byte, error) {
	bounds := img.Bounds()
	if minWidth > 0 && bounds.Dx() < minWidth && bounds.Dx() > 0 {
		scale := float64(minWidth) / float64(bounds.Dx())
		dst := image.NewRGBA(image.Rect(0, 0, minWidth, int(float64(bounds.Dy())*scale)))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
