// Package document produces the best available text representation of a
// paginated document: cheap embedded-text extraction first, rasterized-page
// OCR as the fallback, with page images kept available for callers that want
// image-based recognition unconditionally.
package document

import (
	"context"
	"image"
	"image/draw"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/receipt-extract/internal/common"
	"github.com/joseph-ayodele/receipt-extract/internal/progress"
	"github.com/joseph-ayodele/receipt-extract/internal/recognize"
)

// DefaultMaxOCRPages caps how many pages the OCR fallback renders.
const DefaultMaxOCRPages = 10

// Result is the outcome of ProcessWithFallback. It is ephemeral: consumed by
// field extraction and discarded.
type Result struct {
	CombinedText string
	PageImages   []image.Image
	Pages        int
	Method       string // "pdf-text" | "pdf-ocr" | "pdf-text+ocr"
}

// Source unifies embedded-text extraction and rasterized-page OCR.
type Source struct {
	recognizer  recognize.TextRecognizer
	maxOCRPages int
	logger      *slog.Logger
}

func NewSource(recognizer recognize.TextRecognizer, maxOCRPages int, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if maxOCRPages <= 0 {
		maxOCRPages = DefaultMaxOCRPages
	}
	return &Source{recognizer: recognizer, maxOCRPages: maxOCRPages, logger: logger}
}

// EmbeddedText walks each page in order and concatenates the embedded text
// layers with newline separators. Returns ErrNoTextFound if every page is
// empty after trimming.
func (s *Source) EmbeddedText(pager Pager) (string, error) {
	var b strings.Builder
	for i := 0; i < pager.NumPages(); i++ {
		txt, err := pager.Text(i)
		if err != nil {
			s.logger.Warn("page text extraction failed", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(txt) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", common.NewAppError("DOC_TEXT", "no embedded text layer", common.ErrNoTextFound)
	}
	return out, nil
}

// RasterizePages renders up to maxPages pages (0 = all) to bitmaps on a white
// background, preserving page aspect ratio. Pages that fail to render are
// skipped.
func (s *Source) RasterizePages(pager Pager, maxPages int) []image.Image {
	n := pager.NumPages()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	images := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		img, err := pager.Image(i)
		if err != nil {
			s.logger.Warn("page rasterization failed", "page", i, "error", err)
			continue
		}
		images = append(images, whiteBackground(img))
	}
	return images
}

// whiteBackground composites img over an opaque white canvas. Receipts are
// typically scanned on light backgrounds; this avoids artifacts from
// transparent regions.
func whiteBackground(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return out
}

// ProcessWithFallback runs the full text-acquisition pipeline: embedded text
// first, then OCR over rasterized pages, concatenated direct-first. If the
// combined result is still empty and at least one page image exists, page 1
// alone gets one more OCR pass. Individual page OCR failures are logged and
// skipped; a single unreadable page must not abort the document.
//
// Progress: 0.20 after direct extraction, 0.40 after rasterization, then
// linear to 0.90 across OCR'd pages, 1.0 on completion.
func (s *Source) ProcessWithFallback(ctx context.Context, pager Pager, rep *progress.Reporter) (Result, error) {
	direct, err := s.EmbeddedText(pager)
	if err != nil {
		// Absent text layer just means we lean on OCR.
		direct = ""
	}
	rep.Report(0.20)

	images := s.RasterizePages(pager, s.maxOCRPages)
	rep.Report(0.40)

	var ocrParts []string
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		lines, rerr := s.recognizer.Recognize(ctx, img)
		if rerr != nil {
			s.logger.Warn("page ocr failed, continuing", "page", i, "error", rerr)
		} else if txt := recognize.JoinLines(lines, "\n"); txt != "" {
			ocrParts = append(ocrParts, txt)
		}
		rep.Report(0.40 + 0.50*float64(i+1)/float64(len(images)))
	}
	ocrText := strings.Join(ocrParts, "\n")

	// Direct text first: concatenation order decides which extraction pattern
	// is found first downstream.
	combined := strings.TrimSpace(direct)
	if ocrText != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += ocrText
	}

	if combined == "" && len(images) > 0 {
		lines, rerr := s.recognizer.Recognize(ctx, images[0])
		if rerr != nil {
			s.logger.Error("first-page ocr retry failed", "error", rerr)
		} else {
			combined = recognize.JoinLines(lines, "\n")
		}
	}

	if strings.TrimSpace(combined) == "" {
		return Result{PageImages: images, Pages: pager.NumPages()},
			common.NewAppError("DOC_TEXT", "document yielded no text", common.ErrNoTextFound)
	}

	method := "pdf-text"
	if direct == "" {
		method = "pdf-ocr"
	} else if ocrText != "" {
		method = "pdf-text+ocr"
	}

	rep.Report(1.0)
	return Result{
		CombinedText: combined,
		PageImages:   images,
		Pages:        pager.NumPages(),
		Method:       method,
	}, nil
}
