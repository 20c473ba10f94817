// Package pipeline coordinates text acquisition (document or image) and field
// extraction into one ReceiptData per call. Each call owns its document
// handle; nothing is cached across invocations.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipt-extract/constants"
	"github.com/joseph-ayodele/receipt-extract/internal/common"
	"github.com/joseph-ayodele/receipt-extract/internal/document"
	"github.com/joseph-ayodele/receipt-extract/internal/fields"
	"github.com/joseph-ayodele/receipt-extract/internal/progress"
	"github.com/joseph-ayodele/receipt-extract/internal/recognize"
)

// Summary describes how the text behind a ReceiptData was obtained.
type Summary struct {
	Method     string // "pdf-text" | "pdf-ocr" | "pdf-text+ocr" | "image-ocr"
	Pages      int
	Confidence float32
	Duration   time.Duration
}

// Processor wires a text source and recognizer to the field extractor.
// Collaborators are injected; there are no package-level singletons.
type Processor struct {
	logger       *slog.Logger
	source       *document.Source
	recognizer   recognize.TextRecognizer
	fields       *fields.Extractor
	maxFileBytes int64
}

func NewProcessor(source *document.Source, recognizer recognize.TextRecognizer, extractor *fields.Extractor, maxFileBytes int64, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = fields.NewExtractor()
	}
	return &Processor{
		logger:       logger,
		source:       source,
		recognizer:   recognizer,
		fields:       extractor,
		maxFileBytes: maxFileBytes,
	}
}

// ProcessFile routes on file extension.
func (p *Processor) ProcessFile(ctx context.Context, path string, fn progress.Func) (fields.ReceiptData, Summary, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		return p.ProcessDocument(ctx, path, fn)
	case constants.IMAGE:
		img, err := document.LoadImage(path)
		if err != nil {
			return fields.ReceiptData{}, Summary{}, err
		}
		return p.ProcessImage(ctx, img)
	default:
		return fields.ReceiptData{}, Summary{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

// ProcessDocument runs the document pipeline: embedded text with OCR fallback,
// then field extraction on the combined blob.
func (p *Processor) ProcessDocument(ctx context.Context, path string, fn progress.Func) (fields.ReceiptData, Summary, error) {
	start := time.Now()

	pager, err := document.Open(path, p.maxFileBytes)
	if err != nil {
		return fields.ReceiptData{}, Summary{}, err
	}
	defer func() {
		if cerr := pager.Close(); cerr != nil {
			p.logger.Warn("close document", "path", path, "error", cerr)
		}
	}()

	rep := progress.NewReporter(fn)
	res, err := p.source.ProcessWithFallback(ctx, pager, rep)
	if err != nil {
		p.logger.Error("pipeline.document.failed", "path", path, "error", err)
		return fields.ReceiptData{}, Summary{}, err
	}

	text := recognize.Normalize(res.CombinedText)
	data := p.fields.Extract(text)
	sum := Summary{
		Method:     res.Method,
		Pages:      res.Pages,
		Confidence: recognize.HeuristicConfidence(text),
		Duration:   time.Since(start),
	}
	p.logger.Info("pipeline.document.ok",
		"path", path,
		"method", sum.Method,
		"pages", sum.Pages,
		"bytes", len(text),
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return data, sum, nil
}

// ProcessImage recognizes a single decoded bitmap and extracts fields from the
// space-joined lines. Recognition failure is terminal here: with one image
// there is no other page to fall back on.
func (p *Processor) ProcessImage(ctx context.Context, img image.Image) (fields.ReceiptData, Summary, error) {
	start := time.Now()

	lines, err := p.recognizer.Recognize(ctx, img)
	if err != nil {
		p.logger.Error("pipeline.image.failed", "error", err)
		return fields.ReceiptData{}, Summary{}, common.WrapError(err, "recognize image")
	}

	text := recognize.Normalize(recognize.JoinLines(lines, " "))
	if strings.TrimSpace(text) == "" {
		return fields.ReceiptData{}, Summary{},
			common.NewAppError("IMG_TEXT", "image yielded no text", common.ErrNoTextFound)
	}

	data := p.fields.Extract(text)
	sum := Summary{
		Method:     "image-ocr",
		Pages:      1,
		Confidence: blendConfidence(recognize.MeanConfidence(lines), recognize.HeuristicConfidence(text)),
		Duration:   time.Since(start),
	}
	p.logger.Info("pipeline.image.ok",
		"bytes", len(text),
		"confidence", sum.Confidence,
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return data, sum, nil
}

// blendConfidence weights engine-reported confidence over the text heuristic
// when the engine reported one at all.
func blendConfidence(ocr, heur float32) float32 {
	var conf float32
	if ocr > 0 {
		conf = 0.7*ocr + 0.3*heur
	} else {
		conf = heur
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
