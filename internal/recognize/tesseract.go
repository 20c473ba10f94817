package recognize

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/receipt-extract/internal/common"
)

// Config configures the tesseract engine.
type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// TesseractEngine is the production TextRecognizer. It writes the bitmap to a
// temp PNG and shells out to tesseract in TSV mode so every line carries a
// confidence value.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseractEngine(cfg Config, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &TesseractEngine{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]RecognizedLine, error) {
	tmpDir, err := os.MkdirTemp("", "rx-ocr-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", rerr)
		}
	}()

	in := filepath.Join(tmpDir, "page.png")
	f, err := os.Create(in)
	if err != nil {
		return nil, err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	lines, err := e.tesseractTSV(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrProcessingFailed, err)
	}
	if len(lines) == 0 {
		// TSV can come back empty on odd inputs where plain mode still reads
		// something; retry once in plain mode with unknown confidence.
		txt, _, perr := e.tesseractPlain(ctx, in)
		if perr != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrProcessingFailed, perr)
		}
		for _, ln := range strings.Split(txt, "\n") {
			if t := strings.TrimSpace(ln); t != "" {
				lines = append(lines, RecognizedLine{Text: t})
			}
		}
	}
	return lines, nil
}

func (e *TesseractEngine) tesseractPlain(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}

// tesseractTSV runs tesseract in TSV mode and groups word rows into lines.
// Word confidences (0..100) are averaged per line and scaled to 0..1.
func (e *TesseractEngine) tesseractTSV(ctx context.Context, path string) ([]RecognizedLine, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		e.logger.Error("tesseract tsv failed", "stderr", truncate(string(errb), 2<<10))
		return nil, fmt.Errorf("tesseract TSV: %w", err)
	}
	return parseTSVLines(string(out)), nil
}

// parseTSVLines converts tesseract TSV output into ordered RecognizedLines.
// Columns: level page block par line word left top width height conf text.
func parseTSVLines(tsv string) []RecognizedLine {
	type lineAcc struct {
		words   []string
		confSum float64
		confN   int
	}

	var lines []RecognizedLine
	var key string
	var acc *lineAcc

	flush := func() {
		if acc == nil || len(acc.words) == 0 {
			return
		}
		var conf float32
		if acc.confN > 0 {
			conf = float32(acc.confSum / float64(acc.confN) / 100.0)
		}
		lines = append(lines, RecognizedLine{
			Text:       strings.Join(acc.words, " "),
			Confidence: conf,
		})
		acc = nil
	}

	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue // defensive
		}
		word := strings.TrimSpace(cols[len(cols)-1])
		if word == "" {
			continue
		}
		k := strings.Join(cols[1:5], "/") // page/block/par/line
		if k != key {
			flush()
			key = k
			acc = &lineAcc{}
		}
		if acc == nil {
			acc = &lineAcc{}
		}
		acc.words = append(acc.words, word)
		confStr := cols[10]
		if confStr != "" && confStr != "-1" {
			if v, err := strconv.ParseFloat(confStr, 64); err == nil {
				acc.confSum += v
				acc.confN++
			}
		}
	}
	flush()
	return lines
}
