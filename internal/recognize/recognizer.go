package recognize

import (
	"context"
	"image"
	"strings"
)

// RecognizedLine is one line of recognized text with its confidence in 0..1.
type RecognizedLine struct {
	Text       string
	Confidence float32
}

// TextRecognizer turns a bitmap into ordered text lines. Implementations are
// injected into the pipeline so tests can supply doubles.
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]RecognizedLine, error)
}

// JoinLines joins recognized lines with the given separator, skipping blanks.
// Single-image callers join with spaces; multi-page callers join with newlines.
func JoinLines(lines []RecognizedLine, sep string) string {
	var parts []string
	for _, ln := range lines {
		if t := strings.TrimSpace(ln.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}

// MeanConfidence returns the average line confidence, or 0 for no lines.
func MeanConfidence(lines []RecognizedLine) float32 {
	if len(lines) == 0 {
		return 0
	}
	var sum float32
	for _, ln := range lines {
		sum += ln.Confidence
	}
	return sum / float32(len(lines))
}
