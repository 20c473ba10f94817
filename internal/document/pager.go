package document

import (
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/go-fitz"

	"github.com/joseph-ayodele/receipt-extract/internal/common"
)

// MaxDocumentBytes is the default size guard. Documents above this are
// rejected before any parsing is attempted.
const MaxDocumentBytes int64 = 50 << 20

// Pager is a paginated document handle. The production implementation wraps
// go-fitz; tests supply doubles.
type Pager interface {
	// NumPages returns the page count.
	NumPages() int
	// Text returns the embedded text layer of page n (0-based).
	Text(n int) (string, error)
	// Image renders page n (0-based) to a bitmap.
	Image(n int) (image.Image, error)
	Close() error
}

type fitzPager struct {
	doc *fitz.Document
}

// Open opens the document at path, enforcing the size guard before parsing.
// maxBytes <= 0 falls back to MaxDocumentBytes.
func Open(path string, maxBytes int64) (Pager, error) {
	if maxBytes <= 0 {
		maxBytes = MaxDocumentBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.NewAppError("DOC_OPEN", "stat document", common.ErrInvalidDocument)
	}
	if info.Size() > maxBytes {
		return nil, common.NewAppError("DOC_SIZE",
			fmt.Sprintf("document is %d bytes, limit is %d", info.Size(), maxBytes),
			common.ErrFileTooLarge)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, common.NewAppError("DOC_PARSE", err.Error(), common.ErrInvalidDocument)
	}
	return &fitzPager{doc: doc}, nil
}

func (p *fitzPager) NumPages() int { return p.doc.NumPage() }

func (p *fitzPager) Text(n int) (string, error) {
	return p.doc.Text(n)
}

func (p *fitzPager) Image(n int) (image.Image, error) {
	return p.doc.Image(n)
}

func (p *fitzPager) Close() error { return p.doc.Close() }
