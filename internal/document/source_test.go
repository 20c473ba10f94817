package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/receipt-extract/internal/common"
	"github.com/joseph-ayodele/receipt-extract/internal/fields"
	"github.com/joseph-ayodele/receipt-extract/internal/progress"
	"github.com/joseph-ayodele/receipt-extract/internal/recognize"
)

func TestDocument(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Document Suite")
}

// fakePager serves canned page text and bitmaps.
type fakePager struct {
	texts    []string
	textErrs map[int]error
}

func (p *fakePager) NumPages() int { return len(p.texts) }

func (p *fakePager) Text(n int) (string, error) {
	if err := p.textErrs[n]; err != nil {
		return "", err
	}
	return p.texts[n], nil
}

func (p *fakePager) Image(n int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (p *fakePager) Close() error { return nil }

// fakeRecognizer returns one canned response per call, in order.
type fakeRecognizer struct {
	responses []struct {
		lines []recognize.RecognizedLine
		err   error
	}
	calls int
}

func (r *fakeRecognizer) page(text string) {
	r.responses = append(r.responses, struct {
		lines []recognize.RecognizedLine
		err   error
	}{lines: []recognize.RecognizedLine{{Text: text, Confidence: 0.9}}})
}

func (r *fakeRecognizer) fail(err error) {
	r.responses = append(r.responses, struct {
		lines []recognize.RecognizedLine
		err   error
	}{err: err})
}

func (r *fakeRecognizer) Recognize(ctx context.Context, img image.Image) ([]recognize.RecognizedLine, error) {
	if r.calls >= len(r.responses) {
		return nil, nil
	}
	resp := r.responses[r.calls]
	r.calls++
	return resp.lines, resp.err
}

var _ = Describe("Source", func() {
	var (
		rec    *fakeRecognizer
		source *Source
	)

	BeforeEach(func() {
		rec = &fakeRecognizer{}
		source = NewSource(rec, 0, nil)
	})

	Describe("EmbeddedText", func() {
		It("concatenates page text layers in order", func() {
			pager := &fakePager{texts: []string{"page one", "page two"}}
			Expect(source.EmbeddedText(pager)).To(Equal("page one\npage two"))
		})

		It("skips whitespace-only pages", func() {
			pager := &fakePager{texts: []string{"  \n ", "page two"}}
			Expect(source.EmbeddedText(pager)).To(Equal("page two"))
		})

		It("returns ErrNoTextFound when every page is empty", func() {
			pager := &fakePager{texts: []string{"", "   "}}
			_, err := source.EmbeddedText(pager)
			Expect(errors.Is(err, common.ErrNoTextFound)).To(BeTrue())
		})

		It("continues past a failing page", func() {
			pager := &fakePager{
				texts:    []string{"", "page two"},
				textErrs: map[int]error{0: errors.New("boom")},
			}
			Expect(source.EmbeddedText(pager)).To(Equal("page two"))
		})
	})

	Describe("RasterizePages", func() {
		It("caps the page count", func() {
			pager := &fakePager{texts: []string{"a", "b", "c"}}
			Expect(source.RasterizePages(pager, 2)).To(HaveLen(2))
		})

		It("renders all pages when uncapped", func() {
			pager := &fakePager{texts: []string{"a", "b", "c"}}
			Expect(source.RasterizePages(pager, 0)).To(HaveLen(3))
		})

		It("composites onto an opaque white background", func() {
			pager := &fakePager{texts: []string{"a"}}
			images := source.RasterizePages(pager, 0)
			Expect(images).To(HaveLen(1))
			r, g, b, a := images[0].At(0, 0).RGBA()
			Expect([4]uint32{r, g, b, a}).To(Equal([4]uint32{0xffff, 0xffff, 0xffff, 0xffff}))
		})
	})

	Describe("ProcessWithFallback", func() {
		It("prefers the embedded text layer", func() {
			pager := &fakePager{texts: []string{"Total: $10.00"}}
			res, err := source.ProcessWithFallback(context.Background(), pager, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CombinedText).To(Equal("Total: $10.00"))
			Expect(res.Method).To(Equal("pdf-text"))
		})

		It("keeps pages in document order so the first match wins", func() {
			extractor := fields.NewExtractor()

			pager := &fakePager{texts: []string{"Total: $10.00", "Total: $20.00"}}
			res, err := source.ProcessWithFallback(context.Background(), pager, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(extractor.ExtractPrice(res.CombinedText)).To(HaveValue(Equal(10.00)))

			swapped := &fakePager{texts: []string{"Total: $20.00", "Total: $10.00"}}
			res, err = source.ProcessWithFallback(context.Background(), swapped, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(extractor.ExtractPrice(res.CombinedText)).To(HaveValue(Equal(20.00)))
		})

		It("falls back to OCR when no text layer exists", func() {
			rec.page("Total: $9.99")
			pager := &fakePager{texts: []string{""}}
			res, err := source.ProcessWithFallback(context.Background(), pager, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CombinedText).To(Equal("Total: $9.99"))
			Expect(res.Method).To(Equal("pdf-ocr"))
		})

		It("concatenates direct text before OCR text", func() {
			rec.page("ocr tail")
			pager := &fakePager{texts: []string{"direct head"}}
			res, err := source.ProcessWithFallback(context.Background(), pager, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CombinedText).To(Equal("direct head\nocr tail"))
			Expect(res.Method).To(Equal("pdf-text+ocr"))
		})

		It("continues past an OCR failure on one page", func() {
			rec.fail(fmt.Errorf("%w: engine crashed", common.ErrProcessingFailed))
			rec.page("page two text")
			pager := &fakePager{texts: []string{"", ""}}
			res, err := source.ProcessWithFallback(context.Background(), pager, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CombinedText).To(Equal("page two text"))
		})

		It("retries page one alone when the combined result is empty", func() {
			rec.fail(errors.New("transient"))
			rec.page("second chance")
			pager := &fakePager{texts: []string{""}}
			res, err := source.ProcessWithFallback(context.Background(), pager, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CombinedText).To(Equal("second chance"))
		})

		It("returns ErrNoTextFound when nothing at all is readable", func() {
			pager := &fakePager{texts: []string{""}}
			_, err := source.ProcessWithFallback(context.Background(), pager, nil)
			Expect(errors.Is(err, common.ErrNoTextFound)).To(BeTrue())
		})

		It("reports non-decreasing progress ending at exactly one", func() {
			var observed []float64
			rep := progress.NewReporter(func(v float64) { observed = append(observed, v) })

			pager := &fakePager{texts: []string{"page one", "page two"}}
			_, err := source.ProcessWithFallback(context.Background(), pager, rep)
			Expect(err).NotTo(HaveOccurred())

			Expect(observed).NotTo(BeEmpty())
			last := 0.0
			for _, v := range observed {
				Expect(v).To(BeNumerically(">=", last))
				last = v
			}
			Expect(observed[0]).To(Equal(0.20))
			Expect(observed[len(observed)-1]).To(Equal(1.0))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			pager := &fakePager{texts: []string{""}}
			_, err := source.ProcessWithFallback(ctx, pager, nil)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("Open", func() {
	It("rejects oversized documents before parsing", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "big.pdf")
		Expect(os.WriteFile(path, []byte("not a real pdf"), 0644)).To(Succeed())

		_, err := Open(path, 4)
		Expect(errors.Is(err, common.ErrFileTooLarge)).To(BeTrue())
	})

	It("maps a missing file to ErrInvalidDocument", func() {
		_, err := Open(filepath.Join(GinkgoT().TempDir(), "absent.pdf"), 0)
		Expect(errors.Is(err, common.ErrInvalidDocument)).To(BeTrue())
	})
})
