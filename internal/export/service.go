package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-extract/internal/store"
)

// Service produces XLSX bytes for exports of stored receipts.
type Service struct {
	db     store.DB
	logger *slog.Logger
}

func NewService(db store.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// ExportReceiptsXLSX returns an XLSX workbook (as bytes) of all stored
// receipts, one row per record.
func (s *Service) ExportReceiptsXLSX() ([]byte, error) {
	start := time.Now()

	recs, err := s.db.List()
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Purchase Date",
		"Store",
		"Item",
		"Price",
		"Tax",
		"Total",
		"Payment Method",
		"Warranty",
		"Source File",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		rd := r.Receipt
		if rd.PurchaseDate != nil {
			write(1, rd.PurchaseDate.Format("2006-01-02"))
		}
		write(2, strOrDash(rd.Store))
		write(3, strOrDash(rd.Title))
		if rd.Price != nil {
			write(4, fmt.Sprintf("%.2f", *rd.Price))
		}
		if rd.TaxAmount != nil {
			write(5, fmt.Sprintf("%.2f", *rd.TaxAmount))
		}
		if rd.TotalAmount != nil {
			write(6, fmt.Sprintf("%.2f", *rd.TotalAmount))
		}
		write(7, strOrDash(rd.PaymentMethod))
		if rd.WarrantyInfo != nil {
			write(8, truncate(*rd.WarrantyInfo, 140))
		}
		write(9, r.SourcePath)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "C", 28) // store, item
	_ = f.SetColWidth(sheet, "D", "F", 12) // amounts
	_ = f.SetColWidth(sheet, "G", "G", 16) // payment
	_ = f.SetColWidth(sheet, "H", "H", 48) // warranty
	_ = f.SetColWidth(sheet, "I", "I", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "—"
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
