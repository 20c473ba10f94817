package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-extract/internal/common"
	"github.com/joseph-ayodele/receipt-extract/internal/document"
	"github.com/joseph-ayodele/receipt-extract/internal/export"
	"github.com/joseph-ayodele/receipt-extract/internal/fields"
	"github.com/joseph-ayodele/receipt-extract/internal/pipeline"
	"github.com/joseph-ayodele/receipt-extract/internal/recognize"
	"github.com/joseph-ayodele/receipt-extract/internal/store"
)

const version = "0.3.0"

var (
	verbose      bool
	saveResult   bool
	showProgress bool
	exportPath   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "receipt-extract",
		Short:         "Extract structured purchase data from receipt images and PDFs",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	extractCmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Run the extraction pipeline on a receipt image or PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	extractCmd.Flags().BoolVar(&saveResult, "save", false, "save the extracted receipt to the local store")
	extractCmd.Flags().BoolVar(&showProgress, "progress", false, "print progress updates to stderr")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored receipts",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored receipts to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "receipts.xlsx", "output workbook path")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(extractCmd, listCmd, exportCmd, versionCmd)
	return root
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := common.LoadConfig()
	logger := slog.Default()

	engine := recognize.NewTesseractEngine(recognize.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)
	source := document.NewSource(engine, cfg.OCR.MaxOCRPages, logger)
	proc := pipeline.NewProcessor(source, engine, fields.NewExtractor(), cfg.OCR.MaxFileBytes, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.OCR.Timeout)
	defer cancel()

	var fn func(float64)
	if showProgress {
		fn = func(v float64) { fmt.Fprintf(os.Stderr, "progress: %3.0f%%\n", v*100) }
	}

	data, sum, err := proc.ProcessFile(ctx, args[0], fn)
	if err != nil {
		logger.Error("extraction failed", "path", args[0], "error", err)
		return err
	}
	logger.Info("extraction ok",
		"path", args[0],
		"method", sum.Method,
		"pages", sum.Pages,
		"confidence", sum.Confidence,
		"duration_ms", sum.Duration.Milliseconds(),
	)

	if saveResult {
		db, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.Error("close store", "error", cerr)
			}
		}()
		rec := &store.Record{SourcePath: args[0], Method: sum.Method, Receipt: data}
		if err := db.Save(rec); err != nil {
			return err
		}
		logger.Info("receipt saved", "id", rec.ID.String())
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := common.LoadConfig()
	logger := slog.Default()

	db, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("close store", "error", cerr)
		}
	}()

	recs, err := db.List()
	if err != nil {
		return err
	}
	for _, r := range recs {
		storeName := ""
		if r.Receipt.Store != nil {
			storeName = *r.Receipt.Store
		}
		date := ""
		if r.Receipt.PurchaseDate != nil {
			date = r.Receipt.PurchaseDate.Format("2006-01-02")
		}
		total := ""
		if r.Receipt.TotalAmount != nil {
			total = fmt.Sprintf("%.2f", *r.Receipt.TotalAmount)
		}
		fmt.Printf("%s\t%s\t%-24s\t%s\n", r.ID, date, storeName, total)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := common.LoadConfig()
	logger := slog.Default()

	db, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("close store", "error", cerr)
		}
	}()

	svc := export.NewService(db, logger)
	buf, err := svc.ExportReceiptsXLSX()
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportPath, buf, 0644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	logger.Info("export written", "path", exportPath, "bytes", len(buf))
	return nil
}
