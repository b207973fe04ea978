package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"currentadda-pipeline/lib/scrapers/pendulum/quiz"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/codes"
)

var PdfProcessFailed = fmt.Errorf("The browser process failed to print the pdf.")

// pdfSizePerPage is the expected pdf size per page. Oversized output
// usually means an asset failed to load and tailwind fell back to
// unstyled markup, so it is logged for inspection but not fatal.
const pdfSizePerPage = 256 * 1024

// RenderPdf writes the themed html document and prints it to pdf with
// a headless browser. Returns the pdf path.
func (s *Service) RenderPdf(ctx context.Context, source quiz.Quiz, date, stamp string) (string, error) {
	ctx, span := tracer.Start(ctx, "RenderPdf")
	defer span.End()

	htmlPath, err := s.WriteHtml(ctx, source, date, stamp)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(s.pdfDir, 0755)
	if err != nil {
		return "", fmt.Errorf("create pdf dir: %w", err)
	}
	pdfPath := s.PdfPath(stamp)

	err = printToPdf(ctx, htmlPath, pdfPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pdf printing failed")
		return "", err
	}

	info, err := os.Stat(pdfPath)
	if err != nil {
		return "", fmt.Errorf("stat pdf: %w", err)
	}
	slog.InfoContext(ctx, "generated pdf", "path", pdfPath, "kb", info.Size()/1024)

	// The cover and the promo block print as pages of their own.
	limit := int64(len(source.Questions)+2) * pdfSizePerPage
	if info.Size() > limit {
		slog.WarnContext(ctx, "pdf larger than expected", "size", info.Size(), "limit", limit)
	}

	return pdfPath, nil
}

func printToPdf(ctx context.Context, htmlPath, pdfPath string) error {
	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute*2)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+absPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Give the webfonts and the tailwind runtime time to settle.
		chromedp.Sleep(time.Second*2),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var printErr error
			pdf, _, printErr = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return printErr
		}),
	)
	if err != nil {
		slog.ErrorContext(ctx, "browser pdf printing failed", "err", err)
		return PdfProcessFailed
	}

	return os.WriteFile(pdfPath, pdf, 0644)
}
