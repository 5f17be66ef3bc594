// Package ingest turns scanned math worksheets (PDF) into per-page
// markdown plus topic suggestions for the generation engine.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/home"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
)

// Request contains the parameters for ingesting a worksheet.
type Request struct {
	PDFPath string
	// Title is optional; derived from the filename if empty.
	Title  string
	Logger *slog.Logger
}

// Result describes a completed ingest.
type Result struct {
	DocID     string        `json:"doc_id"`
	Title     string        `json:"title"`
	PageCount int           `json:"page_count"`
	Topics    []string      `json:"topics,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Ingestor renders PDF pages to images, runs OCR on each, and stores
// the resulting markdown under the home directory.
type Ingestor struct {
	ocr     providers.OCRProvider
	homeDir *home.Dir
	logger  *slog.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor(ocr providers.OCRProvider, homeDir *home.Dir, logger *slog.Logger) (*Ingestor, error) {
	if ocr == nil {
		return nil, fmt.Errorf("ocr provider is required")
	}
	if homeDir == nil {
		return nil, fmt.Errorf("home directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{ocr: ocr, homeDir: homeDir, logger: logger}, nil
}

// Ingest processes one worksheet PDF end to end.
func (in *Ingestor) Ingest(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if req.PDFPath == "" {
		return nil, fmt.Errorf("pdf path is required")
	}
	if _, err := os.Stat(req.PDFPath); err != nil {
		return nil, fmt.Errorf("PDF not found: %s", req.PDFPath)
	}

	title := req.Title
	if title == "" {
		title = deriveTitle(req.PDFPath)
	}

	pageCount, err := api.PageCountFile(req.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	docID := uuid.New().String()
	if err := in.homeDir.EnsureIngestDir(docID); err != nil {
		return nil, fmt.Errorf("failed to create ingest directory: %w", err)
	}

	in.logger.Info("starting ingest", "pdf", filepath.Base(req.PDFPath), "pages", pageCount, "doc_id", docID)

	images, err := renderPages(ctx, req.PDFPath, pageCount)
	if err != nil {
		os.RemoveAll(in.homeDir.IngestDir(docID))
		return nil, err
	}

	var topics []string
	for page := 1; page <= pageCount; page++ {
		ocrResult, err := in.ocr.ProcessPage(ctx, images[page-1], page)
		if err != nil {
			os.RemoveAll(in.homeDir.IngestDir(docID))
			return nil, fmt.Errorf("OCR failed on page %d: %w", page, err)
		}

		pagePath := in.homeDir.IngestPagePath(docID, page)
		if err := os.WriteFile(pagePath, []byte(ocrResult.Text), 0o644); err != nil {
			os.RemoveAll(in.homeDir.IngestDir(docID))
			return nil, fmt.Errorf("failed to write page markdown: %w", err)
		}

		topics = append(topics, suggestTopics(ocrResult.Text)...)
		in.logger.Debug("page processed", "doc_id", docID, "page", page, "chars", len(ocrResult.Text))
	}

	in.logger.Info("ingest complete", "doc_id", docID, "pages", pageCount, "topics", len(topics))

	return &Result{
		DocID:     docID,
		Title:     title,
		PageCount: pageCount,
		Topics:    dedupe(topics),
		Duration:  time.Since(start),
	}, nil
}

// renderPages rasterizes every page concurrently with pdftoppm. Page
// images come back indexed by page order.
func renderPages(ctx context.Context, pdfPath string, pageCount int) ([][]byte, error) {
	type pageResult struct {
		pageNum int
		image   []byte
		err     error
	}

	maxWorkers := runtime.NumCPU()
	results := make(chan pageResult, pageCount)
	sem := make(chan struct{}, maxWorkers)

	for page := 1; page <= pageCount; page++ {
		sem <- struct{}{} // acquire
		go func(pageNum int) {
			defer func() { <-sem }() // release
			image, err := renderPage(ctx, pdfPath, pageNum)
			results <- pageResult{pageNum: pageNum, image: image, err: err}
		}(page)
	}

	images := make([][]byte, pageCount)
	for i := 0; i < pageCount; i++ {
		r := <-results
		if r.err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", r.pageNum, r.err)
		}
		images[r.pageNum-1] = r.image
	}
	return images, nil
}

// renderPage rasterizes a single page using pdftoppm (poppler-utils).
// pdfcpu's image extraction pulls embedded image objects whose order
// may not match page order, so the page is rendered instead.
func renderPage(ctx context.Context, pdfPath string, pageNum int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "mathengine-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// -r 300 gives OCR-friendly resolution; -singlefile drops the page
	// number suffix so the output path is predictable.
	pageStr := fmt.Sprintf("%d", pageNum)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", "300",
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	srcPath := outputPrefix + ".png"
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}

var headingRe = regexp.MustCompile(`(?m)^#{1,3}\s+(.+)$`)

// suggestTopics pulls markdown headings out of OCR output as candidate
// generation topics.
func suggestTopics(markdown string) []string {
	var topics []string
	for _, m := range headingRe.FindAllStringSubmatch(markdown, -1) {
		topic := strings.TrimSpace(m[1])
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// deriveTitle extracts a title from a PDF filename, dropping any
// numeric suffix like "-1".
func deriveTitle(pdfPath string) string {
	base := filepath.Base(pdfPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return regexp.MustCompile(`-\d+$`).ReplaceAllString(name, "")
}
