package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"enterprise-docs-qa/internal/logger"
	"enterprise-docs-qa/internal/storage"
	"enterprise-docs-qa/internal/telemetry"
	"enterprise-docs-qa/models"
)

// SupportedExtensions lists the document formats the loader can normalize.
var SupportedExtensions = []string{".txt", ".md", ".html", ".htm", ".pdf", ".docx", ".xlsx"}

const loadConcurrency = 8

// Loader converts raw documents into normalized text units. Text-like formats
// are decoded in place; structured binary formats (.pdf, .docx, .xlsx) are
// materialized to a transient local file first, which is removed on every
// exit path.
type Loader struct {
	source  storage.ObjectStore
	metrics *telemetry.Metrics
}

func NewLoader(source storage.ObjectStore, metrics *telemetry.Metrics) *Loader {
	return &Loader{source: source, metrics: metrics}
}

// LoadAll loads documents concurrently. A failure on one document is logged
// and skipped; the rest of the pass continues. Unit order follows document
// order regardless of completion order.
func (l *Loader) LoadAll(ctx context.Context, docs []models.DocumentInfo) []models.NormalizedUnit {
	perDoc := make([][]models.NormalizedUnit, len(docs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			units, err := l.Load(gctx, doc)
			if err != nil {
				logger.Warn("skipping document", "key", doc.Key, "error", err)
				if l.metrics != nil {
					l.metrics.DocumentsSkipped.Add(gctx, 1)
				}
				return nil
			}
			mu.Lock()
			perDoc[i] = units
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	var all []models.NormalizedUnit
	for _, units := range perDoc {
		all = append(all, units...)
	}
	return all
}

// Load converts one document into zero or more normalized units, dispatching
// on its extension.
func (l *Loader) Load(ctx context.Context, doc models.DocumentInfo) ([]models.NormalizedUnit, error) {
	meta := models.UnitMetadata{Source: doc.Key, LastModified: doc.LastModified}

	switch ext := strings.ToLower(path.Ext(doc.Key)); ext {
	case ".txt", ".md":
		return l.loadText(ctx, doc, meta)
	case ".html", ".htm":
		return l.loadHTML(ctx, doc, meta)
	case ".pdf":
		return l.loadPDF(ctx, doc, meta)
	case ".docx":
		return l.loadDOCX(ctx, doc, meta)
	case ".xlsx":
		return l.loadXLSX(ctx, doc, meta)
	default:
		return nil, fmt.Errorf("unsupported extension: %s", ext)
	}
}

func (l *Loader) loadText(ctx context.Context, doc models.DocumentInfo, meta models.UnitMetadata) ([]models.NormalizedUnit, error) {
	data, err := l.source.GetContent(ctx, doc.Key)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("content is not valid UTF-8")
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []models.NormalizedUnit{{Text: text, Metadata: meta}}, nil
}

func (l *Loader) loadHTML(ctx context.Context, doc models.DocumentInfo, meta models.UnitMetadata) ([]models.NormalizedUnit, error) {
	data, err := l.source.GetContent(ctx, doc.Key)
	if err != nil {
		return nil, err
	}
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	root.Find("script, style, noscript").Remove()

	var lines []string
	for _, line := range strings.Split(root.Text(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		return nil, nil
	}
	return []models.NormalizedUnit{{Text: text, Metadata: meta}}, nil
}

func (l *Loader) loadPDF(ctx context.Context, doc models.DocumentInfo, meta models.UnitMetadata) ([]models.NormalizedUnit, error) {
	localPath, err := l.source.MaterializeToLocalFile(ctx, doc.Key)
	if err != nil {
		return nil, err
	}
	defer os.Remove(localPath)

	f, reader, err := pdf.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var units []models.NormalizedUnit
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("skipping unreadable PDF page", "key", doc.Key, "page", pageNum, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pageMeta := meta
		pageMeta.Page = pageNum
		units = append(units, models.NormalizedUnit{Text: text, Metadata: pageMeta})
	}
	return units, nil
}

// docxDocument mirrors the paragraph/run structure of word/document.xml.
type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Texts []string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func (l *Loader) loadDOCX(ctx context.Context, doc models.DocumentInfo, meta models.UnitMetadata) ([]models.NormalizedUnit, error) {
	localPath, err := l.source.MaterializeToLocalFile(ctx, doc.Key)
	if err != nil {
		return nil, err
	}
	defer os.Remove(localPath)

	archive, err := zip.OpenReader(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX archive: %w", err)
	}
	defer archive.Close()

	var payload []byte
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening document.xml: %w", err)
		}
		payload, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading document.xml: %w", err)
		}
		break
	}
	if payload == nil {
		return nil, fmt.Errorf("document.xml not found in archive")
	}

	var parsed docxDocument
	if err := xml.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("parsing document.xml: %w", err)
	}

	var paragraphs []string
	for _, p := range parsed.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				sb.WriteString(t)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	if len(paragraphs) == 0 {
		return nil, nil
	}
	return []models.NormalizedUnit{{Text: strings.Join(paragraphs, "\n\n"), Metadata: meta}}, nil
}

func (l *Loader) loadXLSX(ctx context.Context, doc models.DocumentInfo, meta models.UnitMetadata) ([]models.NormalizedUnit, error) {
	localPath, err := l.source.MaterializeToLocalFile(ctx, doc.Key)
	if err != nil {
		return nil, err
	}
	defer os.Remove(localPath)

	workbook, err := excelize.OpenFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer workbook.Close()

	var units []models.NormalizedUnit
	for sheetIdx, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			logger.Warn("skipping unreadable sheet", "key", doc.Key, "sheet", sheet, "error", err)
			continue
		}
		var lines []string
		for _, row := range rows {
			if line := strings.TrimSpace(strings.Join(row, "\t")); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		sheetMeta := meta
		sheetMeta.Page = sheetIdx + 1
		units = append(units, models.NormalizedUnit{
			Text:     sheet + "\n" + strings.Join(lines, "\n"),
			Metadata: sheetMeta,
		})
	}
	return units, nil
}
