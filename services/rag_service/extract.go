package rag_service

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
)

type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{
		logger: logger,
	}
}

// Extract selects the adapter by file extension and returns plain text.
// Unsupported binary formats get ErrUnsupportedFormat; callers must not
// try to ingest them.
func (e *DocumentExtractor) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".md", ".markdown", ".txt":
		return e.ExtractTextFromPlain(data), nil
	case ".pdf":
		return e.ExtractTextFromPDF(data)
	case ".doc", ".docx":
		return e.ExtractTextFromWord(data)
	case ".ppt", ".pptx":
		return e.ExtractTextFromPowerPoint(data)
	default:
		e.logger.Error("Unsupported file type",
			slog.String("filename", filename),
			slog.String("extension", ext))
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ExtractTextFromPlain reads text and markdown files with lossy UTF-8
// decoding: invalid byte sequences are replaced, never rejected, so a single
// odd glyph cannot fail a whole import.
func (e *DocumentExtractor) ExtractTextFromPlain(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

func (e *DocumentExtractor) ExtractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to create PDF reader: %v", err)
	}

	totalPage := reader.NumPage()
	e.logger.Debug("Starting PDF text extraction",
		slog.Int("total_pages", totalPage))

	var pages []string
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Error("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			return "", fmt.Errorf("failed to extract text from page %d: %v", pageIndex, err)
		}

		e.logger.Debug("Extracted text from page",
			slog.Int("page_number", pageIndex),
			slog.Int("text_length", len(text)))

		pages = append(pages, text)
	}

	fullText := strings.Join(pages, "\n")
	if len(fullText) == 0 {
		e.logger.Error("No text extracted from PDF",
			slog.Int("total_pages", totalPage))
		return "", fmt.Errorf("no text content extracted from PDF")
	}

	e.logger.Info("Successfully extracted text from PDF",
		slog.Int("total_pages", totalPage),
		slog.Int("total_text_length", len(fullText)))

	return fullText, nil
}

func (e *DocumentExtractor) ExtractTextFromWord(data []byte) (string, error) {
	e.logger.Debug("Starting Word document text extraction",
		slog.Int("data_size", len(data)))

	mimeType := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to convert Word document: %v", err)
	}

	if len(result.Body) == 0 {
		e.logger.Error("No text extracted from Word document")
		return "", fmt.Errorf("no text content extracted from Word document")
	}

	e.logger.Info("Successfully extracted text from Word document",
		slog.Int("text_length", len(result.Body)))

	return result.Body, nil
}

func (e *DocumentExtractor) ExtractTextFromPowerPoint(data []byte) (string, error) {
	e.logger.Debug("Starting PowerPoint text extraction",
		slog.Int("data_size", len(data)))

	mimeType := "application/vnd.openxmlformats-officedocument.presentationml.presentation"

	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert PowerPoint document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to convert PowerPoint document: %v", err)
	}

	if len(result.Body) == 0 {
		e.logger.Error("No text extracted from PowerPoint document")
		return "", fmt.Errorf("no text content extracted from PowerPoint document")
	}

	e.logger.Info("Successfully extracted text from PowerPoint document",
		slog.Int("text_length", len(result.Body)))

	return result.Body, nil
}
