package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

type PDFParserService interface {
	ExtractText(filename string, data []byte) (string, error)
	ExtractTextFromFile(path string) (string, error)
}

type pdfParserService struct {
	minTextChars int
}

// NewPDFParserService returns a parser that rejects resumes whose extracted
// text is shorter than minTextChars, since they carry no semantic signal.
func NewPDFParserService(minTextChars int) PDFParserService {
	return &pdfParserService{minTextChars: minTextChars}
}

// ExtractText pulls the plain text layer out of a PDF held in memory. The
// returned error is always an *ExtractionError so callers can skip the
// document and keep the batch going.
func (p *pdfParserService) ExtractText(filename string, data []byte) (text string, err error) {
	// The underlying parser panics on some malformed files; fold those
	// into the corrupt-file failure instead of taking down the batch.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractionError{
				Filename: filename,
				Failure:  ExtractionCorrupt,
				Err:      fmt.Errorf("parser panic: %v", r),
			}
		}
	}()

	if len(data) == 0 {
		return "", &ExtractionError{Filename: filename, Failure: ExtractionCorrupt, Err: fmt.Errorf("empty file")}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		failure := ExtractionCorrupt
		if errors.Is(err, pdf.ErrInvalidPassword) {
			failure = ExtractionEncrypted
		}
		return "", &ExtractionError{Filename: filename, Failure: failure, Err: err}
	}

	var textBuilder strings.Builder
	totalPage := reader.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages but keep the rest
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	text = CleanText(textBuilder.String())
	if text == "" {
		return "", &ExtractionError{Filename: filename, Failure: ExtractionNoText}
	}

	if len(text) < p.minTextChars {
		return "", &ExtractionError{
			Filename: filename,
			Failure:  ExtractionTooShort,
			Err:      fmt.Errorf("%d chars, need at least %d", len(text), p.minTextChars),
		}
	}

	return text, nil
}

// ExtractTextFromFile reads a PDF from disk and extracts its text.
func (p *pdfParserService) ExtractTextFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Filename: path, Failure: ExtractionCorrupt, Err: err}
	}

	return p.ExtractText(path, data)
}
