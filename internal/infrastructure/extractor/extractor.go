// Package extractor turns an uploaded or downloaded pitch deck into plain
// text. PDF, HTML and plain text decks are supported.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedType = errors.New("unsupported deck format")
	ErrNoText          = errors.New("deck contains no extractable text")
)

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// Document is the extracted deck. Pages is 1 for formats without pages.
type Document struct {
	FullText string
	Pages    int
}

type Extractor struct {
	converter *md.Converter
}

func New() *Extractor {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.Remove("script", "style", "noscript", "nav", "footer", "iframe", "form")
	return &Extractor{converter: converter}
}

// Extract picks a decoder from contentType, sniffing data when it is empty
// or generic.
func (e *Extractor) Extract(ctx context.Context, data []byte, contentType string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if len(data) == 0 {
		return Document{}, ErrNoText
	}

	var (
		doc Document
		err error
	)
	switch kind := detect(data, contentType); kind {
	case "application/pdf":
		doc, err = extractPDF(data)
	case "text/html":
		doc, err = e.extractHTML(data)
	case "text/plain", "text/markdown":
		doc, err = extractText(data)
	default:
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
	if err != nil {
		return Document{}, err
	}

	doc.FullText = strings.TrimSpace(excessiveLinesRe.ReplaceAllString(doc.FullText, "\n\n"))
	if doc.FullText == "" {
		return Document{}, ErrNoText
	}
	return doc, nil
}

func detect(data []byte, contentType string) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return "application/pdf"
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		mt, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	switch mt {
	case "application/xhtml+xml":
		return "text/html"
	case "text/x-markdown":
		return "text/markdown"
	}
	return mt
}

func extractPDF(data []byte) (doc Document, err error) {
	// The pdf reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}
	return Document{FullText: sb.String(), Pages: pages}, nil
}

func (e *Extractor) extractHTML(data []byte) (Document, error) {
	markdown, err := e.converter.ConvertString(string(data))
	if err != nil {
		return Document{}, fmt.Errorf("convert html: %w", err)
	}
	return Document{FullText: markdown, Pages: 1}, nil
}

func extractText(data []byte) (Document, error) {
	if !utf8.Valid(data) {
		return Document{}, fmt.Errorf("%w: text is not valid utf-8", ErrUnsupportedType)
	}
	return Document{FullText: string(data), Pages: 1}, nil
}
