// Package pdftext pulls the plain text layer out of PDF files.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"decaprep/internal/util"

	"github.com/ledongthuc/pdf"
)

// Extractor converts a document's bytes into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, b []byte) (string, error)
}

// Ledongthuc reads the text layer with github.com/ledongthuc/pdf. Scanned
// documents without a text layer come back as ErrNoExtractableText.
type Ledongthuc struct{}

func New() Ledongthuc { return Ledongthuc{} }

func (Ledongthuc) ExtractText(ctx context.Context, b []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", util.ErrUnreadablePDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", util.ErrUnreadablePDF, err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract pdf text: %v", util.ErrUnreadablePDF, err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text = util.SanitizeText(buf.String())
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}

// Static serves fixed text per document. It stands in for PDF parsing in
// tests and for callers that already hold plain text.
type Static map[string]string

func (s Static) ExtractText(ctx context.Context, b []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := s[string(b)]
	if !ok {
		return "", fmt.Errorf("%w: unknown document", util.ErrUnreadablePDF)
	}
	text = util.SanitizeText(text)
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}
