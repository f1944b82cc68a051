// Package refsource extracts the plain paragraph text of a DOCX package
// independently of the conversion pipeline. The result is the reference
// side of the QC diff.
package refsource

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/hlzconv/internal/failure"
	"github.com/fumiama/go-docx"
)

// Extractor returns the paragraphs of a DOCX package in document order.
type Extractor interface {
	Paragraphs(ctx context.Context, data []byte) ([]string, error)
}

// DocxExtractor reads paragraphs locally with go-docx.
type DocxExtractor struct{}

func (DocxExtractor) Paragraphs(ctx context.Context, data []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, failure.Wrap(failure.ExternalExtractionFailure, err, "parse docx")
	}

	var out []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			out = appendText(out, paragraphText(it))
		case *docx.Table:
			out = tableText(out, it)
		}
	}
	return out, nil
}

func tableText(out []string, t *docx.Table) []string {
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			for _, p := range cell.Paragraphs {
				out = appendText(out, paragraphText(p))
			}
		}
	}
	return out
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}

func appendText(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	return append(out, s)
}

// Fallback tries each extractor in order and returns the first success.
type Fallback []Extractor

func (f Fallback) Paragraphs(ctx context.Context, data []byte) ([]string, error) {
	var errs []string
	for _, x := range f {
		paras, err := x.Paragraphs(ctx, data)
		if err == nil {
			return paras, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err.Error())
	}
	if len(errs) == 0 {
		return nil, failure.New(failure.ExternalExtractionFailure, "no extractor configured")
	}
	return nil, failure.New(failure.ExternalExtractionFailure, "all extractors failed: %s", strings.Join(errs, "; "))
}

// Describe names an extractor for logs.
func Describe(x Extractor) string {
	switch v := x.(type) {
	case DocxExtractor:
		return "docx"
	case *HTMLExtractor:
		return "html " + v.url
	case Fallback:
		names := make([]string, len(v))
		for i, e := range v {
			names[i] = Describe(e)
		}
		return strings.Join(names, ", then ")
	}
	return fmt.Sprintf("%T", x)
}
