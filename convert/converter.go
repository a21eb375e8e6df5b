// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docingest/core"
)

// DocumentConverter turns a fetched document into markdown.
type DocumentConverter interface {
	// Convert produces the markdown rendition of one document. Input that
	// cannot be parsed, or that contains no extractable text, fails with
	// core.ErrUnparseableDocument.
	Convert(ctx context.Context, doc *core.Document) (*core.ConvertedDocument, error)
}

// PDFConverter extracts text from PDF bytes and renders it as markdown.
type PDFConverter struct {
	logger *slog.Logger
}

var _ DocumentConverter = (*PDFConverter)(nil)

// Option configures a PDFConverter.
type Option func(*PDFConverter) error

// WithLogger sets the logger used for conversion diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *PDFConverter) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// NewPDFConverter creates a converter for PDF input.
func NewPDFConverter(opts ...Option) (*PDFConverter, error) {
	c := &PDFConverter{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "pdf-converter")
	return c, nil
}

// Convert parses the document bytes and renders per-page markdown.
func (c *PDFConverter) Convert(ctx context.Context, doc *core.Document) (*core.ConvertedDocument, error) {
	pages, pageCount, err := extractPDFPages(ctx, doc.Data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", core.ErrUnparseableDocument, doc.Key, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s: no extractable text", core.ErrUnparseableDocument, doc.Key)
	}

	title := documentTitle(pages, doc.ID)
	markdown := renderMarkdown(title, pages)

	c.logger.Debug("converted document",
		"document_id", doc.ID,
		"pages", pageCount,
		"markdown_bytes", len(markdown))

	return &core.ConvertedDocument{
		DocumentID:  doc.ID,
		SourceKey:   doc.Key,
		ContentHash: doc.ContentHash,
		Markdown:    markdown,
		PageCount:   pageCount,
	}, nil
}

// documentTitle picks the first extracted line, capped to 200 runes,
// falling back to the document ID when nothing was extracted.
func documentTitle(pages []extractedPage, fallback string) string {
	for _, page := range pages {
		for _, line := range page.lines {
			if line == "" {
				continue
			}
			if runes := []rune(line); len(runes) > 200 {
				return string(runes[:200])
			}
			return line
		}
	}
	return fallback
}

// renderMarkdown lays out extracted pages as a markdown document: a title
// heading, then one section per page with each extracted line as its own
// paragraph.
func renderMarkdown(title string, pages []extractedPage) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n")
	for _, page := range pages {
		fmt.Fprintf(&sb, "\n## Page %d\n\n", page.number)
		for i, line := range page.lines {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
