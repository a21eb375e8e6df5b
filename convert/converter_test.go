package convert

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/poiesic/docingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF produces a real PDF with the given lines of text per page.
func buildPDF(t *testing.T, pages ...[]string) []byte {
	t.Helper()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	for _, lines := range pages {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 12)
		for _, line := range lines {
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func testDocument(key string, data []byte) *core.Document {
	return &core.Document{
		ID:          core.DocumentIDFromKey(key),
		Key:         key,
		Bucket:      "docs",
		Data:        data,
		ContentHash: core.ContentHash(data),
		Size:        int64(len(data)),
	}
}

func TestPDFConverter_SinglePage(t *testing.T) {
	converter, err := NewPDFConverter()
	require.NoError(t, err)

	doc := testDocument("reports/annual.pdf", buildPDF(t,
		[]string{"Annual Report 2025", "Revenue grew fourteen percent.", "Margins held steady."}))

	converted, err := converter.Convert(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "reports/annual", converted.DocumentID)
	assert.Equal(t, "reports/annual.pdf", converted.SourceKey)
	assert.Equal(t, doc.ContentHash, converted.ContentHash)
	assert.Equal(t, 1, converted.PageCount)
	assert.False(t, converted.FromCache)

	assert.True(t, strings.HasPrefix(converted.Markdown, "# Annual Report 2025\n"))
	assert.Contains(t, converted.Markdown, "\n## Page 1\n")
	assert.Contains(t, converted.Markdown, "Revenue grew fourteen percent.")
	assert.Contains(t, converted.Markdown, "Margins held steady.")
}

func TestPDFConverter_MultiPageHeadings(t *testing.T) {
	converter, err := NewPDFConverter()
	require.NoError(t, err)

	doc := testDocument("guide.pdf", buildPDF(t,
		[]string{"Operations Guide", "Chapter one covers setup."},
		[]string{"Chapter two covers teardown."}))

	converted, err := converter.Convert(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, 2, converted.PageCount)
	page1 := strings.Index(converted.Markdown, "## Page 1")
	page2 := strings.Index(converted.Markdown, "## Page 2")
	require.GreaterOrEqual(t, page1, 0)
	require.Greater(t, page2, page1)
	assert.Contains(t, converted.Markdown[page1:page2], "Chapter one covers setup.")
	assert.Contains(t, converted.Markdown[page2:], "Chapter two covers teardown.")
}

func TestPDFConverter_Deterministic(t *testing.T) {
	converter, err := NewPDFConverter()
	require.NoError(t, err)

	data := buildPDF(t, []string{"Stable Title", "Stable body text."})
	doc := testDocument("stable.pdf", data)

	first, err := converter.Convert(context.Background(), doc)
	require.NoError(t, err)
	second, err := converter.Convert(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first.Markdown, second.Markdown)
}

func TestPDFConverter_RejectsGarbage(t *testing.T) {
	converter, err := NewPDFConverter()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"not a pdf", []byte("plain text pretending to be a pdf")},
		{"truncated header", []byte("%PDF-1.4\ngarbage")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := converter.Convert(context.Background(), testDocument("bad.pdf", tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrUnparseableDocument)
		})
	}
}

func TestPDFConverter_RejectsTextlessPDF(t *testing.T) {
	converter, err := NewPDFConverter()
	require.NoError(t, err)

	doc := testDocument("blank.pdf", buildPDF(t, nil))
	_, err = converter.Convert(context.Background(), doc)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnparseableDocument)
	assert.Contains(t, err.Error(), "no extractable text")
}

func TestPDFConverter_LongTitleCapped(t *testing.T) {
	converter, err := NewPDFConverter()
	require.NoError(t, err)

	long := strings.Repeat("t", 260)
	doc := testDocument("long.pdf", buildPDF(t, []string{long, "Body."}))

	converted, err := converter.Convert(context.Background(), doc)
	require.NoError(t, err)

	firstLine, _, _ := strings.Cut(converted.Markdown, "\n")
	assert.Equal(t, "# "+strings.Repeat("t", 200), firstLine)
}

func TestStreamText_Operators(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "single line text object",
			stream: "BT 28.35 805.89 Td (Hello world) Tj ET",
			want:   "Hello world",
		},
		{
			name:   "kerned TJ array",
			stream: "BT [(Qu) -12 (arterly) -250 ( results)] TJ ET",
			want:   "Quarterly results",
		},
		{
			name:   "quote operator starts a new line",
			stream: "BT (first) Tj (second) ' ET",
			want:   "first\nsecond",
		},
		{
			name:   "positioning breaks lines",
			stream: "BT (one) Tj 0 -14 Td (two) Tj T* (three) Tj ET",
			want:   "one\ntwo\nthree",
		},
		{
			name:   "escapes and octal codes",
			stream: `BT (paren \(pair\) and \134 and \101) Tj ET`,
			want:   `paren (pair) and \ and A`,
		},
		{
			name:   "nested parentheses",
			stream: "BT (outer (inner) tail) Tj ET",
			want:   "outer (inner) tail",
		},
		{
			name:   "hex string",
			stream: "BT <48656C6C6F> Tj ET",
			want:   "Hello",
		},
		{
			name:   "unshown string is dropped",
			stream: "BT (ignored) 1 0 0 1 50 700 Tm (kept) Tj ET",
			want:   "kept",
		},
		{
			name:   "graphics ops around text",
			stream: "q 0.57 w 2 J BT /F1 12.00 Tf (styled) Tj ET Q",
			want:   "styled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []string
			for _, raw := range strings.Split(streamText([]byte(tt.stream)), "\n") {
				if line := normalizeLine(raw); line != "" {
					lines = append(lines, line)
				}
			}
			assert.Equal(t, tt.want, strings.Join(lines, "\n"))
		})
	}
}

func TestRenderMarkdown_Layout(t *testing.T) {
	pages := []extractedPage{
		{number: 1, lines: []string{"Title Line", "First paragraph."}},
		{number: 3, lines: []string{"Later page text."}},
	}

	got := renderMarkdown("Title Line", pages)

	want := fmt.Sprintf("# %s\n\n## Page 1\n\n%s\n\n%s\n\n## Page 3\n\n%s\n",
		"Title Line", "Title Line", "First paragraph.", "Later page text.")
	assert.Equal(t, want, got)
}
