package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractedPage holds the text lines recovered from one PDF page.
type extractedPage struct {
	number int
	lines  []string
}

// extractPDFPages parses raw PDF bytes and recovers per-page text lines in
// content-stream order. Pages without any text are omitted from the result;
// the second return value is the document's total page count.
func extractPDFPages(ctx context.Context, data []byte) ([]extractedPage, int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, 0, fmt.Errorf("reading pdf: %w", err)
	}

	var pages []extractedPage
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		lines := pageLines(pdfCtx, pageNr)
		if len(lines) == 0 {
			continue
		}
		pages = append(pages, extractedPage{number: pageNr, lines: lines})
	}
	return pages, pdfCtx.PageCount, nil
}

// pageLines decodes one page's content stream into normalized text lines.
// Extraction is best effort: a page whose content cannot be read simply
// yields no lines.
func pageLines(pdfCtx *model.Context, pageNr int) []string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return nil
	}
	stream, err := io.ReadAll(r)
	if err != nil || len(stream) == 0 {
		return nil
	}

	var lines []string
	for _, raw := range strings.Split(streamText(stream), "\n") {
		if line := normalizeLine(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// streamText walks a content stream and collects the text shown by the
// Tj, TJ, ' and " operators. Positioning operators (Td, TD, T*) and text
// object boundaries become line breaks so reading order survives writers
// that emit one BT/ET block per line of text.
func streamText(stream []byte) string {
	var (
		out     strings.Builder
		pending []string
	)
	flush := func() {
		for _, s := range pending {
			out.WriteString(s)
		}
		pending = pending[:0]
	}

	i := 0
	for i < len(stream) {
		c := stream[i]
		switch {
		case c == '(':
			s, next := readLiteralString(stream, i+1)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(stream) && stream[i+1] == '<':
			i += 2
		case c == '<':
			s, next := readHexString(stream, i+1)
			pending = append(pending, s)
			i = next
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case c == '[' || c == ']' || c == '{' || c == '}':
			i++
		case isWhitespaceByte(c):
			i++
		default:
			word, next := readToken(stream, i)
			i = next
			if isNumericToken(word) {
				// Operand, e.g. a kerning adjustment inside a TJ array.
				continue
			}
			switch word {
			case "Tj", "TJ":
				flush()
			case "'", "\"":
				out.WriteByte('\n')
				flush()
			case "Td", "TD", "T*", "ET":
				pending = pending[:0]
				out.WriteByte('\n')
			default:
				pending = pending[:0]
			}
		}
	}
	return out.String()
}

// readLiteralString decodes a PDF literal string starting just past its
// opening parenthesis. Balanced nested parentheses and backslash escapes,
// including octal codes, follow the syntax in ISO 32000-1 section 7.3.4.2.
func readLiteralString(stream []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 1
	i := start
	for i < len(stream) {
		c := stream[i]
		switch c {
		case '\\':
			if i+1 >= len(stream) {
				return sb.String(), i + 1
			}
			i++
			switch e := stream[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '(', ')', '\\':
				sb.WriteByte(e)
			case '\n':
				// Escaped newline continues the string.
			case '\r':
				if i+1 < len(stream) && stream[i+1] == '\n' {
					i++
				}
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for d := 0; d < 2 && i+1 < len(stream) && stream[i+1] >= '0' && stream[i+1] <= '7'; d++ {
						i++
						val = val*8 + int(stream[i]-'0')
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(e)
				}
			}
			i++
		case '(':
			depth++
			sb.WriteByte(c)
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(')')
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}

// readHexString decodes a PDF hex string starting just past its opening
// angle bracket. An odd trailing digit is padded with zero.
func readHexString(stream []byte, start int) (string, int) {
	var sb strings.Builder
	var hi byte
	haveHi := false
	i := start
	for i < len(stream) {
		c := stream[i]
		i++
		if c == '>' {
			break
		}
		v, ok := hexDigit(c)
		if !ok {
			continue
		}
		if haveHi {
			sb.WriteByte(hi<<4 | v)
			haveHi = false
		} else {
			hi = v
			haveHi = true
		}
	}
	if haveHi {
		sb.WriteByte(hi << 4)
	}
	return sb.String(), i
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// readToken reads a name or operator starting at the given offset.
func readToken(stream []byte, start int) (string, int) {
	i := start
	if stream[i] == '/' {
		i++
	}
	for i < len(stream) && !isWhitespaceByte(stream[i]) && !isDelimByte(stream[i]) {
		i++
	}
	if i == start {
		i++
	}
	return string(stream[start:i]), i
}

func isWhitespaceByte(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimByte(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isNumericToken(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9', c == '+', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}

// normalizeLine strips control characters and collapses interior whitespace
// runs to single spaces.
func normalizeLine(raw string) string {
	var sb strings.Builder
	space := false
	for _, r := range strings.ToValidUTF8(raw, "") {
		if unicode.IsSpace(r) {
			space = sb.Len() > 0
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
