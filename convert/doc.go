// Package convert turns fetched PDF documents into markdown.
//
// PDFConverter is the production implementation. It parses the PDF with
// pdfcpu, decodes the text-showing operators of each page's content stream,
// and renders a markdown document with a title heading followed by one
// section per page. Conversion is deterministic: identical input bytes
// always produce identical markdown.
//
// Cache wraps any DocumentConverter with artifact reuse against an object
// store. Converted markdown is written next to the source corpus keyed by
// document ID, tagged with the source content hash, and read back instead
// of reconverting when the hash still matches.
package convert
