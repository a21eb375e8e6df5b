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


package chunk

import (
	"fmt"

	"github.com/poiesic/docingest/core"
)

// Splitter divides normalized text into bounded, overlapping segments.
// Budgets are in runes, not bytes, so multi-byte text is cut correctly.
type Splitter struct {
	maxLength  int
	minOverlap int
}

// NewSplitter creates a Splitter. maxLength bounds every segment's rune
// length; minOverlap is the minimum number of runes adjacent segments share.
// maxLength must exceed minOverlap so each segment advances past the last.
func NewSplitter(maxLength, minOverlap int) (*Splitter, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("max segment length must be greater than 0, got %d", maxLength)
	}
	if minOverlap < 0 {
		return nil, fmt.Errorf("min overlap cannot be negative, got %d", minOverlap)
	}
	if maxLength <= minOverlap {
		return nil, fmt.Errorf("max segment length %d must be greater than min overlap %d", maxLength, minOverlap)
	}
	return &Splitter{maxLength: maxLength, minOverlap: minOverlap}, nil
}

// MaxLength returns the configured segment length bound.
func (s *Splitter) MaxLength() int { return s.maxLength }

// MinOverlap returns the configured overlap bound.
func (s *Splitter) MinOverlap() int { return s.minOverlap }

// Split divides text into ordered segments for one document. Every rune of
// the input lands in at least one segment, and each segment after the first
// starts minOverlap runes before its predecessor's end.
func (s *Splitter) Split(documentID, text string) []core.Segment {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var segments []core.Segment
	start := 0
	ordinal := 0
	for {
		end := start + s.maxLength
		if end >= n {
			end = n
		} else {
			end = s.cut(runes, start, end)
		}

		segments = append(segments, core.Segment{
			DocumentID: documentID,
			Ordinal:    ordinal,
			Text:       string(runes[start:end]),
			Start:      start,
			End:        end,
		})

		if end == n {
			return segments
		}
		ordinal++
		start = end - s.minOverlap
	}
}

// cut picks the end offset for a segment starting at start, bounded by
// limit. It prefers the last paragraph break inside the budget, then the
// last sentence break, then a hard cut at the limit. The floor keeps every
// cut past the carried-over overlap, so the next segment always starts
// after this one.
func (s *Splitter) cut(runes []rune, start, limit int) int {
	floor := start + s.minOverlap + 1
	if end := lastParagraphBreak(runes, floor, limit); end > 0 {
		return end
	}
	if end := lastSentenceBreak(runes, floor, limit); end > 0 {
		return end
	}
	return limit
}

// lastParagraphBreak returns the offset just after the last blank line in
// (floor, limit], or -1 when none fits.
func lastParagraphBreak(runes []rune, floor, limit int) int {
	for i := limit; i >= floor; i-- {
		if i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	return -1
}

// lastSentenceBreak returns the offset just after the last sentence-ending
// punctuation plus whitespace in (floor, limit], or -1 when none fits.
func lastSentenceBreak(runes []rune, floor, limit int) int {
	for i := limit; i >= floor; i-- {
		if i >= 2 && isSentenceEnd(runes[i-2]) && isBreakSpace(runes[i-1]) {
			return i
		}
	}
	return -1
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isBreakSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
