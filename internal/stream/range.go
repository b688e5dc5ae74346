// Package stream serves stored files over HTTP with single byte-range support,
// so browsers can seek through a video without downloading it first.
package stream

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRange is returned when a Range header cannot be parsed.
	ErrMalformedRange = errors.New("malformed range header")
	// ErrUnsatisfiableRange is returned when a well-formed range lies outside the file.
	ErrUnsatisfiableRange = errors.New("range not satisfiable")
)

const bytesUnit = "bytes="

// Range is an inclusive byte window [Start, End] within a file.
type Range struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a file of the given size.
func (r Range) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange resolves a single "bytes=start-end" header against a file size.
//
// An empty start means 0 and an empty end means the last byte, so "bytes=-5"
// selects [0, 5] rather than the final five bytes. An end past the last byte is
// clamped to size-1, however large it is. Multiple ranges are not supported.
func ParseRange(header string, size int64) (Range, error) {
	set, ok := strings.CutPrefix(strings.TrimSpace(header), bytesUnit)
	if !ok {
		return Range{}, fmt.Errorf("%w: unsupported unit in %q", ErrMalformedRange, header)
	}
	if strings.Contains(set, ",") {
		return Range{}, fmt.Errorf("%w: multiple ranges in %q", ErrMalformedRange, header)
	}

	startStr, endStr, ok := strings.Cut(set, "-")
	if !ok || strings.Contains(endStr, "-") {
		return Range{}, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}

	start, err := parseBound(startStr, 0)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start of %q", ErrMalformedRange, header)
	}
	end, err := parseBound(endStr, size-1)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end of %q", ErrMalformedRange, header)
	}

	if end > size-1 {
		end = size - 1
	}
	if start >= size || start > end {
		return Range{}, fmt.Errorf("%w: %q for size %d", ErrUnsatisfiableRange, header, size)
	}

	return Range{Start: start, End: end}, nil
}

func parseBound(s string, fallback int64) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	// ParseInt accepts a leading sign; bounds are plain digits only.
	if s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		// Too many digits for int64: past the end of any file.
		return math.MaxInt64, nil
	}
	return n, err
}
