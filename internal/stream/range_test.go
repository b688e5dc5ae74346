package stream

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int64
		want    Range
		wantErr error
	}{
		{name: "closed range", header: "bytes=2-5", size: 10, want: Range{2, 5}},
		{name: "open end", header: "bytes=8-", size: 10, want: Range{8, 9}},
		{name: "first byte", header: "bytes=0-0", size: 10, want: Range{0, 0}},
		{name: "last byte", header: "bytes=9-9", size: 10, want: Range{9, 9}},
		{name: "whole file", header: "bytes=0-", size: 10, want: Range{0, 9}},
		{name: "empty start means zero", header: "bytes=-5", size: 10, want: Range{0, 5}},
		{name: "both bounds empty", header: "bytes=-", size: 10, want: Range{0, 9}},
		{name: "end clamped", header: "bytes=5-100", size: 10, want: Range{5, 9}},
		{name: "surrounding whitespace", header: " bytes=1-2 ", size: 10, want: Range{1, 2}},
		{name: "end beyond int64 clamped", header: "bytes=0-99999999999999999999", size: 10, want: Range{0, 9}},
		{name: "large file", header: "bytes=1073741824-", size: 4294967296, want: Range{1073741824, 4294967295}},

		{name: "other unit", header: "items=0-1", size: 10, wantErr: ErrMalformedRange},
		{name: "missing unit", header: "0-1", size: 10, wantErr: ErrMalformedRange},
		{name: "multiple ranges", header: "bytes=0-1,2-3", size: 10, wantErr: ErrMalformedRange},
		{name: "no dash", header: "bytes=5", size: 10, wantErr: ErrMalformedRange},
		{name: "two dashes", header: "bytes=1-2-3", size: 10, wantErr: ErrMalformedRange},
		{name: "non numeric start", header: "bytes=a-3", size: 10, wantErr: ErrMalformedRange},
		{name: "non numeric end", header: "bytes=1-b", size: 10, wantErr: ErrMalformedRange},
		{name: "signed start", header: "bytes=+1-3", size: 10, wantErr: ErrMalformedRange},

		{name: "start past end of file", header: "bytes=10-", size: 10, wantErr: ErrUnsatisfiableRange},
		{name: "inverted", header: "bytes=5-2", size: 10, wantErr: ErrUnsatisfiableRange},
		{name: "start beyond int64", header: "bytes=99999999999999999999-", size: 10, wantErr: ErrUnsatisfiableRange},
		{name: "empty file", header: "bytes=0-", size: 0, wantErr: ErrUnsatisfiableRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRange_LengthAndContentRange(t *testing.T) {
	r := Range{Start: 2, End: 5}

	assert.Equal(t, int64(4), r.Length())
	assert.Equal(t, "bytes 2-5/10", r.ContentRange(10))
}

func TestParseRange_WithinBounds(t *testing.T) {
	const size = 37
	for start := int64(0); start < size; start++ {
		for end := start; end < size+5; end++ {
			header := "bytes=" + itoa(start) + "-" + itoa(end)
			r, err := ParseRange(header, size)
			require.NoError(t, err, header)

			assert.GreaterOrEqual(t, r.Start, int64(0))
			assert.LessOrEqual(t, r.Start, r.End)
			assert.Less(t, r.End, int64(size))
			assert.Equal(t, r.End-r.Start+1, r.Length())
		}
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
