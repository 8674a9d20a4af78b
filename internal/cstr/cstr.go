// Package cstr reads NUL-terminated strings out of memory owned by a foreign
// caller and turns them into Go strings.
package cstr

import (
	"errors"
	"strings"
	"unsafe"

	"golang.org/x/text/encoding/unicode"
)

// DefaultLimit is the scan limit used when the caller passes a non-positive one.
const DefaultLimit = 4096

var (
	// ErrNilPointer is reported when the caller hands over a nil pointer.
	ErrNilPointer = errors.New("cstr: nil pointer")
	// ErrUnterminated is reported when the string is longer than the limit.
	ErrUnterminated = errors.New("cstr: no terminator within limit")
)

// Copy returns a copy of the NUL-terminated string at p, which may hold at
// most limit bytes before its terminator. At most limit+1 bytes are read. The
// returned slice never aliases p.
//
// A nil p yields an empty slice and ErrNilPointer. When the string is longer
// than limit, the first limit bytes are returned along with ErrUnterminated.
// Both errors are informational; the bytes are always usable.
func Copy(p unsafe.Pointer, limit int) ([]byte, error) {
	if p == nil {
		return []byte{}, ErrNilPointer
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	n := 0
	for n < limit && *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}

	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(p), n))

	if n == limit && *(*byte)(unsafe.Add(p, n)) != 0 {
		return out, ErrUnterminated
	}
	return out, nil
}

// Decode converts b to valid UTF-8. Every maximal ill-formed subsequence is
// replaced with a single U+FFFD. Decode never fails.
func Decode(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// String is Copy followed by Decode.
func String(p unsafe.Pointer, limit int) (string, error) {
	b, err := Copy(p, limit)
	return Decode(b), err
}
