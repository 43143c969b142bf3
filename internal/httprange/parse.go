// Package httprange implements single-range byte-serving semantics for the
// Range request header: parsing, bound resolution against an object size,
// and chunked body emission.
package httprange

import (
	"strconv"
	"strings"
)

// ChunkSize is the maximum number of bytes emitted per write.
const ChunkSize = 8192

type Kind int

const (
	// Full is a request without bounds ("bytes=-"): the whole object,
	// served as a range response.
	Full Kind = iota
	// Prefix is "bytes=<start>-": from start to the end of the object.
	Prefix
	// Suffix is "bytes=-<len>": the last len bytes of the object.
	Suffix
	// Closed is "bytes=<start>-<end>": an inclusive window.
	Closed
	// Malformed is anything that does not match bytes=<start>-<end>
	// with at most one side omitted. Multi-range requests land here.
	Malformed
)

// Spec is a parsed Range header value, before resolution against an
// object size.
type Spec struct {
	Kind  Kind
	Start int64 // Prefix, Closed
	End   int64 // Closed
	Len   int64 // Suffix
}

// Parse parses a Range header value. It never fails: unparseable input
// yields a Spec with Kind == Malformed.
func Parse(header string) Spec {
	rest, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return Spec{Kind: Malformed}
	}

	startStr, endStr, ok := strings.Cut(rest, "-")
	if !ok || strings.Contains(endStr, "-") || strings.Contains(endStr, ",") {
		return Spec{Kind: Malformed}
	}

	switch {
	case startStr == "" && endStr == "":
		return Spec{Kind: Full}
	case startStr == "":
		n, err := parseBound(endStr)
		if err != nil {
			return Spec{Kind: Malformed}
		}
		return Spec{Kind: Suffix, Len: n}
	case endStr == "":
		start, err := parseBound(startStr)
		if err != nil {
			return Spec{Kind: Malformed}
		}
		return Spec{Kind: Prefix, Start: start}
	default:
		start, err := parseBound(startStr)
		if err != nil {
			return Spec{Kind: Malformed}
		}
		end, err := parseBound(endStr)
		if err != nil {
			return Spec{Kind: Malformed}
		}
		return Spec{Kind: Closed, Start: start, End: end}
	}
}

// Resolve applies a parsed spec to an object of the given size and returns
// the inclusive byte window to serve. ok is false when the spec is
// well-formed but unsatisfiable (start beyond the object, inverted window).
// Resolve must not be called with a Malformed spec.
func (s Spec) Resolve(size int64) (start, end int64, ok bool) {
	switch s.Kind {
	case Full:
		start, end = 0, size-1
	case Prefix:
		start, end = s.Start, size-1
	case Suffix:
		start = size - s.Len
		if start < 0 {
			start = 0
		}
		end = size - 1
	case Closed:
		start, end = s.Start, s.End
		if end >= size {
			end = size - 1
		}
	}

	if start > end || start >= size {
		return 0, 0, false
	}
	return start, end, true
}

func parseBound(s string) (int64, error) {
	// strconv accepts leading signs; the header grammar does not.
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(s, 10, 64)
}
