// Package stream implements the GREY video stream parser: header
// recognition, the frame state machine, and the inverse encoder.
package stream

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	// MinSegmentSize is the smallest legal per-universe segment: a
	// 2-byte universe number plus at least one channel byte.
	MinSegmentSize = 3

	// maxHeaderLen bounds how many bytes the scanner will buffer while
	// deciding whether a "GREY W" prefix completes into a header.
	maxHeaderLen = 256
)

// headerMagic is the fixed prefix every stream header starts with.
var headerMagic = []byte("GREY W")

// headerAt matches a complete header at the start of the buffer.
// Only the W (segment size) and H (universe count) fields carry
// meaning; the frame rate, interlacing and aspect fields are required
// by the grammar but ignored.
var headerAt = regexp.MustCompile(`\AGREY W(\d+) H(\d+) F\d+:\d+ I[a-z] A\d+:\d+\n`)

// Geometry describes the frame layout announced by a stream header.
// It is immutable; a new header produces a fresh value that fully
// replaces the previous one.
type Geometry struct {
	// UniverseCount is the number of universes multiplexed per frame.
	UniverseCount int
	// SegmentSize is the number of bytes each universe occupies.
	SegmentSize int
}

// FrameLength returns the exact byte length of one frame.
func (g Geometry) FrameLength() int {
	return g.UniverseCount * g.SegmentSize
}

func (g Geometry) String() string {
	return fmt.Sprintf("%d universe(s) at %d bytes per universe", g.UniverseCount, g.SegmentSize)
}

// HeaderError reports a header that matched the grammar but carried an
// unusable numeric field. It is fatal: the stream has announced a
// geometry the converter cannot honor and there is no defined recovery.
type HeaderError struct {
	Field  string
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid stream header: field %s: %s", e.Field, e.Reason)
}

// parseGeometry builds a Geometry from the two submatches of headerAt.
func parseGeometry(size, universes []byte) (Geometry, error) {
	segmentSize, err := strconv.Atoi(string(size))
	if err != nil {
		return Geometry{}, &HeaderError{Field: "W", Reason: err.Error()}
	}
	if segmentSize < MinSegmentSize {
		return Geometry{}, &HeaderError{Field: "W", Reason: fmt.Sprintf("segment size %d below minimum %d", segmentSize, MinSegmentSize)}
	}

	universeCount, err := strconv.Atoi(string(universes))
	if err != nil {
		return Geometry{}, &HeaderError{Field: "H", Reason: err.Error()}
	}
	if universeCount < 1 {
		return Geometry{}, &HeaderError{Field: "H", Reason: "universe count must be at least 1"}
	}

	return Geometry{UniverseCount: universeCount, SegmentSize: segmentSize}, nil
}
