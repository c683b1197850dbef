// Package universe defines the decoded per-universe records carried by
// each video frame.
package universe

import "encoding/binary"

// NumberSize is the number of leading segment bytes holding the
// little-endian universe number.
const NumberSize = 2

// Universe is one universe's worth of channel data decoded from a
// single frame segment. Values are transient: a fresh record is
// produced for every frame.
type Universe struct {
	Number uint16
	Data   []byte
}

// FromSegment decodes one fixed-size segment: the first two bytes are
// the little-endian universe number, the rest is channel data in
// stream order.
func FromSegment(segment []byte) Universe {
	return Universe{
		Number: binary.LittleEndian.Uint16(segment[:NumberSize]),
		Data:   segment[NumberSize:],
	}
}

// DecodeFrame slices a frame into its universes. The frame length must
// be an exact multiple of segmentSize; that is the caller's contract.
// Segment order is preserved: segment i yields record i, regardless of
// the decoded numbers.
func DecodeFrame(frame []byte, segmentSize int) []Universe {
	universes := make([]Universe, 0, len(frame)/segmentSize)
	for off := 0; off < len(frame); off += segmentSize {
		universes = append(universes, FromSegment(frame[off:off+segmentSize]))
	}
	return universes
}
