package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/shenghaoyang/ola-video-convert/internal/universe"
)

// Encoder writes the GREY byte stream the parser consumes: one header
// line announcing the geometry, then raw fixed-length frames with no
// separator.
type Encoder struct {
	w    io.Writer
	geom Geometry
	rate int
	buf  []byte
}

// NewEncoder returns an encoder for the given geometry. rate is the
// frame rate written into the header's F field (frames per second).
func NewEncoder(w io.Writer, g Geometry, rate int) *Encoder {
	return &Encoder{w: w, geom: g, rate: rate}
}

// WriteHeader emits the header line. It may be called again mid-stream
// to re-announce (or change) the geometry, mirroring what the parser
// accepts.
func (e *Encoder) WriteHeader() error {
	_, err := fmt.Fprintf(e.w, "GREY W%d H%d F%d:1 Ip A0:0\n",
		e.geom.SegmentSize, e.geom.UniverseCount, e.rate)
	return err
}

// WriteFrame emits one frame. It needs exactly the announced universe
// count, and each universe's data must fit the segment; short data is
// zero padded.
func (e *Encoder) WriteFrame(universes []universe.Universe) error {
	if len(universes) != e.geom.UniverseCount {
		return fmt.Errorf("frame holds %d universes, geometry announces %d",
			len(universes), e.geom.UniverseCount)
	}

	if cap(e.buf) < e.geom.FrameLength() {
		e.buf = make([]byte, e.geom.FrameLength())
	}
	frame := e.buf[:e.geom.FrameLength()]

	for i, u := range universes {
		seg := frame[i*e.geom.SegmentSize : (i+1)*e.geom.SegmentSize]
		if len(u.Data) > len(seg)-universe.NumberSize {
			return fmt.Errorf("universe %d: %d data bytes exceed segment size %d",
				u.Number, len(u.Data), e.geom.SegmentSize)
		}
		binary.LittleEndian.PutUint16(seg[:universe.NumberSize], u.Number)
		n := copy(seg[universe.NumberSize:], u.Data)
		for j := universe.NumberSize + n; j < len(seg); j++ {
			seg[j] = 0
		}
	}

	_, err := e.w.Write(frame)
	return err
}
