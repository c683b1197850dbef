// Package ola speaks the OLA daemon's text surfaces: the line-oriented
// streaming commands emitted per frame, and the recorder showfile
// format consumed by the encoder.
package ola

import (
	"io"
	"strconv"

	"github.com/shenghaoyang/ola-video-convert/internal/stream"
	"github.com/shenghaoyang/ola-video-convert/internal/universe"
)

// AppendLine appends one frame's command line to dst:
// `<number> <d0>,<d1>,...` per universe, universes joined by a single
// space, terminated by a line break. All values are plain decimal.
func AppendLine(dst []byte, universes []universe.Universe) []byte {
	for i, u := range universes {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendUint(dst, uint64(u.Number), 10)
		dst = append(dst, ' ')
		for j, v := range u.Data {
			if j > 0 {
				dst = append(dst, ',')
			}
			dst = strconv.AppendUint(dst, uint64(v), 10)
		}
	}
	return append(dst, '\n')
}

// FormatLine renders one frame's command line, including the trailing
// line break.
func FormatLine(universes []universe.Universe) string {
	return string(AppendLine(nil, universes))
}

type flusher interface {
	Flush() error
}

// LineWriter emits one command line per frame to w. Each line is
// written with a single Write call and flushed straight away when w is
// buffered, so the daemon on the other end of the pipe observes every
// frame without delay.
type LineWriter struct {
	w   io.Writer
	buf []byte
}

// NewLineWriter returns a LineWriter emitting to w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// GeometryChanged implements stream.Sink; the text protocol carries no
// geometry, so there is nothing to emit.
func (lw *LineWriter) GeometryChanged(stream.Geometry) {}

// WriteFrame implements stream.Sink.
func (lw *LineWriter) WriteFrame(universes []universe.Universe) error {
	lw.buf = AppendLine(lw.buf[:0], universes)
	if _, err := lw.w.Write(lw.buf); err != nil {
		return err
	}
	if f, ok := lw.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
