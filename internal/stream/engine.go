package stream

import (
	"fmt"
	"io"

	"github.com/shenghaoyang/ola-video-convert/internal/universe"
)

// Sink consumes the decoded output of the engine. WriteFrame is called
// once per frame, in stream order; GeometryChanged is called whenever
// a header (including the first) replaces the active geometry.
type Sink interface {
	GeometryChanged(g Geometry)
	WriteFrame(universes []universe.Universe) error
}

// Engine is the stream state machine. It starts without a geometry,
// waits for the first header, and then alternates between geometry
// changes and fixed-length frames until the input ends. End of stream
// is always a clean stop, whichever state it arrives in; a partially
// received frame emits nothing.
type Engine struct {
	sc     *scanner
	sinks  []Sink
	geom   Geometry
	active bool
	frames uint64
}

// NewEngine returns an engine reading from r and emitting to sinks.
func NewEngine(r io.Reader, sinks ...Sink) *Engine {
	return &Engine{sc: newScanner(r), sinks: sinks}
}

// Frames returns the number of frames emitted so far.
func (e *Engine) Frames() uint64 {
	return e.frames
}

// Geometry returns the active geometry and whether one has been seen.
func (e *Engine) Geometry() (Geometry, bool) {
	return e.geom, e.active
}

// Run pulls the stream to exhaustion. It returns nil on a clean end of
// stream, a *HeaderError if a matching header carries an unusable
// field, and the underlying error if reading or a sink write fails.
func (e *Engine) Run() error {
	for {
		if !e.active {
			g, ok, err := e.sc.nextHeader()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			e.setGeometry(g)
			continue
		}

		m, ok, err := e.sc.next(e.geom.FrameLength())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		switch m.kind {
		case matchHeader:
			e.setGeometry(m.geom)
		case matchFrame:
			universes := universe.DecodeFrame(m.frame, e.geom.SegmentSize)
			for _, sink := range e.sinks {
				if err := sink.WriteFrame(universes); err != nil {
					return fmt.Errorf("writing frame %d: %w", e.frames, err)
				}
			}
			e.frames++
		}
	}
}

func (e *Engine) setGeometry(g Geometry) {
	e.geom = g
	e.active = true
	for _, sink := range e.sinks {
		sink.GeometryChanged(g)
	}
}
