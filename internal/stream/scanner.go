package stream

import (
	"bytes"
	"fmt"
	"io"
)

const readChunk = 4096

// scanner is a pull-based cursor over the raw byte stream. It buffers
// just enough input to decide, at the current position, between the
// header and frame alternatives, and consumes exactly the bytes each
// match covers.
type scanner struct {
	r   io.Reader
	buf []byte
	eof bool
}

func newScanner(r io.Reader) *scanner {
	return &scanner{r: r}
}

// fill reads one more chunk into the buffer. Reaching end of stream is
// recorded, not returned as an error.
func (s *scanner) fill() error {
	if s.eof {
		return nil
	}
	chunk := make([]byte, readChunk)
	n, err := s.r.Read(chunk)
	s.buf = append(s.buf, chunk[:n]...)
	if err == io.EOF {
		s.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

func (s *scanner) discard(n int) {
	s.buf = s.buf[n:]
}

// take consumes n buffered bytes and returns them as a fresh slice, so
// frames handed downstream never alias the scan buffer.
func (s *scanner) take(n int) []byte {
	out := make([]byte, n)
	copy(out, s.buf[:n])
	s.discard(n)
	return out
}

// nextHeader scans forward for the first header in the stream,
// discarding any bytes that precede it. It returns ok=false if the
// stream ends without a header ever matching.
func (s *scanner) nextHeader() (Geometry, bool, error) {
	for {
		s.dropJunk()

		if m := headerAt.FindSubmatch(s.buf); m != nil {
			g, err := parseGeometry(m[1], m[2])
			if err != nil {
				return Geometry{}, false, err
			}
			s.discard(len(m[0]))
			return g, true, nil
		}

		// A complete non-header line starting with the magic can never
		// match, and neither can an overlong one; skip past the first
		// byte and rescan.
		if bytes.HasPrefix(s.buf, headerMagic) &&
			(bytes.IndexByte(s.buf, '\n') >= 0 || len(s.buf) > maxHeaderLen) {
			s.discard(1)
			continue
		}

		if s.eof {
			return Geometry{}, false, nil
		}
		if err := s.fill(); err != nil {
			return Geometry{}, false, err
		}
	}
}

// dropJunk discards buffered bytes that cannot be part of a header,
// keeping at most a partial magic prefix at the tail.
func (s *scanner) dropJunk() {
	if i := bytes.Index(s.buf, headerMagic); i >= 0 {
		s.discard(i)
		return
	}
	keep := 0
	for k := min(len(s.buf), len(headerMagic)-1); k > 0; k-- {
		if bytes.HasSuffix(s.buf, headerMagic[:k]) {
			keep = k
			break
		}
	}
	s.discard(len(s.buf) - keep)
}

// matchKind tags the two alternatives the streaming state can see.
type matchKind int

const (
	matchHeader matchKind = iota
	matchFrame
)

// match is the tagged result of one streaming-state read: either a
// replacement geometry or one frame of raw bytes.
type match struct {
	kind  matchKind
	geom  Geometry
	frame []byte
}

// next performs one streaming-state read: a header match at the cursor
// takes precedence over the frame alternative, even when the same
// bytes could pass for frame content. ok=false means the stream ended
// before either alternative completed (a partial frame emits nothing).
func (s *scanner) next(frameLen int) (match, bool, error) {
	for {
		decided, m := s.headerCandidate()
		if !decided {
			if err := s.fill(); err != nil {
				return match{}, false, err
			}
			continue
		}

		if m != nil {
			g, err := parseGeometry(m[1], m[2])
			if err != nil {
				return match{}, false, err
			}
			s.discard(len(m[0]))
			return match{kind: matchHeader, geom: g}, true, nil
		}

		if len(s.buf) >= frameLen {
			return match{kind: matchFrame, frame: s.take(frameLen)}, true, nil
		}
		if s.eof {
			return match{}, false, nil
		}
		if err := s.fill(); err != nil {
			return match{}, false, err
		}
	}
}

// headerCandidate decides whether the bytes at the cursor form a
// header. decided=false means more input is needed to tell.
func (s *scanner) headerCandidate() (decided bool, m [][]byte) {
	prefix := min(len(s.buf), len(headerMagic))
	if !bytes.Equal(s.buf[:prefix], headerMagic[:prefix]) {
		return true, nil
	}
	if prefix < len(headerMagic) {
		// Still inside the magic; only the stream ending settles it.
		return s.eof, nil
	}

	if m := headerAt.FindSubmatch(s.buf); m != nil {
		return true, m
	}
	if bytes.IndexByte(s.buf, '\n') < 0 && len(s.buf) < maxHeaderLen && !s.eof {
		return false, nil
	}
	return true, nil
}
