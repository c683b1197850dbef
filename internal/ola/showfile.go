package ola

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// ShowfileHeader is the first line of a V1 OLA recorder showfile.
	ShowfileHeader = "OLA Show"
	// MaxChannels is the number of channels in a full DMX universe.
	MaxChannels = 512
)

// ShowFrame is one recorder frame: a universe's channel state and the
// time it stays on air. The final frame of a showfile has no trailing
// duration line; its DurationMS is reported as -1.
type ShowFrame struct {
	DurationMS int64
	Universe   uint32
	Data       []byte // always MaxChannels long, zero padded
}

// ShowfileReader reads frames from an OLA recorder showfile.
//
// Not a fully strict reader: the "OLA Show" header line and blank
// lines are skipped wherever they appear.
type ShowfileReader struct {
	sc   *bufio.Scanner
	done bool
}

// NewShowfileReader returns a reader over r.
func NewShowfileReader(r io.Reader) *ShowfileReader {
	return &ShowfileReader{sc: bufio.NewScanner(r)}
}

// ReadFrame reads the next frame. It returns io.EOF once the showfile
// is exhausted.
func (r *ShowfileReader) ReadFrame() (ShowFrame, error) {
	if r.done {
		return ShowFrame{}, io.EOF
	}

	frame := ShowFrame{Data: make([]byte, MaxChannels)}
	haveData := false

	for r.sc.Scan() {
		line := strings.TrimSpace(r.sc.Text())
		if line == "" || line == ShowfileHeader {
			continue
		}

		field, rest, _ := strings.Cut(line, " ")
		val, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return ShowFrame{}, fmt.Errorf("bad frame duration / universe number %q: %w", field, err)
		}

		if rest = strings.TrimSpace(rest); rest == "" {
			// A bare number is the duration line closing the frame.
			if !haveData {
				return ShowFrame{}, errors.New("frame duration before any frame data")
			}
			frame.DurationMS = int64(val)
			return frame, nil
		}

		frame.Universe = uint32(val)
		if err := parseChannels(rest, frame.Data); err != nil {
			return ShowFrame{}, err
		}
		haveData = true
	}
	if err := r.sc.Err(); err != nil {
		return ShowFrame{}, fmt.Errorf("reading showfile: %w", err)
	}

	r.done = true
	if haveData {
		// Data with no closing duration: the recorder's final frame.
		frame.DurationMS = -1
		return frame, nil
	}
	return ShowFrame{}, io.EOF
}

// parseChannels fills dst from a comma-separated channel list,
// zeroing channels the list does not cover. A single trailing comma is
// tolerated, as the original reader's was.
func parseChannels(s string, dst []byte) error {
	for i := range dst {
		dst[i] = 0
	}

	fields := strings.Split(s, ",")
	if n := len(fields); n > 1 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	if len(fields) > len(dst) {
		return fmt.Errorf("too many channels: %d > %d", len(fields), len(dst))
	}

	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return fmt.Errorf("channel %d undefined / has wrong format: %q", i, f)
		}
		if v > 255 {
			return fmt.Errorf("channel %d value overflow: %d", i, v)
		}
		dst[i] = byte(v)
	}
	return nil
}
