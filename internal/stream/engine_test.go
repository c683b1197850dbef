package stream_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/shenghaoyang/ola-video-convert/internal/ola"
	"github.com/shenghaoyang/ola-video-convert/internal/stream"
	"github.com/shenghaoyang/ola-video-convert/internal/universe"
)

const testHeader = "GREY W5 H2 F25:1 Ia A0:0\n"

// testFrame is two 5-byte segments: universe 1 with data 10,11,12 and
// universe 2 with data 20,21,22.
var testFrame = []byte{0x01, 0x00, 0x0a, 0x0b, 0x0c, 0x02, 0x00, 0x14, 0x15, 0x16}

// captureSink records everything the engine emits.
type captureSink struct {
	geometries []stream.Geometry
	frames     [][]universe.Universe
}

func (c *captureSink) GeometryChanged(g stream.Geometry) {
	c.geometries = append(c.geometries, g)
}

func (c *captureSink) WriteFrame(universes []universe.Universe) error {
	copied := make([]universe.Universe, len(universes))
	copy(copied, universes)
	c.frames = append(c.frames, copied)
	return nil
}

func runLines(t *testing.T, input []byte) []string {
	t.Helper()
	var out bytes.Buffer
	engine := stream.NewEngine(bytes.NewReader(input), ola.NewLineWriter(&out))
	if err := engine.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	lines := strings.SplitAfter(out.String(), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func TestRun_SingleFrame(t *testing.T) {
	var out bytes.Buffer
	input := append([]byte(testHeader), testFrame...)
	engine := stream.NewEngine(bytes.NewReader(input), ola.NewLineWriter(&out))

	if err := engine.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "1 10,11,12 2 20,21,22\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if engine.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", engine.Frames())
	}

	g, ok := engine.Geometry()
	if !ok {
		t.Fatal("Geometry() reported no active geometry")
	}
	if g.UniverseCount != 2 || g.SegmentSize != 5 {
		t.Errorf("Geometry() = %+v, want universe count 2, segment size 5", g)
	}
}

func TestRun_SameFrameTwice(t *testing.T) {
	input := append([]byte(testHeader), testFrame...)
	input = append(input, testFrame...)

	lines := runLines(t, input)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != lines[1] {
		t.Errorf("identical frames produced different lines: %q vs %q", lines[0], lines[1])
	}
	if lines[0] != "1 10,11,12 2 20,21,22\n" {
		t.Errorf("line = %q, want %q", lines[0], "1 10,11,12 2 20,21,22\n")
	}
}

func TestRun_GeometryChangeMidStream(t *testing.T) {
	input := append([]byte(testHeader), testFrame...)
	input = append(input, []byte("GREY W4 H1 F25:1 Ia A0:0\n")...)
	input = append(input, 0x07, 0x00, 0x2a, 0x2b)

	lines := runLines(t, input)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[1] != "7 42,43\n" {
		t.Errorf("frame after geometry change = %q, want %q", lines[1], "7 42,43\n")
	}
}

func TestRun_HeaderReplacesGeometryCompletely(t *testing.T) {
	sink := &captureSink{}
	input := []byte(testHeader)
	input = append(input, []byte("GREY W3 H4 F25:1 Ia A0:0\n")...)
	input = append(input, 1, 0, 100, 2, 0, 101, 3, 0, 102, 4, 0, 103)

	engine := stream.NewEngine(bytes.NewReader(input), sink)
	if err := engine.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sink.geometries) != 2 {
		t.Fatalf("got %d geometry changes, want 2", len(sink.geometries))
	}
	if len(sink.frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(sink.frames))
	}
	if len(sink.frames[0]) != 4 {
		t.Errorf("frame decoded %d universes, want 4 (new geometry)", len(sink.frames[0]))
	}
}

func TestRun_EOFBeforeAnyHeader(t *testing.T) {
	lines := runLines(t, []byte("no header in sight, just text\x00\x01\x02"))
	if len(lines) != 0 {
		t.Errorf("got %d lines, want 0", len(lines))
	}
}

func TestRun_EmptyInput(t *testing.T) {
	lines := runLines(t, nil)
	if len(lines) != 0 {
		t.Errorf("got %d lines, want 0", len(lines))
	}
}

func TestRun_EOFMidFrame(t *testing.T) {
	input := append([]byte(testHeader), testFrame[:4]...)
	lines := runLines(t, input)
	if len(lines) != 0 {
		t.Errorf("partial frame produced %d lines, want 0", len(lines))
	}
}

func TestRun_EOFMidHeader(t *testing.T) {
	lines := runLines(t, []byte("GREY W5 H2 F25"))
	if len(lines) != 0 {
		t.Errorf("partial header produced %d lines, want 0", len(lines))
	}
}

func TestRun_JunkBeforeFirstHeader(t *testing.T) {
	input := []byte("some leading garbage\nGR\x00\xff")
	input = append(input, []byte(testHeader)...)
	input = append(input, testFrame...)

	lines := runLines(t, input)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0] != "1 10,11,12 2 20,21,22\n" {
		t.Errorf("line = %q, want %q", lines[0], "1 10,11,12 2 20,21,22\n")
	}
}

func TestRun_HeaderTakesPrecedenceOverFrame(t *testing.T) {
	// The second header arrives exactly where a frame is expected; it
	// must be read as a geometry change even though its bytes could
	// also be consumed as frame content.
	input := []byte(testHeader)
	input = append(input, []byte("GREY W3 H1 F25:1 Ia A0:0\n")...)
	input = append(input, 0x05, 0x00, 0xff)

	lines := runLines(t, input)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0] != "5 255\n" {
		t.Errorf("line = %q, want %q", lines[0], "5 255\n")
	}
}

func TestRun_FrameStartingWithMagicBytes(t *testing.T) {
	// A frame whose bytes begin with "GREY W" but never complete into
	// a header must still be consumed as a frame.
	frame1 := []byte("GREY W1 H2") // 10 bytes, no newline follows
	frame2 := []byte{0x01, 0x00, 1, 2, 3, 0x02, 0x00, 4, 5, 6}

	input := append([]byte(testHeader), frame1...)
	input = append(input, frame2...)

	sink := &captureSink{}
	engine := stream.NewEngine(bytes.NewReader(input), sink)
	if err := engine.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(sink.frames))
	}
	if got := sink.frames[1][1].Number; got != 2 {
		t.Errorf("second frame, second universe number = %d, want 2", got)
	}
}

func TestRun_HeaderFieldOverflowIsFatal(t *testing.T) {
	input := []byte("GREY W99999999999999999999 H2 F25:1 Ia A0:0\n")
	engine := stream.NewEngine(bytes.NewReader(input), &captureSink{})

	err := engine.Run()
	if err == nil {
		t.Fatal("Run() expected error, got nil")
	}
	var headerErr *stream.HeaderError
	if !errors.As(err, &headerErr) {
		t.Errorf("Run() error = %v, want *HeaderError", err)
	}
}

func TestRun_HeaderWithZeroUniversesIsFatal(t *testing.T) {
	input := []byte("GREY W5 H0 F25:1 Ia A0:0\n")
	engine := stream.NewEngine(bytes.NewReader(input), &captureSink{})

	var headerErr *stream.HeaderError
	if err := engine.Run(); !errors.As(err, &headerErr) {
		t.Errorf("Run() error = %v, want *HeaderError", err)
	}
}

func TestRun_OneByteReads(t *testing.T) {
	// The engine must not depend on chunk boundaries.
	input := append([]byte(testHeader), testFrame...)
	input = append(input, testFrame...)

	var out bytes.Buffer
	engine := stream.NewEngine(iotest.OneByteReader(bytes.NewReader(input)), ola.NewLineWriter(&out))
	if err := engine.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "1 10,11,12 2 20,21,22\n1 10,11,12 2 20,21,22\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

type failingSink struct{}

func (failingSink) GeometryChanged(stream.Geometry) {}

func (failingSink) WriteFrame([]universe.Universe) error {
	return errors.New("downstream gone")
}

func TestRun_SinkErrorIsFatal(t *testing.T) {
	input := append([]byte(testHeader), testFrame...)
	engine := stream.NewEngine(bytes.NewReader(input), failingSink{})

	err := engine.Run()
	if err == nil {
		t.Fatal("Run() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "downstream gone") {
		t.Errorf("Run() error = %v, want wrapped sink error", err)
	}
}
