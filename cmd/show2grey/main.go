// Package main is the entry point for show2grey, which converts an OLA
// recorder showfile into the GREY video byte stream yuv2ola consumes.
package main

import (
	"bufio"
	"errors"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/shenghaoyang/ola-video-convert/internal/config"
	"github.com/shenghaoyang/ola-video-convert/internal/ola"
	"github.com/shenghaoyang/ola-video-convert/internal/stream"
	"github.com/shenghaoyang/ola-video-convert/internal/universe"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if cfg.UniverseCount <= 0 {
		log.Fatal("UNIVERSE_COUNT must be set to the number of universes in the showfile")
	}
	if cfg.GreyFrameRate <= 0 {
		log.Fatal("GREY_FRAME_RATE must be positive")
	}

	in := os.Stdin
	if cfg.InputPath != "-" {
		f, err := os.Open(cfg.InputPath)
		if err != nil {
			log.Fatalf("Could not open showfile: %v", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var out io.Writer = os.Stdout
	if cfg.OutputPath != "-" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			log.Fatalf("Could not create output: %v", err)
		}
		w := bufio.NewWriter(f)
		defer func() {
			_ = w.Flush()
			_ = f.Close()
		}()
		out = w
	}

	if err := convert(in, out, cfg); err != nil {
		log.Fatalf("Exiting with error: %v", err)
	}
}

// convert replays the showfile as a constant-rate GREY stream. Each
// emitted frame is the full state of all universes; showfile durations
// are expressed by repeating the snapshot for the nearest whole number
// of frame periods (at least one).
func convert(in io.Reader, out io.Writer, cfg *config.Config) error {
	geom := stream.Geometry{
		UniverseCount: cfg.UniverseCount,
		SegmentSize:   universe.NumberSize + ola.MaxChannels,
	}
	enc := stream.NewEncoder(out, geom, cfg.GreyFrameRate)
	if err := enc.WriteHeader(); err != nil {
		return err
	}

	states := make(map[uint32][]byte)
	reader := ola.NewShowfileReader(in)
	framePeriodMS := 1000.0 / float64(cfg.GreyFrameRate)
	start := time.Now()

	for count := 0; ; count++ {
		frame, err := reader.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		states[frame.Universe] = frame.Data
		if len(states) > cfg.UniverseCount {
			return errors.New("too many universes in showfile")
		}

		duration := frame.DurationMS
		if duration == 0 {
			continue
		}
		if duration == -1 {
			duration = int64(cfg.LastFrameDurationMS)
		}

		if len(states) != cfg.UniverseCount {
			return errors.New("universe state(s) undefined at encode")
		}

		repeats := int(float64(duration)/framePeriodMS + 0.5)
		if repeats < 1 {
			repeats = 1
		}
		snapshot := snapshotStates(states)
		for i := 0; i < repeats; i++ {
			if err := enc.WriteFrame(snapshot); err != nil {
				return err
			}
		}

		if cfg.ProgressInterval > 0 && count > 0 && count%cfg.ProgressInterval == 0 {
			elapsed := time.Since(start).Seconds()
			log.Printf("Frame %d, elapsed %.2fs, average FPS %.1f", count, elapsed, float64(count)/elapsed)
		}
	}
}

// snapshotStates renders the current universe states in ascending
// universe order, as the recorder wrote them.
func snapshotStates(states map[uint32][]byte) []universe.Universe {
	numbers := make([]uint32, 0, len(states))
	for n := range states {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	universes := make([]universe.Universe, 0, len(numbers))
	for _, n := range numbers {
		universes = append(universes, universe.Universe{
			Number: uint16(n),
			Data:   states[n],
		})
	}
	return universes
}
