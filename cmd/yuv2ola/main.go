// Package main is the entry point for yuv2ola, which converts a GREY
// video byte stream into OLA streaming commands.
package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shenghaoyang/ola-video-convert/internal/config"
	"github.com/shenghaoyang/ola-video-convert/internal/monitor"
	"github.com/shenghaoyang/ola-video-convert/internal/ola"
	"github.com/shenghaoyang/ola-video-convert/internal/pubsub"
	"github.com/shenghaoyang/ola-video-convert/internal/stream"
	"github.com/shenghaoyang/ola-video-convert/internal/universe"
	"github.com/shenghaoyang/ola-video-convert/pkg/artnet"
)

// logSink reports geometry changes; frames pass through silently.
type logSink struct{}

func (logSink) GeometryChanged(g stream.Geometry) {
	log.Printf("Got stream header: %s", g)
}

func (logSink) WriteFrame([]universe.Universe) error { return nil }

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	in, err := openInput(cfg.InputPath)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}

	out, flushOut, err := openOutput(cfg.OutputPath)
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}
	defer flushOut()

	sinks := []stream.Sink{logSink{}, ola.NewLineWriter(out)}

	if cfg.ArtNetEnabled {
		sender, err := artnet.NewSender(cfg.ArtNetBroadcast, cfg.ArtNetPort)
		if err != nil {
			log.Fatalf("Failed to start Art-Net output: %v", err)
		}
		defer func() { _ = sender.Close() }()
		log.Printf("Art-Net output enabled, broadcasting to %s:%d", cfg.ArtNetBroadcast, cfg.ArtNetPort)
		sinks = append(sinks, sender)
	}

	var monitorServer *monitor.Server
	if cfg.MonitorEnabled {
		ps := pubsub.New()
		sinks = append(sinks, monitor.NewSink(ps))
		monitorServer = monitor.NewServer(cfg.MonitorPort, cfg.CORSOrigin, ps)
		monitorServer.Start()
	}

	engine := stream.NewEngine(in, sinks...)

	// The stream is cancelled by closing its input; a signal is just a
	// request to do that.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Signal received, closing input stream...")
		_ = in.Close()
	}()

	runErr := engine.Run()

	if monitorServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := monitorServer.Shutdown(ctx); err != nil {
			log.Printf("Monitor shutdown error: %v", err)
		}
	}

	switch {
	case runErr == nil, errors.Is(runErr, os.ErrClosed):
		log.Printf("Stream closed after %d frame(s)", engine.Frames())
	default:
		var headerErr *stream.HeaderError
		if errors.As(runErr, &headerErr) {
			log.Fatalf("Malformed header: %v", headerErr)
		}
		log.Fatalf("Exiting with error: %v", runErr)
	}
}

// openInput opens the input stream; "-" means stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

// openOutput opens the output stream; "-" means stdout. Files are
// buffered; the returned flush runs at exit (the line writer flushes
// per frame on its own).
func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := bufio.NewWriter(f)
	return w, func() {
		_ = w.Flush()
		_ = f.Close()
	}, nil
}
