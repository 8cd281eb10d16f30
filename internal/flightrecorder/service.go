// Package flightrecorder captures execution traces of slow requests.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"
)

const (
	// minAge is the minimum age of trace events to keep in the buffer.
	minAge = 2 * time.Minute

	// maxBytes is the maximum size of the trace buffer.
	maxBytes = 32 * 1024 * 1024

	// captureCooldown is the minimum time between trace captures so that a
	// burst of slow requests does not fill the disk.
	captureCooldown = 15 * time.Minute
)

// Service keeps a rolling execution trace in memory and dumps it to disk
// when asked.
type Service struct {
	logger      *slog.Logger
	recorder    *trace.FlightRecorder
	tracesDir   string
	lastCapture atomic.Int64
}

// New creates a flight recorder writing trace files under tracesDir. The
// directory is created if it does not exist.
func New(logger *slog.Logger, tracesDir string) (*Service, error) {
	if stat, err := os.Stat(tracesDir); err != nil {
		if err = os.MkdirAll(tracesDir, 0o700); err != nil {
			return nil, fmt.Errorf("create traces directory: %w", err)
		}
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("traces path is not a directory: %s", tracesDir)
	}

	recorder := trace.NewFlightRecorder(trace.FlightRecorderConfig{
		MinAge:   minAge,
		MaxBytes: maxBytes,
	})

	return &Service{
		logger:    logger,
		recorder:  recorder,
		tracesDir: tracesDir,
	}, nil
}

// Start begins recording.
func (s *Service) Start(ctx context.Context) error {
	if err := s.recorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("traces_dir", s.tracesDir))

	return nil
}

// Stop ends recording.
func (s *Service) Stop(ctx context.Context) {
	s.recorder.Stop()

	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// CaptureSlowTrace writes the in-memory trace buffer to a file. Captures
// within the cooldown window are dropped.
func (s *Service) CaptureSlowTrace(ctx context.Context) {
	now := time.Now().Unix()
	last := s.lastCapture.Load()

	if last > 0 && time.Duration(now-last)*time.Second < captureCooldown {
		return
	}
	if !s.lastCapture.CompareAndSwap(last, now) {
		// Another goroutine is already capturing.
		return
	}

	timestamp := time.Unix(now, 0).UTC().Format("20060102-150405")
	path := filepath.Join(s.tracesDir, fmt.Sprintf("slow-%s.trace", timestamp))

	file, err := os.Create(path)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to create trace file",
			slog.String("file", path),
			slog.Any("error", err))
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to close trace file",
				slog.String("file", path),
				slog.Any("error", closeErr))
		}
	}()

	written, err := s.recorder.WriteTo(file)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to write trace",
			slog.String("file", path),
			slog.Any("error", err))
		return
	}

	s.logger.LogAttrs(ctx, slog.LevelWarn, "captured slow request trace",
		slog.String("file", path),
		slog.Int64("bytes", written))
}
