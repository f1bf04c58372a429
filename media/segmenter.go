// Package media cuts source audio into fixed-length overlapping windows
// using ffmpeg, with ffprobe for duration probing. External tools run
// behind an injectable runner so window planning and extraction are
// testable without binaries.
package media

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pansum/panelpipe/pipeline"
)

// WindowSpec describes one planned extract before it is materialized.
type WindowSpec struct {
	Index      int
	StartSec   float64 // seek position in the source audio
	LengthSec  float64 // extract length including overlap
	BaseOffset float64 // global offset contributed to timestamps
}

// PlanWindows computes ceil(duration/segmentSeconds) window specs. Every
// window after the first starts overlapSeconds early, and every window but
// the last carries overlapSeconds of trailing audio; the base offset is
// always index*segmentSeconds regardless of overlap.
func PlanWindows(duration, segmentSeconds, overlapSeconds float64) []WindowSpec {
	if duration <= 0 {
		return nil
	}
	count := int(math.Ceil(duration / segmentSeconds))
	specs := make([]WindowSpec, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * segmentSeconds
		if i > 0 {
			start = math.Max(0, start-overlapSeconds)
		}
		length := segmentSeconds
		if i < count-1 {
			length += overlapSeconds
		}
		specs = append(specs, WindowSpec{
			Index:      i,
			StartSec:   start,
			LengthSec:  length,
			BaseOffset: float64(i) * segmentSeconds,
		})
	}
	return specs
}

type commandResult struct {
	Stdout string
	Stderr string
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := commandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return res, fmt.Errorf("%s: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
	}
	return res, nil
}

// Segmenter materializes audio windows as independent 16 kHz mono WAV
// extracts. Extraction is idempotent: an existing extract at the target
// path is reused.
type Segmenter struct {
	SegmentSeconds float64
	OverlapSeconds float64
	TmpDir         string

	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
	stat        func(name string) (os.FileInfo, error)
	mkdirAll    func(path string, perm os.FileMode) error
	log         *logrus.Logger
}

// NewSegmenter constructs the production segmenter with OS dependencies.
func NewSegmenter(segmentSeconds, overlapSeconds float64, tmpDir string, log *logrus.Logger) *Segmenter {
	return &Segmenter{
		SegmentSeconds: segmentSeconds,
		OverlapSeconds: overlapSeconds,
		TmpDir:         tmpDir,
		ffmpegPath:     "ffmpeg",
		ffprobePath:    "ffprobe",
		runner:         execRunner{},
		stat:           os.Stat,
		mkdirAll:       os.MkdirAll,
		log:            log,
	}
}

// Duration probes the total length of the audio file in seconds.
func (s *Segmenter) Duration(ctx context.Context, audioPath string) (float64, error) {
	res, err := s.runner.Run(ctx, s.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(res.Stdout), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", strings.TrimSpace(res.Stdout), err)
	}
	return dur, nil
}

// Split cuts audioPath into windows. Any probe or extraction failure is
// fatal to the run; there is no partial-audio mode.
func (s *Segmenter) Split(ctx context.Context, audioPath string) ([]pipeline.Window, error) {
	duration, err := s.Duration(ctx, audioPath)
	if err != nil {
		return nil, &pipeline.SegmentationError{Path: audioPath, Err: err}
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	dir := s.TmpDir
	if dir == "" {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "windows_"+stem)
	if err := s.mkdirAll(dir, 0o755); err != nil {
		return nil, &pipeline.SegmentationError{Path: audioPath, Err: err}
	}

	specs := PlanWindows(duration, s.SegmentSeconds, s.OverlapSeconds)
	s.log.WithFields(logrus.Fields{"windows": len(specs), "duration": duration, "dir": dir}).
		Info("splitting audio into windows")

	windows := make([]pipeline.Window, 0, len(specs))
	for _, spec := range specs {
		out := filepath.Join(dir, fmt.Sprintf("%s_window_%03d.wav", stem, spec.Index))
		if _, statErr := s.stat(out); statErr == nil {
			s.log.WithField("window", spec.Index).Debug("reusing existing extract")
		} else if err := s.extract(ctx, audioPath, out, spec); err != nil {
			return nil, &pipeline.SegmentationError{Path: audioPath, Err: err}
		}
		windows = append(windows, pipeline.Window{
			Index:      spec.Index,
			Path:       out,
			BaseOffset: spec.BaseOffset,
			Duration:   spec.LengthSec,
		})
	}
	return windows, nil
}

func (s *Segmenter) extract(ctx context.Context, audioPath, out string, spec WindowSpec) error {
	_, err := s.runner.Run(ctx, s.ffmpegPath, buildExtractArgs(audioPath, out, spec)...)
	if err != nil {
		return fmt.Errorf("extract window %d: %w", spec.Index, err)
	}
	if _, err := s.stat(out); err != nil {
		return fmt.Errorf("extract window %d: ffmpeg completed but output is missing: %w", spec.Index, err)
	}
	return nil
}

// buildExtractArgs builds ffmpeg args for one mono 16 kHz WAV extract.
func buildExtractArgs(in, out string, spec WindowSpec) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", in,
		"-ss", formatSeconds(spec.StartSec),
		"-t", formatSeconds(spec.LengthSec),
		"-ac", "1",
		"-ar", "16000",
		out,
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
