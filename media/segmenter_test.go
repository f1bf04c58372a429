package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// TestPlanWindowsCoverage verifies count and base offsets for several
// duration/segment combinations.
func TestPlanWindowsCoverage(t *testing.T) {
	cases := []struct {
		duration float64
		segment  float64
		overlap  float64
		want     int
	}{
		{duration: 600, segment: 180, overlap: 3, want: 4},
		{duration: 180, segment: 180, overlap: 3, want: 1},
		{duration: 181, segment: 180, overlap: 3, want: 2},
		{duration: 10, segment: 180, overlap: 3, want: 1},
		{duration: 540, segment: 180, overlap: 0, want: 3},
	}

	for _, tc := range cases {
		specs := PlanWindows(tc.duration, tc.segment, tc.overlap)
		if len(specs) != tc.want {
			t.Fatalf("PlanWindows(%v, %v): %d windows, want %d",
				tc.duration, tc.segment, len(specs), tc.want)
		}
		if want := int(math.Ceil(tc.duration / tc.segment)); len(specs) != want {
			t.Fatalf("window count %d does not match ceil(D/S)=%d", len(specs), want)
		}
		for i, spec := range specs {
			if spec.Index != i {
				t.Fatalf("spec %d has index %d", i, spec.Index)
			}
			if got, want := spec.BaseOffset, float64(i)*tc.segment; got != want {
				t.Fatalf("window %d base offset = %v, want %v", i, got, want)
			}
		}
	}
}

// TestPlanWindowsOverlap checks the leading/trailing overlap rules.
func TestPlanWindowsOverlap(t *testing.T) {
	specs := PlanWindows(540, 180, 3)
	if len(specs) != 3 {
		t.Fatalf("got %d windows, want 3", len(specs))
	}

	if specs[0].StartSec != 0 {
		t.Fatalf("first window must start at 0, got %v", specs[0].StartSec)
	}
	if specs[0].LengthSec != 183 {
		t.Fatalf("first window length = %v, want segment+overlap", specs[0].LengthSec)
	}
	if specs[1].StartSec != 177 {
		t.Fatalf("second window starts %v, want 177 (early by overlap)", specs[1].StartSec)
	}
	if specs[2].LengthSec != 180 {
		t.Fatalf("last window length = %v, want plain segment (no trailing overlap)", specs[2].LengthSec)
	}
}

func TestPlanWindowsZeroDuration(t *testing.T) {
	if specs := PlanWindows(0, 180, 3); specs != nil {
		t.Fatalf("expected no windows for zero duration, got %d", len(specs))
	}
}

// fakeRunner records invocations and simulates ffprobe/ffmpeg outputs.
type fakeRunner struct {
	duration string
	created  map[string]bool
	calls    [][]string
	fail     bool
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (commandResult, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if name == "ffprobe" {
		return commandResult{Stdout: r.duration + "\n"}, nil
	}
	if r.fail {
		return commandResult{Stderr: "boom"}, errors.New("exit status 1")
	}
	// last arg is the output path
	r.created[args[len(args)-1]] = true
	return commandResult{}, nil
}

func testSegmenter(r *fakeRunner) *Segmenter {
	s := NewSegmenter(180, 3, "/tmp/panelpipe-test", quietLogger())
	s.runner = r
	s.mkdirAll = func(string, os.FileMode) error { return nil }
	s.stat = func(name string) (os.FileInfo, error) {
		if r.created[name] {
			return nil, nil
		}
		return nil, os.ErrNotExist
	}
	return s
}

func TestSplitExtractsEveryWindow(t *testing.T) {
	r := &fakeRunner{duration: "400.5", created: map[string]bool{}}
	s := testSegmenter(r)

	windows, err := s.Split(context.Background(), "/audio/panel.wav")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want ceil(400.5/180)=3", len(windows))
	}
	for i, w := range windows {
		if w.Index != i {
			t.Fatalf("window %d has index %d", i, w.Index)
		}
		if w.BaseOffset != float64(i)*180 {
			t.Fatalf("window %d base offset %v", i, w.BaseOffset)
		}
		if !strings.HasSuffix(w.Path, fmt.Sprintf("panel_window_%03d.wav", i)) {
			t.Fatalf("unexpected window path %q", w.Path)
		}
	}
	// 1 probe + 3 extracts
	if len(r.calls) != 4 {
		t.Fatalf("got %d command invocations, want 4", len(r.calls))
	}
}

func TestSplitReusesExistingExtracts(t *testing.T) {
	r := &fakeRunner{duration: "400.5", created: map[string]bool{}}
	s := testSegmenter(r)

	if _, err := s.Split(context.Background(), "/audio/panel.wav"); err != nil {
		t.Fatalf("first split: %v", err)
	}
	probeAndExtracts := len(r.calls)

	if _, err := s.Split(context.Background(), "/audio/panel.wav"); err != nil {
		t.Fatalf("second split: %v", err)
	}
	// only the probe runs again; extracts already exist
	if got := len(r.calls) - probeAndExtracts; got != 1 {
		t.Fatalf("second split ran %d commands, want 1 (probe only)", got)
	}
}

func TestSplitExtractionFailureIsFatal(t *testing.T) {
	r := &fakeRunner{duration: "400.5", created: map[string]bool{}, fail: true}
	s := testSegmenter(r)

	_, err := s.Split(context.Background(), "/audio/panel.wav")
	if err == nil {
		t.Fatal("expected segmentation error")
	}
}

func TestBuildExtractArgs(t *testing.T) {
	args := buildExtractArgs("in.wav", "out.wav", WindowSpec{StartSec: 177, LengthSec: 183})
	joined := strings.Join(args, " ")
	for _, want := range []string{"-ss 177", "-t 183", "-ac 1", "-ar 16000", "-i in.wav", "out.wav"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}
