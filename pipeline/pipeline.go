package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pansum/panelpipe/config"
	"github.com/pansum/panelpipe/metrics"
	"github.com/pansum/panelpipe/tokenize"
)

// Segmenter cuts the source audio into windows. Implemented by media.Segmenter.
type Segmenter interface {
	Split(ctx context.Context, audioPath string) ([]Window, error)
}

// Transcriber is the speech-to-text capability for one window. Returned
// segments carry global timestamps (window-local plus base offset).
type Transcriber interface {
	Transcribe(ctx context.Context, w Window) ([]Segment, error)
}

// Diarizer is the speaker-diarization capability for one window. It may be
// unavailable for the whole run, in which case the pipeline is constructed
// without one.
type Diarizer interface {
	Diarize(ctx context.Context, w Window, expectedSpeakers int) ([]SpeakerInterval, error)
}

// Pipeline drives segmentation, the per-window transcribe/diarize fan-out,
// and the single-threaded reductions that follow the barrier.
type Pipeline struct {
	cfg     *config.Root
	seg     Segmenter
	asr     Transcriber
	diar    Diarizer
	counter tokenize.Counter
	log     *logrus.Logger
}

// New wires a pipeline. diar may be nil when the diarization capability is
// unavailable for the run; every window then contributes zero intervals
// and the timeline falls back to a single UNKNOWN interval.
func New(cfg *config.Root, seg Segmenter, asr Transcriber, diar Diarizer, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		seg:     seg,
		asr:     asr,
		diar:    diar,
		counter: tokenize.ForEncoding(cfg.Chunking.Encoding),
		log:     log,
	}
}

// windowResult holds one window's contribution until the barrier. Slots are
// index-keyed so the reduction replays completion-order results in window
// order.
type windowResult struct {
	segments  []Segment
	intervals []SpeakerInterval
	warnings  []WindowWarning
}

// Run executes the full pipeline on one audio file. Per-window failures are
// tolerated and surfaced as warnings in the result; the run only fails hard
// when the audio cannot be segmented, the context is cancelled, or no text
// was transcribed at all.
func (p *Pipeline) Run(ctx context.Context, audioPath string) (*Result, error) {
	windows, err := p.seg.Split(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, &SegmentationError{Path: audioPath, Err: errors.New("no windows produced")}
	}

	results := make([]windowResult, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers.PoolSize)
	for i, w := range windows {
		i, w := i, w
		g.Go(func() error {
			results[i] = p.processWindow(gctx, w)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// barrier: pool everything in window-index order so canonical speaker
	// labeling stays deterministic
	var segments []Segment
	var intervals []SpeakerInterval
	var warnings []WindowWarning
	for _, r := range results {
		segments = append(segments, r.segments...)
		intervals = append(intervals, r.intervals...)
		warnings = append(warnings, r.warnings...)
	}

	if !hasText(segments) {
		return nil, ErrEmptyTranscript
	}

	var timeline []SpeakerInterval
	if len(intervals) == 0 {
		elapsed := float64(len(windows)) * p.cfg.Audio.SegmentSeconds
		timeline = []SpeakerInterval{{Start: 0, End: elapsed, Speaker: UnknownSpeaker}}
		p.log.WithField("elapsed", elapsed).Warn("no diarization output for the run, using single UNKNOWN interval")
	} else {
		timeline = NormalizeTimeline(intervals, p.cfg.Timeline.MergeToleranceSeconds)
	}

	assigned := AssignSpeakers(segments, timeline)
	sort.SliceStable(assigned, func(i, j int) bool { return assigned[i].Start < assigned[j].Start })

	turns := GroupTurns(assigned)

	chunker := NewChunker(
		p.cfg.Chunking.MinTokens,
		p.cfg.Chunking.MaxTokens,
		p.cfg.Chunking.TargetTokens,
		p.cfg.Chunking.OverlapRatio,
		p.cfg.Chunking.DropShortParts,
		p.counter,
	)
	chunks, err := chunker.ChunkTurns(turns)
	if err != nil {
		return nil, err
	}
	metrics.ChunksEmitted.Add(float64(len(chunks)))

	p.log.WithFields(logrus.Fields{
		"windows":  len(windows),
		"segments": len(assigned),
		"turns":    len(turns),
		"chunks":   len(chunks),
		"warnings": len(warnings),
	}).Info("pipeline run complete")

	return &Result{
		SessionID:  newSessionID(),
		AudioPath:  audioPath,
		Transcript: assigned,
		Chunks:     chunks,
		Warnings:   warnings,
	}, nil
}

// ChunkSegments re-runs stages 6-8 on a previously persisted transcript,
// skipping segmentation and the external calls entirely.
func (p *Pipeline) ChunkSegments(segments []AssignedSegment) ([]Chunk, error) {
	sorted := make([]AssignedSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	chunker := NewChunker(
		p.cfg.Chunking.MinTokens,
		p.cfg.Chunking.MaxTokens,
		p.cfg.Chunking.TargetTokens,
		p.cfg.Chunking.OverlapRatio,
		p.cfg.Chunking.DropShortParts,
		p.counter,
	)
	return chunker.ChunkTurns(GroupTurns(sorted))
}

func (p *Pipeline) processWindow(ctx context.Context, w Window) windowResult {
	var res windowResult

	segs, warn := p.transcribeWindow(ctx, w)
	res.segments = segs
	if warn != nil {
		res.warnings = append(res.warnings, *warn)
	}

	if p.diar == nil {
		return res
	}
	ivs, warn := p.diarizeWindow(ctx, w)
	res.intervals = ivs
	if warn != nil {
		res.warnings = append(res.warnings, *warn)
	}
	return res
}

// transcribeWindow applies the retry policy: up to the configured number of
// attempts, sleeping 2*attempt seconds after a transient failure, aborting
// immediately on anything else. A fully failed window contributes zero
// segments and one warning.
func (p *Pipeline) transcribeWindow(ctx context.Context, w Window) ([]Segment, *WindowWarning) {
	log := p.log.WithFields(logrus.Fields{"window": w.Index, "component": "transcribe"})

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= p.cfg.Workers.Retries; attempt++ {
		attempts = attempt
		if attempt > 1 {
			metrics.RetriesTotal.Inc()
		}

		callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout())
		start := time.Now()
		segs, err := p.asr.Transcribe(callCtx, w)
		cancel()
		metrics.RecordDuration("transcribe", time.Since(start).Seconds())

		if err == nil {
			metrics.RecordWindow("transcribe", true)
			log.WithField("segments", len(segs)).Debug("window transcribed")
			return segs, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if !IsTransient(err) {
			log.WithError(err).Warn("non-retryable transcription failure")
			break
		}

		backoff := time.Duration(2*attempt) * time.Second
		log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "backoff": backoff}).
			Warn("transient transcription failure, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	metrics.RecordWindow("transcribe", false)
	werr := &TranscriptionError{Window: w.Index, Attempts: attempts, Transient: IsTransient(lastErr), Err: lastErr}
	log.WithError(werr).Error("window contributes no segments")
	return nil, &WindowWarning{Window: w.Index, Component: "transcribe", Message: werr.Error()}
}

// diarizeWindow is best-effort: any failure drops the window's intervals.
func (p *Pipeline) diarizeWindow(ctx context.Context, w Window) ([]SpeakerInterval, *WindowWarning) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout())
	defer cancel()

	start := time.Now()
	ivs, err := p.diar.Diarize(callCtx, w, p.cfg.Audio.ExpectedSpeakers)
	metrics.RecordDuration("diarize", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordWindow("diarize", false)
		p.log.WithError(err).WithField("window", w.Index).Warn("diarization failed, window contributes no intervals")
		return nil, &WindowWarning{Window: w.Index, Component: "diarize", Message: err.Error()}
	}
	metrics.RecordWindow("diarize", true)
	return ivs, nil
}

func hasText(segments []Segment) bool {
	for _, s := range segments {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}

func newSessionID() string {
	return fmt.Sprintf("session_%s_%s",
		time.Now().Format("20060102-150405"),
		uuid.NewString()[:8])
}
