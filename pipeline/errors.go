package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyTranscript means no window yielded any transcribed text after all
// retries. The run has nothing to chunk and fails hard.
var ErrEmptyTranscript = errors.New("no text transcribed from any window")

// ErrDiarizationUnavailable marks a diarization capability that cannot be
// reached or was never configured. Tolerated per window; when it holds for
// the whole run the timeline falls back to a single UNKNOWN interval.
var ErrDiarizationUnavailable = errors.New("diarization unavailable")

// SegmentationError is fatal: without usable audio windows there is no
// partial-audio mode to fall back to.
type SegmentationError struct {
	Path string
	Err  error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("audio segmentation failed for %s: %v", e.Path, e.Err)
}

func (e *SegmentationError) Unwrap() error { return e.Err }

// TranscriptionError is a per-window transcription failure. Transient
// failures (connectivity, timeouts) are retried with backoff; anything else
// aborts retries for that window immediately. Either way the window
// contributes zero segments and the run continues.
type TranscriptionError struct {
	Window    int
	Attempts  int
	Transient bool
	Err       error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed for window %d after %d attempt(s): %v",
		e.Window, e.Attempts, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// IsTransient reports whether err carries a retryable transcription failure.
func IsTransient(err error) bool {
	var te *TranscriptionError
	if errors.As(err, &te) {
		return te.Transient
	}
	var tr *transientError
	return errors.As(err, &tr)
}

// transientError tags connectivity-class failures as retryable.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient wraps err so IsTransient reports true for it. Used by
// collaborator clients to separate retryable transport failures from hard
// protocol errors, instead of retrying on broad error classes.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}
