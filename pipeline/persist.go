package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Report is the structured failure summary persisted next to the chunks.
type Report struct {
	SessionID   string          `json:"session_id"`
	AudioPath   string          `json:"audio_path"`
	GeneratedAt time.Time       `json:"generated_at"`
	Segments    int             `json:"segments"`
	Chunks      int             `json:"chunks"`
	Warnings    []WindowWarning `json:"warnings"`
}

// Artifacts lists the files written for one session.
type Artifacts struct {
	Dir            string
	TranscriptJSON string
	TranscriptTXT  string
	ChunksJSON     string
	ReportJSON     string
}

// Persist writes the run's artifacts into outputsRoot/<session-id>/:
// the speaker-attributed transcript (JSON and filler-cleaned pretty text),
// the chunk sequence, and the warning report. Both JSON files are valid
// reload points for resuming without re-running the external calls.
func Persist(outputsRoot string, res *Result) (*Artifacts, error) {
	dir := filepath.Join(outputsRoot, res.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	a := &Artifacts{
		Dir:            dir,
		TranscriptJSON: filepath.Join(dir, "transcript.json"),
		TranscriptTXT:  filepath.Join(dir, "transcript.txt"),
		ChunksJSON:     filepath.Join(dir, "chunks.json"),
		ReportJSON:     filepath.Join(dir, "report.json"),
	}

	if err := writeJSON(a.TranscriptJSON, res.Transcript); err != nil {
		return nil, err
	}
	if err := os.WriteFile(a.TranscriptTXT, []byte(renderTranscript(res.Transcript)), 0o644); err != nil {
		return nil, err
	}
	if err := writeJSON(a.ChunksJSON, res.Chunks); err != nil {
		return nil, err
	}

	report := Report{
		SessionID:   res.SessionID,
		AudioPath:   res.AudioPath,
		GeneratedAt: time.Now(),
		Segments:    len(res.Transcript),
		Chunks:      len(res.Chunks),
		Warnings:    res.Warnings,
	}
	if err := writeJSON(a.ReportJSON, report); err != nil {
		return nil, err
	}
	return a, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTranscript formats one line per segment with 2-decimal timestamps
// and filler-cleaned text.
func renderTranscript(segments []AssignedSegment) string {
	var out []byte
	for _, s := range segments {
		out = append(out, fmt.Sprintf("[%.2f - %.2f] %s: %s\n",
			s.Start, s.End, s.Speaker, CleanFillers(s.Text))...)
	}
	return string(out)
}

// LoadSegments reads a persisted transcript JSON. It accepts either a bare
// segment array or an object carrying a "segments" key, normalizing at the
// boundary so nothing downstream branches on shape.
func LoadSegments(path string) ([]AssignedSegment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var segments []AssignedSegment
	if err := json.Unmarshal(raw, &segments); err == nil {
		return segments, nil
	}

	var wrapped struct {
		Segments []AssignedSegment `json:"segments"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("transcript %s: neither a segment array nor an object with segments: %w", path, err)
	}
	if wrapped.Segments == nil {
		return nil, fmt.Errorf("transcript %s: no segments key", path)
	}
	return wrapped.Segments, nil
}

// WriteChunks writes a chunk array to path as indented JSON.
func WriteChunks(path string, chunks []Chunk) error {
	return writeJSON(path, chunks)
}

// LoadChunks reads a persisted chunk array.
func LoadChunks(path string) ([]Chunk, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil, fmt.Errorf("chunks %s: %w", path, err)
	}
	return chunks, nil
}
