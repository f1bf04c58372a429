package pipeline

// Window is one fixed-length, possibly overlapping slice of the source
// audio, materialized as an independent extract at Path. BaseOffset is
// always Index * segment length; the leading overlap shifts the extract's
// content, not its offset.
type Window struct {
	Index      int
	Path       string
	BaseOffset float64 // sec
	Duration   float64 // sec
}

// Segment is one transcribed span with global timestamps (window-local
// times plus the window's base offset, shifted by the transcriber).
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SpeakerInterval is one diarization span. Speaker holds the window-local
// label as returned by the diarizer until timeline normalization maps it
// to a canonical ID.
type SpeakerInterval struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// UnknownSpeaker labels segments no diarization interval covers.
const UnknownSpeaker = "UNKNOWN"

// AssignedSegment is a transcribed segment with its resolved speaker.
// The JSON shape is the persisted transcript record format.
type AssignedSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

// CharSpan maps the character range [CharStart, CharEnd] in a turn's
// concatenated text back to the originating segment's time range.
type CharSpan struct {
	SegStart  float64
	SegEnd    float64
	CharStart int
	CharEnd   int
}

// Turn is a maximal run of consecutive same-speaker segments merged into
// one text block. Spans index the concatenated text for time recovery.
type Turn struct {
	Speaker string
	Start   float64
	End     float64
	Text    string
	Spans   []CharSpan
}

// Chunk is a token-bounded slice of one turn. The JSON field names are the
// wire shape consumed by the downstream indexer and must stay stable.
type Chunk struct {
	ID        int     `json:"id"`
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Tokens    int     `json:"tokens"`
	TurnStart float64 `json:"turn_start"`
	TurnEnd   float64 `json:"turn_end"`
}

// WindowWarning records one tolerated per-window failure for the final report.
type WindowWarning struct {
	Window    int    `json:"window"`
	Component string `json:"component"` // "transcribe" or "diarize"
	Message   string `json:"message"`
}

// Result is what a full run hands back: every producible chunk, the
// speaker-attributed transcript, and the tolerated failures.
type Result struct {
	SessionID  string            `json:"session_id"`
	AudioPath  string            `json:"audio_path"`
	Transcript []AssignedSegment `json:"transcript"`
	Chunks     []Chunk           `json:"chunks"`
	Warnings   []WindowWarning   `json:"warnings"`
}
