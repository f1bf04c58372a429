package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pansum/panelpipe/tokenize"
)

func heuristicChunker(minTokens, maxTokens, target int, overlapRatio float64) *Chunker {
	return NewChunker(minTokens, maxTokens, target, overlapRatio, true, tokenize.Heuristic{})
}

func TestSplitTurnShortTextYieldsSingleChunk(t *testing.T) {
	c := heuristicChunker(400, 1000, 800, 0.15)
	turn := GroupTurns([]AssignedSegment{
		{Start: 0, End: 5, Speaker: "A", Text: "hello"},
		{Start: 5, End: 9, Speaker: "A", Text: "world"},
	})[0]

	chunks, err := c.SplitTurn(turn)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	got := chunks[0]
	assert.Equal(t, "A", got.Speaker)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, 0.0, got.Start)
	assert.Equal(t, 9.0, got.End)
	assert.Equal(t, 0.0, got.TurnStart)
	assert.Equal(t, 9.0, got.TurnEnd)
	assert.Positive(t, got.Tokens)
}

func TestSplitTurnEmptyTextYieldsNothing(t *testing.T) {
	c := heuristicChunker(400, 1000, 800, 0.15)
	chunks, err := c.SplitTurn(Turn{Speaker: "A", Text: "   "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitTurnRespectsTurnBounds(t *testing.T) {
	// tiny budgets force multiple parts out of a multi-sentence turn
	c := NewChunker(1, 20, 10, 0, false, tokenize.Heuristic{})

	sentences := []string{
		"The first topic covered the quarterly results in detail.",
		"Afterwards the discussion moved on to hiring plans.",
		"Finally the panel took questions from the audience.",
	}
	segments := make([]AssignedSegment, len(sentences))
	for i, s := range sentences {
		segments[i] = AssignedSegment{
			Start:   float64(i * 10),
			End:     float64(i*10 + 8),
			Speaker: "SPEAKER_01",
			Text:    s,
		}
	}
	turn := GroupTurns(segments)[0]

	chunks, err := c.SplitTurn(turn)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Greater(t, len(chunks), 1, "small budget should split the turn")

	for _, ch := range chunks {
		assert.Equal(t, "SPEAKER_01", ch.Speaker)
		assert.GreaterOrEqual(t, ch.Start, round2(turn.Start))
		assert.LessOrEqual(t, ch.End, round2(turn.End))
		assert.LessOrEqual(t, ch.Start, ch.End)
		assert.Contains(t, turn.Text, ch.Text, "chunk text must come from the turn text")
	}
}

func TestSplitTurnDroppedResidualFallsBackToFullTurn(t *testing.T) {
	// three ~30-token paragraphs against a 50-token budget: no pair fits in
	// one part, every single part is below the 50-token minimum, so all are
	// dropped and the full-turn fallback chunk is emitted
	c := NewChunker(50, 60, 50, 0, true, tokenize.Heuristic{})
	para := strings.Repeat("panel talk ", 11) // ~120 chars, ~30 heuristic tokens
	text := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)
	turn := Turn{
		Speaker: "B",
		Start:   10,
		End:     40,
		Text:    text,
		Spans: []CharSpan{{
			SegStart: 10, SegEnd: 40,
			CharStart: 0, CharEnd: len(text),
		}},
	}

	chunks, err := c.SplitTurn(turn)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, turn.Text, chunks[0].Text)
	assert.Equal(t, 10.0, chunks[0].Start)
	assert.Equal(t, 40.0, chunks[0].End)
}

func TestChunkTurnsAssignsDenseSortedIDs(t *testing.T) {
	c := heuristicChunker(400, 1000, 800, 0.15)
	turns := GroupTurns([]AssignedSegment{
		{Start: 0, End: 5, Speaker: "A", Text: "hello"},
		{Start: 5, End: 9, Speaker: "A", Text: "world"},
		{Start: 9, End: 14, Speaker: "B", Text: "hi there"},
		{Start: 14, End: 20, Speaker: "A", Text: "back to me"},
	})

	chunks, err := c.ChunkTurns(turns)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, ch.Start, chunks[i-1].Start, "chunks must be sorted by start")
		}
	}
}

func TestChunkTurnsScenarioTwoSpeakers(t *testing.T) {
	// segments [{0,5,A,hello},{5,9,A,world},{9,14,B,"hi there"}] with
	// intervals A:[0,9] B:[9,14] produce one fallback-size chunk per turn
	timeline := []SpeakerInterval{
		{Start: 0, End: 9, Speaker: "A"},
		{Start: 9, End: 14, Speaker: "B"},
	}
	assigned := AssignSpeakers([]Segment{
		{Start: 0, End: 5, Text: "hello"},
		{Start: 5, End: 9, Text: "world"},
		{Start: 9, End: 14, Text: "hi there"},
	}, timeline)

	c := heuristicChunker(400, 1000, 800, 0.15)
	chunks, err := c.ChunkTurns(GroupTurns(assigned))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, Chunk{
		ID: 0, Speaker: "A", Text: "hello world",
		Start: 0, End: 9, Tokens: chunks[0].Tokens, TurnStart: 0, TurnEnd: 9,
	}, chunks[0])
	assert.Equal(t, "hi there", chunks[1].Text)
	assert.Equal(t, "B", chunks[1].Speaker)
	assert.Equal(t, 9.0, chunks[1].TurnStart)
	assert.Equal(t, 14.0, chunks[1].TurnEnd)
	assert.Equal(t, 1, chunks[1].ID)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.2345))
	assert.Equal(t, 1.24, round2(1.235))
	assert.Equal(t, 0.0, round2(0))
}
