package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/pansum/panelpipe/tokenize"
)

// splitSeparators are tried in priority order: paragraph, line, sentence,
// clause, word, character.
var splitSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", ", ", " ", ""}

// Chunker splits a turn's text into token-bounded chunks and recovers each
// chunk's time range through the turn's char-span index. Chunks never cross
// a turn boundary, so they never mix speakers.
type Chunker struct {
	MinTokens    int
	MaxTokens    int
	TargetTokens int
	OverlapRatio float64
	// DropShortParts discards parts below MinTokens when the turn produced
	// more than one part; the dropped text is not reattached elsewhere.
	DropShortParts bool

	counter tokenize.Counter
}

// NewChunker builds a chunker around the given token counter. When the
// counter is the chars-per-token heuristic, the token budget doubles as an
// equivalent character budget through the shared length function.
func NewChunker(minTokens, maxTokens, targetTokens int, overlapRatio float64, dropShort bool, counter tokenize.Counter) *Chunker {
	return &Chunker{
		MinTokens:      minTokens,
		MaxTokens:      maxTokens,
		TargetTokens:   targetTokens,
		OverlapRatio:   overlapRatio,
		DropShortParts: dropShort,
		counter:        counter,
	}
}

// SplitTurn splits one turn into chunks. If no part survives the minimum
// token bound but the turn text is non-empty, a single chunk covering the
// whole turn is emitted so no turn is silently discarded.
func (c *Chunker) SplitTurn(turn Turn) ([]Chunk, error) {
	text := turn.Text
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	target := c.TargetTokens
	if target < c.MinTokens {
		target = c.MinTokens
	}
	if target > c.MaxTokens {
		target = c.MaxTokens
	}
	overlap := int(c.OverlapRatio * float64(target))

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(target),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators(splitSeparators),
		textsplitter.WithLenFunc(c.counter.Count),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split turn text: %w", err)
	}

	var chunks []Chunk
	cursor := 0
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		// search forward from the previous match so duplicate substrings
		// resolve to the right occurrence
		idx := strings.Index(text[cursor:], part)
		if idx >= 0 {
			idx += cursor
		} else {
			idx = strings.Index(text, part)
			if idx < 0 {
				idx = 0
			}
		}
		startChar := idx
		endChar := startChar + len(part)
		cursor = endChar

		tokens := c.counter.Count(part)
		if c.DropShortParts && tokens < c.MinTokens && len(parts) > 1 {
			continue
		}

		chunks = append(chunks, Chunk{
			Speaker:   turn.Speaker,
			Text:      strings.TrimSpace(part),
			Start:     round2(turn.TimeAt(startChar)),
			End:       round2(turn.TimeAt(endChar)),
			Tokens:    tokens,
			TurnStart: round2(turn.Start),
			TurnEnd:   round2(turn.End),
		})
	}

	if len(chunks) == 0 {
		chunks = append(chunks, Chunk{
			Speaker:   turn.Speaker,
			Text:      strings.TrimSpace(text),
			Start:     round2(turn.Start),
			End:       round2(turn.End),
			Tokens:    c.counter.Count(text),
			TurnStart: round2(turn.Start),
			TurnEnd:   round2(turn.End),
		})
	}
	return chunks, nil
}

// ChunkTurns splits every turn, pools the results, sorts them by start
// time and assigns dense zero-based ids in that order.
func (c *Chunker) ChunkTurns(turns []Turn) ([]Chunk, error) {
	var all []Chunk
	for _, turn := range turns {
		chunks, err := c.SplitTurn(turn)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Start < all[j].Start })
	for i := range all {
		all[i].ID = i
	}
	return all, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
