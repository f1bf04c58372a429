package pipeline

import "strings"

// GroupTurns merges consecutive same-speaker segments into turns. Segments
// must arrive sorted by start; whitespace-only segments are dropped. Each
// turn concatenates its segment texts with a single separating space and
// records, per contributing segment, the character range it occupies in
// the concatenated text alongside the segment's own time range. Separator
// spaces belong to no span; TimeAt resolves them by clipping.
func GroupTurns(segments []AssignedSegment) []Turn {
	var turns []Turn
	var cur *Turn
	var parts []string
	cursor := 0

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(parts, "")
			turns = append(turns, *cur)
		}
		cur = nil
		parts = nil
		cursor = 0
	}

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if cur == nil || cur.Speaker != seg.Speaker {
			flush()
			cur = &Turn{Speaker: seg.Speaker, Start: seg.Start, End: seg.End}
		}

		if len(parts) > 0 {
			parts = append(parts, " ")
			cursor++
		}
		start := cursor
		parts = append(parts, text)
		cursor += len(text)
		cur.Spans = append(cur.Spans, CharSpan{
			SegStart:  seg.Start,
			SegEnd:    seg.End,
			CharStart: start,
			CharEnd:   cursor,
		})
		cur.End = seg.End
	}
	flush()
	return turns
}

// TimeAt interpolates the time for character position p in the turn's
// concatenated text. Positions inside a span interpolate linearly between
// the segment's start and end; a degenerate empty span yields its start.
// Positions before the first span clip to its start, after the last span
// to its end.
func (t *Turn) TimeAt(p int) float64 {
	for _, s := range t.Spans {
		if s.CharStart <= p && p <= s.CharEnd {
			if s.CharEnd == s.CharStart {
				return s.SegStart
			}
			ratio := float64(p-s.CharStart) / float64(s.CharEnd-s.CharStart)
			return s.SegStart + ratio*(s.SegEnd-s.SegStart)
		}
	}
	if len(t.Spans) > 0 {
		if p < t.Spans[0].CharStart {
			return t.Spans[0].SegStart
		}
		if p > t.Spans[len(t.Spans)-1].CharEnd {
			return t.Spans[len(t.Spans)-1].SegEnd
		}
	}
	return 0
}
