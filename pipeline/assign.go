package pipeline

// AssignSpeakers resolves a canonical speaker for every transcribed
// segment by locating the segment midpoint in the normalized timeline.
// The first interval (in sorted order) whose [start, end] contains the
// midpoint wins; segments no interval covers get UnknownSpeaker. Output
// cardinality and order match the input.
func AssignSpeakers(segments []Segment, timeline []SpeakerInterval) []AssignedSegment {
	out := make([]AssignedSegment, 0, len(segments))
	for _, seg := range segments {
		mid := (seg.Start + seg.End) / 2
		out = append(out, AssignedSegment{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: speakerAt(timeline, mid),
			Text:    seg.Text,
		})
	}
	return out
}

func speakerAt(timeline []SpeakerInterval, t float64) string {
	for _, iv := range timeline {
		if iv.Start <= t && t <= iv.End {
			return iv.Speaker
		}
	}
	return UnknownSpeaker
}
