package pipeline

import (
	"fmt"
	"sort"
)

// NormalizeTimeline turns the pooled per-window diarization output into one
// canonical timeline. Intervals must be passed in window-index order so the
// canonical IDs are deterministic: labels are assigned in order of first
// distinct window-local label encountered, then the relabeled intervals are
// sorted by (start, end) and same-speaker neighbours within tolerance
// seconds are merged. Overlaps between different speakers are preserved.
func NormalizeTimeline(intervals []SpeakerInterval, tolerance float64) []SpeakerInterval {
	if len(intervals) == 0 {
		return nil
	}

	mapping := make(map[string]string)
	relabeled := make([]SpeakerInterval, 0, len(intervals))
	for _, iv := range intervals {
		canonical, ok := mapping[iv.Speaker]
		if !ok {
			canonical = fmt.Sprintf("SPEAKER_%02d", len(mapping)+1)
			mapping[iv.Speaker] = canonical
		}
		relabeled = append(relabeled, SpeakerInterval{
			Start:   iv.Start,
			End:     iv.End,
			Speaker: canonical,
		})
	}

	sort.SliceStable(relabeled, func(i, j int) bool {
		if relabeled[i].Start != relabeled[j].Start {
			return relabeled[i].Start < relabeled[j].Start
		}
		return relabeled[i].End < relabeled[j].End
	})

	return mergeAdjacent(relabeled, tolerance)
}

// mergeAdjacent fuses consecutive same-speaker intervals whose gap is at
// most tolerance, extending the end to the max of both. Idempotent: merging
// an already-merged sequence changes nothing.
func mergeAdjacent(sorted []SpeakerInterval, tolerance float64) []SpeakerInterval {
	merged := make([]SpeakerInterval, 0, len(sorted))
	for _, iv := range sorted {
		if n := len(merged); n > 0 &&
			merged[n-1].Speaker == iv.Speaker &&
			iv.Start <= merged[n-1].End+tolerance {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
