package core

import (
	"context"
	"sort"
)

// filterByHistory drops candidates the user has already read and moves the
// ones resembling their highly rated books to the front. The sort is stable:
// within the similar and non-similar groups the original search order is
// preserved, so the result is deterministic for identical inputs.
func filterByHistory(ctx context.Context, candidates []Candidate, readTitles map[string]struct{}, highRated []HighRated, summaries SummaryLookup) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, read := readTitles[c.Meta.Title]; read {
			continue
		}
		kept = append(kept, c)
	}

	if len(highRated) == 0 {
		return kept
	}

	similar := make(map[string]bool, len(kept))
	for _, c := range kept {
		similar[c.Meta.Title] = similarToHighRated(ctx, c, highRated, summaries)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		si, sj := similar[kept[i].Meta.Title], similar[kept[j].Meta.Title]
		if si != sj {
			return si
		}
		return kept[i].Rank < kept[j].Rank
	})
	return kept
}
