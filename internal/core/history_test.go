package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func candidateList(titles ...string) []Candidate {
	out := make([]Candidate, len(titles))
	for i, title := range titles {
		out[i] = Candidate{Rank: i, Meta: BookMeta{Title: title}}
	}
	return out
}

func titlesOf(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Meta.Title
	}
	return out
}

func TestFilterByHistoryExcludesReadTitles(t *testing.T) {
	candidates := candidateList("A", "B", "C")
	read := map[string]struct{}{"A": {}, "C": {}}

	got := filterByHistory(context.Background(), candidates, read, nil, nil)
	assert.Equal(t, []string{"B"}, titlesOf(got))
}

func TestFilterByHistoryStablePartition(t *testing.T) {
	// A is read, B resembles the history, C does not: output is [B, C].
	candidates := []Candidate{
		{Rank: 0, Meta: BookMeta{Title: "A"}},
		{Rank: 1, Meta: BookMeta{Title: "B", Genre: "Fantasy"}},
		{Rank: 2, Meta: BookMeta{Title: "C", Genre: "History"}},
	}
	read := map[string]struct{}{"A": {}}
	highRated := []HighRated{{Title: "Z", Genre: "fantasy"}}

	got := filterByHistory(context.Background(), candidates, read, highRated, nil)
	assert.Equal(t, []string{"B", "C"}, titlesOf(got))
}

func TestFilterByHistoryPreservesSearchOrderWithinGroups(t *testing.T) {
	candidates := []Candidate{
		{Rank: 0, Meta: BookMeta{Title: "plain1", Genre: "History"}},
		{Rank: 1, Meta: BookMeta{Title: "sim1", Genre: "Fantasy"}},
		{Rank: 2, Meta: BookMeta{Title: "plain2", Genre: "Travel"}},
		{Rank: 3, Meta: BookMeta{Title: "sim2", Genre: "Fantasy"}},
	}
	highRated := []HighRated{{Title: "Z", Genre: "Fantasy"}}

	got := filterByHistory(context.Background(), candidates, nil, highRated, nil)
	assert.Equal(t, []string{"sim1", "sim2", "plain1", "plain2"}, titlesOf(got))
}

func TestFilterByHistoryNoHistoryKeepsSearchOrder(t *testing.T) {
	candidates := candidateList("A", "B", "C")
	got := filterByHistory(context.Background(), candidates, nil, nil, nil)
	assert.Equal(t, []string{"A", "B", "C"}, titlesOf(got))
}

func TestProjectHighRated(t *testing.T) {
	five, three := 5, 3
	records := []ReadRecord{
		{Title: "loved", Rating: &five, Genre: "Fantasy", Author: "X", Summary: "s"},
		{Title: "meh", Rating: &three},
		{Title: "unrated"},
	}
	got := projectHighRated(records)
	assert.Len(t, got, 1)
	assert.Equal(t, "loved", got[0].Title)
	assert.Equal(t, "Fantasy", got[0].Genre)
}
