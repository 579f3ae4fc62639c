package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubSummaries struct {
	byTitle map[string]string
	err     error
	calls   int
}

func (s *stubSummaries) SummaryByTitle(_ context.Context, title string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if summary, ok := s.byTitle[title]; ok {
		return summary, nil
	}
	return SummaryNotFound, nil
}

func TestSimilarToHighRatedEmptyHistory(t *testing.T) {
	c := Candidate{Meta: BookMeta{Title: "Dune", Genre: "Science Fiction", Author: "Frank Herbert"}}
	assert.False(t, similarToHighRated(context.Background(), c, nil, nil))
}

func TestSimilarToHighRatedGenreCaseInsensitive(t *testing.T) {
	c := Candidate{Meta: BookMeta{Title: "X", Genre: "Fantasy"}}
	history := []HighRated{{Title: "Y", Genre: "fantasy"}}
	assert.True(t, similarToHighRated(context.Background(), c, history, nil))
}

func TestSimilarToHighRatedAuthorMatch(t *testing.T) {
	c := Candidate{Meta: BookMeta{Title: "X", Author: "Ursula K. Le Guin"}}
	history := []HighRated{{Title: "Y", Author: "ursula k. le guin"}}
	assert.True(t, similarToHighRated(context.Background(), c, history, nil))
}

func TestSimilarToHighRatedEmptyFieldsNeverMatch(t *testing.T) {
	c := Candidate{Meta: BookMeta{Title: "X"}}
	history := []HighRated{{Title: "Y"}}
	assert.False(t, similarToHighRated(context.Background(), c, history, nil))
}

func TestSimilarToHighRatedThemeOverlapRatio(t *testing.T) {
	// 3 shared keywords out of a 5-keyword candidate set: 0.6 > 0.2.
	c := Candidate{Meta: BookMeta{Title: "X", Summary: "apple banana orange grape pear"}}
	history := []HighRated{{Title: "Y", Summary: "banana orange grape"}}
	assert.True(t, similarToHighRated(context.Background(), c, history, nil))
}

func TestSimilarToHighRatedThemeOverlapAbsolute(t *testing.T) {
	c := Candidate{Meta: BookMeta{Title: "X",
		Summary: "dragons castles knights quests wizards honor betrayal kingdoms swords prophecy"}}
	history := []HighRated{{Title: "Y",
		Summary: "dragons castles knights quests wizards plus many unrelated words entirely"}}
	assert.True(t, similarToHighRated(context.Background(), c, history, nil))
}

func TestSimilarToHighRatedShortTokensYieldEmptySet(t *testing.T) {
	// Every token is under four characters, so the keyword sets are empty and
	// identical summaries still do not count as similar.
	c := Candidate{Meta: BookMeta{Title: "X", Summary: "cat dog bat rat"}}
	history := []HighRated{{Title: "Y", Summary: "cat dog bat rat"}}
	assert.False(t, similarToHighRated(context.Background(), c, history, nil))
}

func TestSimilarToHighRatedStopwordsDropped(t *testing.T) {
	c := Candidate{Meta: BookMeta{Title: "X", Summary: "their them this that with from into"}}
	history := []HighRated{{Title: "Y", Summary: "their them this that with from into"}}
	assert.False(t, similarToHighRated(context.Background(), c, history, nil))
}

func TestSimilarToHighRatedResolvesMissingSummary(t *testing.T) {
	summaries := &stubSummaries{byTitle: map[string]string{
		"X": "apple banana orange grape pear",
	}}
	c := Candidate{Meta: BookMeta{Title: "X"}}
	history := []HighRated{{Title: "Y", Summary: "banana orange grape"}}
	assert.True(t, similarToHighRated(context.Background(), c, history, summaries))
	assert.Equal(t, 1, summaries.calls)
}

func TestSimilarToHighRatedLookupFailureSkipsThemeTest(t *testing.T) {
	summaries := &stubSummaries{err: errors.New("corrupt row")}
	c := Candidate{Meta: BookMeta{Title: "X"}}
	history := []HighRated{{Title: "Y", Summary: "banana orange grape"}}
	assert.False(t, similarToHighRated(context.Background(), c, history, summaries))
}

func TestExtractKeywords(t *testing.T) {
	got := extractKeywords("The dragons flew INTO their ancient castle, and the cat ran.")
	assert.Equal(t, map[string]struct{}{
		"dragons": {}, "flew": {}, "ancient": {}, "castle": {},
	}, got)
}
