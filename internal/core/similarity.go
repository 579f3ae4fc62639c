package core

import (
	"context"
	"regexp"
	"strings"
)

// stopwords are dropped from summaries before theme comparison: articles,
// pronouns, conjunctions and the common prepositions that carry no theme.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "of": {}, "in": {}, "on": {},
	"to": {}, "for": {}, "with": {}, "by": {}, "at": {}, "from": {}, "is": {},
	"it": {}, "as": {}, "that": {}, "this": {}, "was": {}, "are": {}, "be": {},
	"or": {}, "but": {}, "if": {}, "not": {}, "into": {}, "their": {},
	"his": {}, "her": {}, "its": {}, "they": {}, "them": {}, "he": {},
	"she": {}, "you": {}, "we": {}, "our": {}, "your": {}, "i": {},
}

var wordPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

const (
	minKeywordLength    = 4
	minKeywordOverlap   = 5
	minKeywordOverlapPc = 0.2
)

// extractKeywords tokenizes a lower-cased summary on word boundaries and
// keeps the tokens long enough to carry a theme, minus stopwords.
func extractKeywords(summary string) map[string]struct{} {
	keywords := make(map[string]struct{})
	for _, tok := range wordPattern.FindAllString(strings.ToLower(summary), -1) {
		if len(tok) < minKeywordLength {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		keywords[tok] = struct{}{}
	}
	return keywords
}

// themesOverlap reports whether two keyword sets share enough tokens to call
// the books thematically similar: an absolute overlap of at least
// minKeywordOverlap, or more than minKeywordOverlapPc of the candidate's set.
// Empty sets never overlap.
func themesOverlap(candidate, liked map[string]struct{}) bool {
	if len(candidate) == 0 || len(liked) == 0 {
		return false
	}
	shared := 0
	for kw := range candidate {
		if _, ok := liked[kw]; ok {
			shared++
		}
	}
	if shared >= minKeywordOverlap {
		return true
	}
	return float64(shared)/float64(len(candidate)) > minKeywordOverlapPc
}

// similarToHighRated reports whether a candidate resembles any of the user's
// highly rated books: same genre, same author, or overlapping summary themes,
// tested in that order with a short-circuit on the first match. A missing
// candidate summary is resolved through the lookup; a failed lookup skips the
// theme test rather than failing the whole scoring.
func similarToHighRated(ctx context.Context, c Candidate, highRated []HighRated, summaries SummaryLookup) bool {
	if len(highRated) == 0 {
		return false
	}

	genre := strings.ToLower(c.Meta.Genre)
	author := strings.ToLower(c.Meta.Author)
	summary := c.Meta.Summary
	if summary == "" && summaries != nil {
		looked, err := summaries.SummaryByTitle(ctx, c.Meta.Title)
		if err == nil && looked != SummaryNotFound {
			summary = looked
		}
	}
	candidateKeywords := extractKeywords(summary)

	for _, liked := range highRated {
		if genre != "" && liked.Genre != "" && genre == strings.ToLower(liked.Genre) {
			return true
		}
		if author != "" && liked.Author != "" && author == strings.ToLower(liked.Author) {
			return true
		}
		if summary != "" && liked.Summary != "" &&
			themesOverlap(candidateKeywords, extractKeywords(liked.Summary)) {
			return true
		}
	}
	return false
}
