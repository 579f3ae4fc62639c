package core

import "time"

// SummaryNotFound is the sentinel the summary lookup returns for titles that
// have no stored summary. It is never shown to callers.
const SummaryNotFound = "Summary not found."

// BookMeta is the metadata record stored alongside a book's embedding.
// Title is the identity; Summary may be absent here and resolved separately.
type BookMeta struct {
	Title    string `json:"title"`
	Summary  string `json:"summary,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Author   string `json:"author,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Candidate is one similarity-search result. Rank is the position in the raw
// search output, 0 being the most similar.
type Candidate struct {
	Rank int
	Meta BookMeta
}

// ReadRecord is one book a user has marked as read, joined with the catalog
// fields needed for taste matching. Rating and ReadDate may be absent.
type ReadRecord struct {
	Title    string     `json:"title"`
	Rating   *int       `json:"rating,omitempty"`
	ReadDate *time.Time `json:"read_date,omitempty"`
	Genre    string     `json:"genre,omitempty"`
	Author   string     `json:"author,omitempty"`
	Summary  string     `json:"summary,omitempty"`
}

// HighRated is the taste-signal projection of a read record with rating >= 4.
type HighRated struct {
	Title   string
	Genre   string
	Author  string
	Summary string
}

// highRatedThreshold is the minimum rating for a read book to count as a
// taste signal.
const highRatedThreshold = 4

// projectHighRated extracts the taste signals from a user's read records.
func projectHighRated(records []ReadRecord) []HighRated {
	var out []HighRated
	for _, r := range records {
		if r.Rating == nil || *r.Rating < highRatedThreshold {
			continue
		}
		out = append(out, HighRated{
			Title:   r.Title,
			Genre:   r.Genre,
			Author:  r.Author,
			Summary: r.Summary,
		})
	}
	return out
}

// readTitleSet collects every read title for exclusion filtering.
func readTitleSet(records []ReadRecord) map[string]struct{} {
	set := make(map[string]struct{}, len(records))
	for _, r := range records {
		set[r.Title] = struct{}{}
	}
	return set
}
