package core

import "strings"

// ReaderProfile is the audience a recommendation is intended for. It drives
// the banned-phrase screening and the style of generated cover images.
type ReaderProfile string

const (
	ProfileChild     ReaderProfile = "child"
	ProfileTeen      ReaderProfile = "teen"
	ProfileAdult     ReaderProfile = "adult"
	ProfileTechnical ReaderProfile = "technical"
)

// Profiles lists every known reader profile.
var Profiles = []ReaderProfile{ProfileChild, ProfileTeen, ProfileAdult, ProfileTechnical}

// ParseProfile matches s against the known profiles, case-insensitively.
// The second return value is false when s is not a known profile.
func ParseProfile(s string) (ReaderProfile, bool) {
	switch ReaderProfile(strings.ToLower(strings.TrimSpace(s))) {
	case ProfileChild:
		return ProfileChild, true
	case ProfileTeen:
		return ProfileTeen, true
	case ProfileAdult:
		return ProfileAdult, true
	case ProfileTechnical:
		return ProfileTechnical, true
	default:
		return "", false
	}
}

// bannedPhrases returns the phrases that make a summary unsuitable for the
// given profile. The switch is exhaustive over the known profiles; anything
// else gets no restriction, same as adult.
func bannedPhrases(p ReaderProfile) []string {
	switch p {
	case ProfileChild:
		return []string{"violence", "drugs", "sex", "death", "abuse"}
	case ProfileTeen:
		return []string{"graphic sex", "heavy violence"}
	case ProfileTechnical:
		return []string{"fairy tale", "fantasy", "magic"}
	case ProfileAdult:
		return nil
	default:
		return nil
	}
}

// IsAppropriate reports whether a non-empty summary may be shown to the given
// profile. The check is a case-insensitive substring scan; callers are
// expected to have validated the summary first.
func IsAppropriate(summary string, p ReaderProfile) bool {
	lowered := strings.ToLower(summary)
	for _, phrase := range bannedPhrases(p) {
		if strings.Contains(lowered, phrase) {
			return false
		}
	}
	return true
}
