package core

import (
	"regexp"
	"strings"
)

// Image prompts are built from book summaries, which are arbitrary catalog
// text. Before a summary reaches the image model it is stripped of quoting
// and markup characters, has explicit terms masked, and is truncated.

const maxImagePromptLength = 300

var (
	promptSpecials   = regexp.MustCompile("[\"'`“”‘’<>{}\\[\\]\\\\|]")
	promptWhitespace = regexp.MustCompile(`\s+`)
)

// maskedTerms are replaced before a summary is used in a generation prompt.
// The set is the union of the phrases banned for the restricted profiles.
var maskedTerms = func() []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, p := range []ReaderProfile{ProfileChild, ProfileTeen} {
		for _, phrase := range bannedPhrases(p) {
			if _, dup := seen[phrase]; dup {
				continue
			}
			seen[phrase] = struct{}{}
			terms = append(terms, phrase)
		}
	}
	return terms
}()

// sanitizeForImagePrompt makes a summary safe to embed in an image-generation
// prompt: special characters removed, explicit terms masked, whitespace
// collapsed, and the result truncated to maxImagePromptLength characters.
func sanitizeForImagePrompt(summary string) string {
	s := promptSpecials.ReplaceAllString(summary, " ")
	lowered := strings.ToLower(s)
	for _, term := range maskedTerms {
		for {
			idx := strings.Index(lowered, term)
			if idx < 0 {
				break
			}
			s = s[:idx] + "…" + s[idx+len(term):]
			lowered = lowered[:idx] + "…" + lowered[idx+len(term):]
		}
	}
	s = strings.TrimSpace(promptWhitespace.ReplaceAllString(s, " "))
	if runes := []rune(s); len(runes) > maxImagePromptLength {
		s = string(runes[:maxImagePromptLength])
	}
	return s
}

// promptStyleSuffix returns the profile-specific style hint appended to image
// prompts. Adult prompts get no extra styling.
func promptStyleSuffix(p ReaderProfile) string {
	switch p {
	case ProfileChild:
		return " (colorful, cartoonish, friendly, for children, illustration style)"
	case ProfileTeen:
		return " (dynamic, modern, appealing to teenagers, graphic novel style)"
	case ProfileTechnical:
		return " (clean, schematic, technical illustration, informative)"
	default:
		return ""
	}
}
