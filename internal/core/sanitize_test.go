package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForImagePromptStripsSpecials(t *testing.T) {
	got := sanitizeForImagePrompt(`He said "run" — then 'hid' in the <cellar> {fast}`)
	assert.NotContains(t, got, `"`)
	assert.NotContains(t, got, `'`)
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "{")
	assert.Contains(t, got, "cellar")
}

func TestSanitizeForImagePromptMasksExplicitTerms(t *testing.T) {
	got := sanitizeForImagePrompt("A tale of Violence and drugs in the city")
	lowered := strings.ToLower(got)
	assert.NotContains(t, lowered, "violence")
	assert.NotContains(t, lowered, "drugs")
	assert.Contains(t, got, "city")
}

func TestSanitizeForImagePromptTruncates(t *testing.T) {
	long := strings.Repeat("wording ", 100)
	got := sanitizeForImagePrompt(long)
	assert.LessOrEqual(t, len([]rune(got)), 300)
}

func TestSanitizeForImagePromptCollapsesWhitespace(t *testing.T) {
	got := sanitizeForImagePrompt("  a   story \n about    tides ")
	assert.Equal(t, "a story about tides", got)
}

func TestPromptStyleSuffix(t *testing.T) {
	assert.Contains(t, promptStyleSuffix(ProfileChild), "cartoonish")
	assert.Contains(t, promptStyleSuffix(ProfileTeen), "graphic novel")
	assert.Contains(t, promptStyleSuffix(ProfileTechnical), "schematic")
	assert.Empty(t, promptStyleSuffix(ProfileAdult))
}
