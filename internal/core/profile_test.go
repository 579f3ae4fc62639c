package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		in   string
		want ReaderProfile
		ok   bool
	}{
		{"child", ProfileChild, true},
		{"TEEN", ProfileTeen, true},
		{"  Adult ", ProfileAdult, true},
		{"Technical", ProfileTechnical, true},
		{"", "", false},
		{"wizard", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseProfile(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestIsAppropriate(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		profile ReaderProfile
		want    bool
	}{
		{"child banned word", "A story involving violence and abuse", ProfileChild, false},
		{"child case insensitive", "A tale of DEATH and glory", ProfileChild, false},
		{"child clean", "A gentle tale about a garden", ProfileChild, true},
		{"teen banned phrase", "Contains heavy violence throughout", ProfileTeen, false},
		{"teen single banned word ok", "Some violence but nothing heavy", ProfileTeen, true},
		{"technical rejects fantasy", "An epic fantasy saga", ProfileTechnical, false},
		{"technical rejects fairy tale", "A classic fairy tale retold", ProfileTechnical, false},
		{"technical clean", "A primer on distributed systems", ProfileTechnical, true},
		{"adult never restricted", "violence drugs sex death abuse fantasy magic", ProfileAdult, true},
		{"unknown profile permissive", "violence everywhere", ReaderProfile("alien"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAppropriate(tt.summary, tt.profile))
		})
	}
}

func TestIsAppropriateSubstringMatch(t *testing.T) {
	// The scan is a substring search, so banned words match inside longer
	// words too.
	assert.False(t, IsAppropriate("He behaved abusely", ProfileChild))
}
