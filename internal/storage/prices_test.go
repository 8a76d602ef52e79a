package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLikeEscaper(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"j150", "j150"},
		{"100%", `100\%`},
		{"j_150", `j\_150`},
		{`a\b`, `a\\b`},
		{`%_\`, `\%\_\\`},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, likeEscaper.Replace(tt.input), "input %q", tt.input)
	}
}
