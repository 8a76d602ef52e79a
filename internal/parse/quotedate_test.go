package parse

import (
	"testing"
	"time"
)

func TestExtractQuoteDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		found    bool
	}{
		{
			name:     "plain date",
			input:    "Prices for 19.01.2026\nUz-Kor Gas J150   14900",
			expected: time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{
			name:     "keycap emoji digits",
			input:    "1️⃣9️⃣.0️⃣1️⃣.2️⃣0️⃣2️⃣6️⃣",
			expected: time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{
			name:     "single digit day and month",
			input:    "narxlar 5.3.2026",
			expected: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			found:    true,
		},
		{
			name:  "no date",
			input: "Uz-Kor Gas J150   14900",
			found: false,
		},
		{
			name:  "impossible day rejected",
			input: "31.02.2026",
			found: false,
		},
		{
			name:  "impossible month rejected",
			input: "05.13.2026",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractQuoteDate(tt.input)

			if found != tt.found {
				t.Fatalf("ExtractQuoteDate(%q) found = %v, want %v", tt.input, found, tt.found)
			}

			if found && !got.Equal(tt.expected) {
				t.Errorf("ExtractQuoteDate(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}
