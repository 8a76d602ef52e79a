package parse

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testExtractor() *Extractor {
	return NewExtractor(decimal.NewFromInt(10000))
}

func TestExtractQuoteSheetLine(t *testing.T) {
	results := testExtractor().Extract("Uz-Kor Gas J150              14900")

	require.Len(t, results, 1)
	require.Equal(t, "Uz-Kor Gas J150", results[0].DisplayName)
	require.Equal(t, "j150", results[0].NormalizedName)
	require.True(t, results[0].Price.Equal(decimal.NewFromInt(14900)))
}

func TestExtractNameWithoutPrice(t *testing.T) {
	results := testExtractor().Extract("Uz-Kor Gas Jm370")

	require.Empty(t, results)
}

func TestExtractEmojiPrefixedLine(t *testing.T) {
	results := testExtractor().Extract("0209 🔴 AKPC                 14900")

	require.Len(t, results, 1)
	require.Equal(t, "AKPC", results[0].DisplayName)
	require.Equal(t, "akpc", results[0].NormalizedName)
	require.True(t, results[0].Price.Equal(decimal.NewFromInt(14900)))
}

func TestExtractDigitCollisionRejected(t *testing.T) {
	// 37000 extends the 370 embedded in the code, so it cannot be trusted
	// as a price for this line.
	results := testExtractor().Extract("Uz-Kor Gas Jm370      37000")

	require.Empty(t, results)
}

func TestExtractBelowFloorRejected(t *testing.T) {
	extractor := NewExtractor(decimal.NewFromInt(15000))

	results := extractor.Extract("Uz-Kor Gas J150      14900")

	require.Empty(t, results)
}

func TestExtractCommaDecimalPrice(t *testing.T) {
	results := testExtractor().Extract("Shurtan By456       15400,50")

	require.Len(t, results, 1)
	require.Equal(t, "by456", results[0].NormalizedName)
	require.True(t, results[0].Price.Equal(decimal.RequireFromString("15400.5")))
}

func TestExtractCurrencySuffix(t *testing.T) {
	results := testExtractor().Extract("AKPC 15000 сум")

	require.Len(t, results, 1)
	require.Equal(t, "akpc", results[0].NormalizedName)
	require.True(t, results[0].Price.Equal(decimal.NewFromInt(15000)))
}

func TestExtractTabSeparated(t *testing.T) {
	results := testExtractor().Extract("Uz-Kor Gas J150\t15000")

	require.Len(t, results, 1)
	require.Equal(t, "j150", results[0].NormalizedName)
}

func TestExtractDeduplicatesByNormalizedName(t *testing.T) {
	// Tab-separated and currency-suffixed patterns both match this line;
	// the duplicate is dropped on the normalized name.
	results := testExtractor().Extract("Uz-Kor Gas J150\t14900 сум")

	require.Len(t, results, 1)
	require.Equal(t, "j150", results[0].NormalizedName)
}

func TestExtractMultipleLines(t *testing.T) {
	text := "AKPC Grade One      14900\n" +
		"AKPC Grade Two      15000\n" +
		"AKPC Grade Three    15100\n" +
		"AKPC Grade Four     15200"

	results := testExtractor().Extract(text)

	require.Len(t, results, 4)
}

func TestExtractNoNumbers(t *testing.T) {
	results := testExtractor().Extract("good morning, any offers today?")

	require.Empty(t, results)
}

func TestValidateStripsEmojiFromOracleName(t *testing.T) {
	entity, ok := testExtractor().Validate("J150 🔥🔥", "14900")

	require.True(t, ok)
	require.Equal(t, "J150", entity.DisplayName)
	require.Equal(t, "j150", entity.NormalizedName)
}

func TestValidateRejectsShortOrNumericNames(t *testing.T) {
	for _, name := range []string{"", "ab", "12345"} {
		_, ok := testExtractor().Validate(name, "14900")
		require.Falsef(t, ok, "name %q should be rejected", name)
	}
}

func TestDigitCollision(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		expected bool
	}{
		{"Jm370", "370", true},
		{"Jm370", "37000", true},
		{"Uz-Kor Gas Jm370", "37000", true},
		{"BL5200", "5200", true},
		{"BL5200", "52", true},
		{"J150", "14900", false},
		{"AKPC", "14900", false},
		{"By456", "15400,50", false},
	}

	for _, tt := range tests {
		got := DigitCollision(tt.name, tt.price)
		if got != tt.expected {
			t.Errorf("DigitCollision(%q, %q) = %v, want %v", tt.name, tt.price, got, tt.expected)
		}
	}
}
