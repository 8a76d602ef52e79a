package telegrambot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
)

func TestParseQueryPlainName(t *testing.T) {
	lookup, ok := ParseQuery("J150").(SingleLookup)

	require.True(t, ok)
	require.Equal(t, "J150", lookup.Name)
	require.Nil(t, lookup.Date)
}

func TestParseQueryMultiWordName(t *testing.T) {
	lookup, ok := ParseQuery("Uz-Kor Gas J150").(SingleLookup)

	require.True(t, ok)
	require.Equal(t, "Uz-Kor Gas J150", lookup.Name)
	require.Nil(t, lookup.Date)
}

func TestParseQueryVersus(t *testing.T) {
	lookup, ok := ParseQuery("J150 vs Y130").(PairLookup)

	require.True(t, ok)
	require.Equal(t, "J150", lookup.A)
	require.Equal(t, "Y130", lookup.B)
}

func TestParseQueryVersusUppercaseSeparator(t *testing.T) {
	lookup, ok := ParseQuery("J150 VS Y130").(PairLookup)

	require.True(t, ok)
	require.Equal(t, "J150", lookup.A)
	require.Equal(t, "Y130", lookup.B)
}

func TestParseQueryVersusWideningLowercase(t *testing.T) {
	// "Ⱥ" encodes in two bytes but its lowercase form takes three, so any
	// index taken from a lowered copy would point past the separator here.
	lookup, ok := ParseQuery("ȺȺȺ vs Y130").(PairLookup)

	require.True(t, ok)
	require.Equal(t, "ȺȺȺ", lookup.A)
	require.Equal(t, "Y130", lookup.B)
}

func TestParseQueryYesterday(t *testing.T) {
	lookup, ok := ParseQuery("J150 yesterday").(SingleLookup)

	require.True(t, ok)
	require.Equal(t, "J150", lookup.Name)
	require.NotNil(t, lookup.Date)
	require.Equal(t, domain.Day(time.Now().AddDate(0, 0, -1)), domain.Day(*lookup.Date))
}

func TestParseQueryExplicitDate(t *testing.T) {
	lookup, ok := ParseQuery("J150 2025-05-12").(SingleLookup)

	require.True(t, ok)
	require.Equal(t, "J150", lookup.Name)
	require.NotNil(t, lookup.Date)
	require.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), domain.Day(*lookup.Date))
}

func TestParseQueryNumericCodeIsNotADate(t *testing.T) {
	// "BL 5200" ends in digits, but a bare number names a polymer grade.
	lookup, ok := ParseQuery("BL 5200").(SingleLookup)

	require.True(t, ok)
	require.Equal(t, "BL 5200", lookup.Name)
	require.Nil(t, lookup.Date)
}
