package telegrambot

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Lookup is a parsed user request. SingleLookup asks about one polymer,
// optionally on a specific day; PairLookup compares two.
type Lookup interface {
	isLookup()
}

type SingleLookup struct {
	Name string
	Date *time.Time
}

type PairLookup struct {
	A string
	B string
}

func (SingleLookup) isLookup() {}
func (PairLookup) isLookup()   {}

// ParseQuery turns free text into a lookup. "J150 vs Y130" compares,
// "J150 yesterday" and "J150 12.05.2025" pin a date, plain "J150" asks for
// the history view.
func ParseQuery(text string) Lookup {
	text = strings.TrimSpace(text)

	if a, b, ok := splitVersus(text); ok {
		return PairLookup{A: a, B: b}
	}

	name, date := splitDateSuffix(text)

	return SingleLookup{Name: name, Date: date}
}

// versusRe matches the comparison separator case-insensitively on the
// original text. Offsets must come from the text being sliced: lowering
// can change rune byte lengths and shift every index after them.
var versusRe = regexp.MustCompile(`(?i)\s(?:vs\.?|против)\s`)

func splitVersus(text string) (string, string, bool) {
	loc := versusRe.FindStringIndex(text)
	if loc == nil {
		return "", "", false
	}

	a := strings.TrimSpace(text[:loc[0]])
	b := strings.TrimSpace(text[loc[1]:])

	if a == "" || b == "" {
		return "", "", false
	}

	return a, b, true
}

// splitDateSuffix peels a trailing date off a query. Relative keywords are
// handled first, then dateparse takes a shot at the last token. A bare
// number is never a date: "J150" ends in digits but names a polymer.
func splitDateSuffix(text string) (string, *time.Time) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return text, nil
	}

	last := fields[len(fields)-1]
	rest := strings.Join(fields[:len(fields)-1], " ")

	now := time.Now()

	switch strings.ToLower(last) {
	case "today", "сегодня":
		return rest, &now
	case "yesterday", "вчера":
		d := now.AddDate(0, 0, -1)

		return rest, &d
	}

	if !strings.ContainsAny(last, "./-") {
		return text, nil
	}

	parsed, err := dateparse.ParseAny(last)
	if err != nil {
		return text, nil
	}

	return rest, &parsed
}
