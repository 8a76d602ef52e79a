package parse

import (
	"regexp"
	"strconv"
	"time"
)

// Traders date their quote sheets dd.mm.yyyy, sometimes typed in keycap
// emoji digits. StripEmoji removes the keycap marks, so one pattern covers
// both spellings.
var quoteDateRe = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)

// ExtractQuoteDate finds an explicit dd.mm.yyyy date in a message body.
// Quote sheets are often posted for a past or future day; when a date is
// present it overrides the message timestamp.
func ExtractQuoteDate(text string) (time.Time, bool) {
	m := quoteDateRe.FindStringSubmatch(StripEmoji(text))
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day {
		// Normalization moved the date, so the day did not exist in that
		// month (e.g. 31.02).
		return time.Time{}, false
	}

	return date, true
}
