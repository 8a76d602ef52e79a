package parse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
)

const minNameLen = 3

// pricePatterns are matched cumulatively over the whole text; the union of
// matches is deduplicated afterwards. A price is a numeric literal of at
// least five integer digits, clearly separated from the name: polymer codes
// embed 3-4 digit numbers and must never be read as prices.
var pricePatterns = []*regexp.Regexp{
	// Multiple spaces between name and price, the dominant layout in
	// formatted quote sheets: "Shurtan By456                15400".
	regexp.MustCompile(`([A-Za-z][A-Za-z\s\-]+[A-Za-z0-9]+)\s{2,}(\d{5,}(?:[.,]\d+)?)`),

	// Tab or newline separated columns.
	regexp.MustCompile(`([A-Za-z][A-Za-z\s\-]+[A-Za-z0-9]+)[\t\n]+(\d{5,}(?:[.,]\d+)?)`),

	// Country-flag glyph before the name (regional indicator pairs).
	regexp.MustCompile(`[\x{1F1E6}-\x{1F1FF}]{2}\s*([A-Za-z][A-Za-z\s\-]+[A-Za-z0-9]+)\s+(\d{5,}(?:[.,]\d+)?)`),

	// Explicit currency word after the amount.
	regexp.MustCompile(`([A-Za-z][A-Za-z\s\-]+[A-Za-z0-9]+)\s+(\d{5,}(?:[.,]\d+)?)\s*(?:сумм|сум|sum|so'm)`),
}

// Extractor is the deterministic pattern-matching path of the pipeline.
// It is pure: no I/O, no shared state, safe for concurrent use.
type Extractor struct {
	minPrice decimal.Decimal
}

// NewExtractor returns an extractor rejecting prices below minPrice.
func NewExtractor(minPrice decimal.Decimal) *Extractor {
	return &Extractor{minPrice: minPrice}
}

// Extract pattern-matches (name, price) pairs out of raw text. Candidates
// whose price collides with digits in the name, or falls below the plausible
// floor, are silently dropped; false negatives are preferred over false
// positives here. Output keeps first-seen order across all patterns.
func (e *Extractor) Extract(text string) []domain.PricedEntity {
	var results []domain.PricedEntity

	seen := make(map[string]struct{})

	for _, pattern := range pricePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			name := CollapseWhitespace(StripEmoji(m[1]))
			priceStr := m[2]

			entity, ok := e.validate(name, priceStr)
			if !ok {
				continue
			}

			if _, dup := seen[entity.NormalizedName]; dup {
				continue
			}

			seen[entity.NormalizedName] = struct{}{}
			results = append(results, entity)
		}
	}

	return results
}

// Validate applies the shared acceptance rules to a candidate pair and
// builds the entity. Used by both the deterministic path and for
// re-checking oracle output.
func (e *Extractor) Validate(name, priceStr string) (domain.PricedEntity, bool) {
	return e.validate(CollapseWhitespace(StripEmoji(name)), priceStr)
}

func (e *Extractor) validate(name, priceStr string) (domain.PricedEntity, bool) {
	if len(name) < minNameLen || isAllDigits(name) {
		return domain.PricedEntity{}, false
	}

	if DigitCollision(name, priceStr) {
		return domain.PricedEntity{}, false
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(priceStr, ",", "."))
	if err != nil {
		return domain.PricedEntity{}, false
	}

	if price.LessThan(e.minPrice) {
		return domain.PricedEntity{}, false
	}

	normalized := NormalizeName(name)
	if normalized == "" {
		return domain.PricedEntity{}, false
	}

	return domain.PricedEntity{
		DisplayName:    name,
		NormalizedName: normalized,
		Price:          price,
		Status:         domain.StatusPriced,
	}, true
}

// DigitCollision reports whether the price literal overlaps the digits
// embedded in the final token of the name. A quote line like
// "Uz-Kor Gas Jm370   3700" must not turn the code suffix into a price:
// equality and prefixing in either direction are both collisions.
func DigitCollision(name, priceStr string) bool {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return false
	}

	digits := digitsOf(parts[len(parts)-1])
	if digits == "" {
		return false
	}

	priceDigits := integerDigits(priceStr)

	return digits == priceDigits ||
		strings.HasPrefix(priceDigits, digits) ||
		strings.HasPrefix(digits, priceDigits)
}

func digitsOf(s string) string {
	var b strings.Builder

	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// integerDigits returns the leading digit run of a numeric literal,
// cutting off decimal separators and anything after them.
func integerDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}

	return s
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}
