package telegrambot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
)

// formatPrice renders a price with two decimal places, the way the chats
// themselves quote.
func formatPrice(p decimal.Decimal) string {
	return p.StringFixed(2)
}

// priceLink renders a price as a link to the message it came from, falling
// back to plain text when the record has no permalink.
func priceLink(p decimal.Decimal, from domain.Provenance) string {
	if from.SourceLink == "" {
		return formatPrice(p)
	}

	return fmt.Sprintf(`<a href="%s">%s</a>`, from.SourceLink, formatPrice(p))
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")

	return s
}
