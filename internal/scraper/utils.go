package scraper

import (
	"fmt"
	"strings"
)

// Permalink builds the private-channel message link. Tracked chats are
// supergroups, so the /c/ form with the bare channel ID applies.
func Permalink(chatID int64, msgID int) string {
	return fmt.Sprintf("https://t.me/c/%d/%d", bareChannelID(chatID), msgID)
}

// bareChannelID strips the -100 prefix bot-API-style chat IDs carry.
func bareChannelID(chatID int64) int64 {
	if chatID < 0 {
		id := -chatID
		if id > 1000000000000 {
			return id - 1000000000000
		}

		return id
	}

	return chatID
}

// TruncateRunes caps s at max runes, appending an ellipsis when cut.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return strings.TrimSpace(string(runes[:max])) + "…"
}

func sanitizePhone(phone string) string {
	var sb strings.Builder

	phone = strings.TrimSpace(phone)

	if strings.HasPrefix(phone, "+") {
		sb.WriteByte('+')

		phone = phone[1:]
	}

	for _, char := range phone {
		if char >= '0' && char <= '9' {
			sb.WriteRune(char)
		}
	}

	return sb.String()
}

func maskPhone(phone string) string {
	if len(phone) < 7 {
		return "****"
	}

	return phone[:3] + "****" + phone[len(phone)-2:]
}
