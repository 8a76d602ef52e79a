package telegrambot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
	"github.com/lueurxax/polymer-price-bot/internal/parse"
	"github.com/lueurxax/polymer-price-bot/internal/storage"
)

const menuItemsPerPage = 10

const welcomeText = `Welcome to the Polymer Price Bot! 🏭

I can help you check historical prices for various polymers.

Commands:
/list - Show list of available polymers
/price &lt;name&gt; [date] - Price for one polymer
/compare &lt;a&gt; vs &lt;b&gt; - Compare two polymers
/today - Today's digest
/help - Show this help message

You can also just type the polymer name (e.g. "J150", "Y130") to get its price history.`

const helpText = `Polymer Price Bot Help 📊

How to use:
1. Use /list to see all available polymers
2. Click on a polymer name or type it directly
3. Get price history: yesterday, 3 days ago, 1 week ago

Examples:
- "J150" - price history for J150
- "J150 yesterday" - J150 on a specific day
- "J150 vs Y130" - compare two polymers
- /today - stats for everything quoted today

If historical data is missing the bot falls back to the latest available price.`

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, welcomeText)
	b.showMenu(ctx, msg.Chat.ID, 0)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, helpText)
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) {
	b.showMenu(ctx, msg.Chat.ID, 0)
}

func (b *Bot) showMenu(ctx context.Context, chatID int64, page int) {
	text, markup, err := b.menuPage(ctx, page)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to build polymer menu")
		b.reply(chatID, "Something went wrong, try again later.")

		return
	}

	if markup == nil {
		b.reply(chatID, text)

		return
	}

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = markup

	if _, err := b.api.Send(reply); err != nil {
		b.logger.Error().Err(err).Msg("failed to send polymer menu")
	}
}

func (b *Bot) editMenu(ctx context.Context, chatID int64, messageID int, page int) {
	text, markup, err := b.menuPage(ctx, page)
	if err != nil || markup == nil {
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error().Err(err).Msg("failed to edit polymer menu")
	}
}

// menuPage builds one page of the polymer selection keyboard. A nil markup
// means there is nothing to show yet.
func (b *Bot) menuPage(ctx context.Context, page int) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	names, err := b.db.DistinctNamesWithLatestDate(ctx)
	if err != nil {
		return "", nil, err
	}

	if len(names) == 0 {
		return "No polymer data available yet. Please wait while the system collects data from the group.", nil, nil
	}

	totalPages := (len(names)-1)/menuItemsPerPage + 1

	if page < 0 {
		page = 0
	}

	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * menuItemsPerPage

	end := start + menuItemsPerPage
	if end > len(names) {
		end = len(names)
	}

	var rows [][]tgbotapi.InlineKeyboardButton

	for _, info := range names[start:end] {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(info.DisplayName, "polymer:"+info.NormalizedName),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton

	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Previous", fmt.Sprintf("page:%d", page-1)))
	}

	if page < totalPages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("page:%d", page+1)))
	}

	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	text := fmt.Sprintf("Select a polymer (Page %d/%d):", page+1, totalPages)

	return text, &markup, nil
}

func (b *Bot) handlePrice(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		b.reply(msg.Chat.ID, "Usage: /price &lt;name&gt; [date]\nExample: /price J150 yesterday")

		return
	}

	lookup, ok := ParseQuery(args).(SingleLookup)
	if !ok {
		b.reply(msg.Chat.ID, "Use /compare to compare two polymers.")

		return
	}

	b.answerSingle(ctx, msg.Chat.ID, lookup)
}

func (b *Bot) handleCompare(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())

	pair, ok := ParseQuery(args).(PairLookup)
	if !ok {
		b.reply(msg.Chat.ID, "Usage: /compare &lt;a&gt; vs &lt;b&gt;\nExample: /compare J150 vs Y130")

		return
	}

	b.answerPair(ctx, msg.Chat.ID, pair)
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) {
	today := domain.Day(time.Now())

	records, err := b.db.GetAllForDate(ctx, today)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to load today's records")
		b.reply(msg.Chat.ID, "Something went wrong, try again later.")

		return
	}

	if len(records) == 0 {
		b.reply(msg.Chat.ID, "No prices recorded today yet.")

		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 <b>Prices for %s</b>\n\n", today.Format("2006-01-02")))

	seen := make(map[string]struct{})

	for _, rec := range records {
		if _, dup := seen[rec.NormalizedName]; dup {
			continue
		}

		seen[rec.NormalizedName] = struct{}{}

		st, err := b.ledger.StatsFor(ctx, rec.NormalizedName, today)
		if err != nil {
			b.logger.Error().Err(err).Str("name", rec.NormalizedName).Msg("failed to compute day stats")

			continue
		}

		if st == nil {
			continue
		}

		sb.WriteString(fmt.Sprintf("<b>%s</b>: %s", escapeHTML(rec.DisplayName), formatPrice(st.Mean)))

		if st.Count > 1 {
			sb.WriteString(fmt.Sprintf(" (low %s / high %s, %d quotes)", formatPrice(st.Lowest), formatPrice(st.Highest), st.Count))
		}

		sb.WriteString("\n")
	}

	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleTextQuery(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	switch lookup := ParseQuery(text).(type) {
	case PairLookup:
		b.answerPair(ctx, msg.Chat.ID, lookup)
	case SingleLookup:
		b.answerSingle(ctx, msg.Chat.ID, lookup)
	}
}

func (b *Bot) answerSingle(ctx context.Context, chatID int64, lookup SingleLookup) {
	normalized, found, suggestions, err := b.resolveName(ctx, lookup.Name)
	if err != nil {
		b.logger.Error().Err(err).Str("query", lookup.Name).Msg("failed to resolve polymer name")
		b.reply(chatID, "Something went wrong, try again later.")

		return
	}

	if !found {
		if len(suggestions) > 0 {
			var sb strings.Builder

			sb.WriteString(fmt.Sprintf("Polymer '%s' not found. Did you mean:\n", escapeHTML(lookup.Name)))

			for _, info := range suggestions {
				sb.WriteString(fmt.Sprintf("- %s (last seen %s)\n", escapeHTML(info.DisplayName), info.LatestDate.Format("2006-01-02")))
			}

			b.reply(chatID, sb.String())

			return
		}

		b.reply(chatID, fmt.Sprintf("Polymer '%s' not found in the database.\n\nUse /list to see all available polymers.", escapeHTML(lookup.Name)))

		return
	}

	if lookup.Date != nil {
		b.sendDayReport(ctx, chatID, normalized, *lookup.Date)

		return
	}

	b.sendHistory(ctx, chatID, normalized)
}

func (b *Bot) answerPair(ctx context.Context, chatID int64, pair PairLookup) {
	left, err := b.latestLine(ctx, pair.A)
	if err != nil {
		b.reply(chatID, "Something went wrong, try again later.")

		return
	}

	right, err := b.latestLine(ctx, pair.B)
	if err != nil {
		b.reply(chatID, "Something went wrong, try again later.")

		return
	}

	b.reply(chatID, "⚖️ <b>Comparison</b>\n\n"+left+"\n"+right)
}

func (b *Bot) latestLine(ctx context.Context, rawName string) (string, error) {
	normalized := parse.NormalizeName(rawName)

	rec, err := b.db.GetLatest(ctx, normalized)
	if err != nil {
		return "", err
	}

	if rec == nil {
		return fmt.Sprintf("<b>%s</b>: no data", escapeHTML(rawName)), nil
	}

	return fmt.Sprintf("<b>%s</b>: %s (%s)", escapeHTML(rec.DisplayName), formatPrice(rec.Price), rec.Date.Format("2006-01-02")), nil
}

// resolveName maps free text onto a known normalized name. When the exact
// name is unknown a substring search supplies suggestions.
func (b *Bot) resolveName(ctx context.Context, raw string) (string, bool, []storage.NameInfo, error) {
	normalized := parse.NormalizeName(raw)
	if normalized == "" {
		return "", false, nil, nil
	}

	rec, err := b.db.GetLatest(ctx, normalized)
	if err != nil {
		return "", false, nil, err
	}

	if rec != nil {
		return normalized, true, nil, nil
	}

	matches, err := b.db.Search(ctx, normalized)
	if err != nil {
		return "", false, nil, err
	}

	if len(matches) == 1 {
		return matches[0].NormalizedName, true, nil, nil
	}

	return "", false, matches, nil
}

// sendHistory renders the standard history view: yesterday, 3 days ago,
// 1 week ago, with the latest record as a fallback and the latest day's
// aggregate stats.
func (b *Bot) sendHistory(ctx context.Context, chatID int64, normalized string) {
	latest, err := b.db.GetLatest(ctx, normalized)
	if err != nil {
		b.logger.Error().Err(err).Str("name", normalized).Msg("failed to load latest record")
		b.reply(chatID, "Something went wrong, try again later.")

		return
	}

	if latest == nil {
		b.reply(chatID, fmt.Sprintf("❌ No data available for '%s'", escapeHTML(normalized)))

		return
	}

	now := time.Now()

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 <b>Price History for %s</b>\n\n", escapeHTML(latest.DisplayName)))

	anyHistory := false

	for _, view := range []struct {
		label string
		date  time.Time
	}{
		{"Yesterday", now.AddDate(0, 0, -1)},
		{"3 days ago", now.AddDate(0, 0, -3)},
		{"1 week ago", now.AddDate(0, 0, -7)},
	} {
		rec, err := b.db.GetOnDate(ctx, normalized, view.date)
		if err != nil {
			b.logger.Error().Err(err).Str("name", normalized).Msg("failed to load record on date")

			continue
		}

		if rec == nil {
			sb.WriteString(fmt.Sprintf("📅 %s: no data\n", view.label))

			continue
		}

		anyHistory = true

		sb.WriteString(fmt.Sprintf("📅 %s (%s): 💰 %s\n", view.label, domain.Day(view.date).Format("2006-01-02"), formatPrice(rec.Price)))
	}

	sb.WriteString(fmt.Sprintf("\n🔄 Latest (%s): 💰 %s\n", latest.Date.Format("2006-01-02"), formatPrice(latest.Price)))

	st, err := b.ledger.StatsFor(ctx, normalized, latest.Date)
	if err != nil {
		b.logger.Error().Err(err).Str("name", normalized).Msg("failed to compute day stats")
	} else if st != nil && st.Count > 1 {
		sb.WriteString(fmt.Sprintf("Day stats: low %s / high %s / mean %s (%d quotes)\n",
			priceLink(st.Lowest, st.LowestFrom), priceLink(st.Highest, st.HighestFrom), formatPrice(st.Mean), st.Count))
	}

	if !anyHistory {
		sb.WriteString("\n⚠️ Historical data not available. Showing latest data only.")
	}

	b.reply(chatID, sb.String())
}

// sendDayReport renders the aggregate view for one (name, day) pair.
func (b *Bot) sendDayReport(ctx context.Context, chatID int64, normalized string, date time.Time) {
	day := domain.Day(date)

	st, err := b.ledger.StatsFor(ctx, normalized, day)
	if err != nil {
		b.logger.Error().Err(err).Str("name", normalized).Msg("failed to compute day stats")
		b.reply(chatID, "Something went wrong, try again later.")

		return
	}

	if st == nil {
		b.reply(chatID, fmt.Sprintf("No data for '%s' on %s.", escapeHTML(normalized), day.Format("2006-01-02")))

		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 <b>%s on %s</b>\n\n", escapeHTML(normalized), day.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Lowest: %s\n", priceLink(st.Lowest, st.LowestFrom)))
	sb.WriteString(fmt.Sprintf("Highest: %s\n", priceLink(st.Highest, st.HighestFrom)))
	sb.WriteString(fmt.Sprintf("Mean: %s\n", formatPrice(st.Mean)))
	sb.WriteString(fmt.Sprintf("Spread: %s\n", formatPrice(st.Diff)))
	sb.WriteString(fmt.Sprintf("Latest: %s\n", priceLink(st.Latest, st.LatestFrom)))
	sb.WriteString(fmt.Sprintf("Quotes: %d\n", st.Count))

	b.reply(chatID, sb.String())
}
