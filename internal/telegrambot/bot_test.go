package telegrambot

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/polymer-price-bot/internal/config"
)

func TestIsAllowedEmptyListAdmitsEveryone(t *testing.T) {
	logger := zerolog.Nop()
	b := &Bot{cfg: &config.Config{}, logger: &logger}

	require.True(t, b.isAllowed(12345))
}

func TestIsAllowedListRestricts(t *testing.T) {
	logger := zerolog.Nop()
	b := &Bot{cfg: &config.Config{AllowedUserIDs: []int64{1, 2}}, logger: &logger}

	require.True(t, b.isAllowed(2))
	require.False(t, b.isAllowed(3))
}

func TestHandleCallbackWithoutMessage(t *testing.T) {
	logger := zerolog.Nop()
	b := &Bot{cfg: &config.Config{}, logger: &logger}

	// A callback on an inaccessible message carries no Message; routing
	// must bail out instead of dereferencing it.
	require.NotPanics(t, func() {
		b.handleCallback(context.Background(), &tgbotapi.CallbackQuery{
			ID:   "cb1",
			From: &tgbotapi.User{ID: 7},
			Data: "page:1",
		})
	})
}
