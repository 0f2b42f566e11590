package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestIsBotMentioned(t *testing.T) {
	t.Parallel()

	t.Run("text mention", func(t *testing.T) {
		t.Parallel()
		msg := &tgbotapi.Message{Text: "hello @BridgeBot"}
		if !isBotMentioned(msg, "bridgebot") {
			t.Fatal("expected mention from text")
		}
	})

	t.Run("entity text mention", func(t *testing.T) {
		t.Parallel()
		msg := &tgbotapi.Message{
			Entities: []tgbotapi.MessageEntity{
				{Type: "text_mention", User: &tgbotapi.User{IsBot: true}},
			},
		}
		if !isBotMentioned(msg, "") {
			t.Fatal("expected mention from text_mention entity")
		}
	})

	t.Run("not mentioned", func(t *testing.T) {
		t.Parallel()
		msg := &tgbotapi.Message{Text: "hello everyone"}
		if isBotMentioned(msg, "bridgebot") {
			t.Fatal("expected no mention")
		}
	})

	t.Run("nil message", func(t *testing.T) {
		t.Parallel()
		if isBotMentioned(nil, "bridgebot") {
			t.Fatal("expected no mention")
		}
	})
}
