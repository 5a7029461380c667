package bot

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"
)

// startHandler process command /start by subscribing the chat to digests.
func (b *Bot) startHandler(tctx telebot.Context) error {
	chatID := tctx.Chat().ID
	b.log.Info("User started the bot", "username", tctx.Sender().Username, "chat_id", chatID)

	added, err := b.subs.SubscribeChat(context.Background(), chatID)
	if err != nil {
		b.log.Error("failed to subscribe chat", "chat_id", chatID, "error", err)
		return b.reply(tctx, "Sorry, something went wrong. Please try again later.")
	}

	if !added {
		return b.reply(tctx, "You are already subscribed to new car ads.")
	}
	return b.reply(tctx, "Hello! You will receive new car ads here. Send /stop to unsubscribe.")
}

// stopHandler process command /stop by removing the chat from the broadcast list.
func (b *Bot) stopHandler(tctx telebot.Context) error {
	chatID := tctx.Chat().ID

	removed, err := b.subs.UnsubscribeChat(context.Background(), chatID)
	if err != nil {
		b.log.Error("failed to unsubscribe chat", "chat_id", chatID, "error", err)
		return b.reply(tctx, "Sorry, something went wrong. Please try again later.")
	}

	if !removed {
		return b.reply(tctx, "You were not subscribed.")
	}
	return b.reply(tctx, "Unsubscribed. Send /start to subscribe again.")
}

func (b *Bot) reply(tctx telebot.Context, text string) error {
	if err := tctx.Send(text); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}
