package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Houeta/car-watch/internal/models"
	"go.uber.org/multierr"
	"gopkg.in/telebot.v4"
)

// maxMessageLen is the Telegram limit for one text message.
const maxMessageLen = 4096

// Bot contains the bot API instance and broadcasts digests to chats.
type Bot struct {
	bot       API
	log       *slog.Logger
	subs      SubscriptionRepository
	channelID int64
}

// NewBot authorizes on Telegram. channelID, when non-zero, always receives broadcasts;
// subs adds the chats that subscribed with /start and may be nil.
func NewBot(
	log *slog.Logger,
	token string,
	poller time.Duration,
	subs SubscriptionRepository,
	channelID int64,
) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	botInstance := &Bot{bot: bot, log: log, subs: subs, channelID: channelID}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	if b.subs == nil {
		return
	}
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/stop", b.stopHandler)
}

func (b *Bot) Name() string { return "telegram" }

// Send broadcasts the digest to the channel and every subscribed chat.
// A chat that cannot be reached does not stop delivery to the others.
func (b *Bot) Send(ctx context.Context, n models.Notification) error {
	const opn = "bot.Send"

	chats, err := b.recipients(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	if len(chats) == 0 {
		b.log.WarnContext(ctx, "No chat to notify", "op", opn, "source", n.Source)
		return nil
	}

	parts := splitMessage(formatMessage(n), maxMessageLen)

	var errs error
	for _, chatID := range chats {
		for _, part := range parts {
			if _, err = b.bot.Send(telebot.ChatID(chatID), part); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("chat %d: %w", chatID, err))
				break
			}
		}
	}
	if errs != nil {
		return fmt.Errorf("%s: %w", opn, errs)
	}

	return nil
}

func (b *Bot) recipients(ctx context.Context) ([]int64, error) {
	var chats []int64
	if b.channelID != 0 {
		chats = append(chats, b.channelID)
	}
	if b.subs == nil {
		return chats, nil
	}

	subscribed, err := b.subs.SubscribedChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribed chats: %w", err)
	}
	for _, id := range subscribed {
		if id != b.channelID {
			chats = append(chats, id)
		}
	}

	return chats, nil
}

func formatMessage(n models.Notification) string {
	title := fmt.Sprintf("New %s ads", n.Source)
	if n.Model != "" {
		title += fmt.Sprintf(" (%s)", n.Model)
	}
	return title + ":\n" + n.Text
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line breaks
// and never splitting a UTF-8 sequence.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
			cut = nl + 1
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
