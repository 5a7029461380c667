package bot

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Houeta/car-watch/internal/models"
	"github.com/Houeta/car-watch/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeContext implements the parts of telebot.Context the handlers use.
type fakeContext struct {
	telebot.Context
	chat    *telebot.Chat
	sender  *telebot.User
	replies []string
	sendErr error
}

func (c *fakeContext) Chat() *telebot.Chat   { return c.chat }
func (c *fakeContext) Sender() *telebot.User { return c.sender }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, what.(string))
	return c.sendErr
}

func newFakeContext(chatID int64) *fakeContext {
	return &fakeContext{chat: &telebot.Chat{ID: chatID}, sender: &telebot.User{Username: "driver"}}
}

func TestStart(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Start").Once()

	testBot := Bot{bot: mockBot, log: discard}

	testBot.Start()
}

func TestStop(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Stop").Once()

	testBot := Bot{bot: mockBot, log: discard}

	testBot.Stop()
}

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Handle", "/start", mock.AnythingOfType("telebot.HandlerFunc")).Once()
	mockBot.On("Handle", "/stop", mock.AnythingOfType("telebot.HandlerFunc")).Once()

	testBot := Bot{bot: mockBot, log: discard, subs: mocks.NewSubscriptionRepository(t)}

	testBot.registerRoutes()
}

func TestRegisterRoutes_NoSubscriptions(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	testBot := Bot{bot: mockBot, log: discard}

	testBot.registerRoutes()

	mockBot.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestSend_BroadcastsToChannelAndSubscribers(t *testing.T) {
	t.Parallel()

	subs := mocks.NewSubscriptionRepository(t)
	subs.On("SubscribedChats", mock.Anything).Return([]int64{-100, 7}, nil).Once()

	wantText := "New icarros ads (fit):\n{}"
	mockBot := mocks.NewAPI(t)
	mockBot.On("Send", telebot.ChatID(-100), wantText).Return(&telebot.Message{}, nil).Once()
	mockBot.On("Send", telebot.ChatID(7), wantText).Return(&telebot.Message{}, nil).Once()

	testBot := Bot{bot: mockBot, log: discard, subs: subs, channelID: -100}

	err := testBot.Send(t.Context(), models.Notification{Source: "icarros", Model: "fit", Text: "{}"})

	require.NoError(t, err)
}

func TestSend_OneChatFailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	subs := mocks.NewSubscriptionRepository(t)
	subs.On("SubscribedChats", mock.Anything).Return([]int64{1, 2}, nil).Once()

	mockBot := mocks.NewAPI(t)
	mockBot.On("Send", telebot.ChatID(1), mock.Anything).Return(nil, assert.AnError).Once()
	mockBot.On("Send", telebot.ChatID(2), mock.Anything).Return(&telebot.Message{}, nil).Once()

	testBot := Bot{bot: mockBot, log: discard, subs: subs}

	err := testBot.Send(t.Context(), models.Notification{Source: "webmotors", Text: "{}"})

	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "chat 1")
}

func TestSend_SubscriptionLookupFails(t *testing.T) {
	t.Parallel()

	subs := mocks.NewSubscriptionRepository(t)
	subs.On("SubscribedChats", mock.Anything).Return(nil, assert.AnError).Once()

	testBot := Bot{bot: mocks.NewAPI(t), log: discard, subs: subs, channelID: 5}

	err := testBot.Send(t.Context(), models.Notification{Source: "icarros"})

	require.ErrorIs(t, err, assert.AnError)
}

func TestSend_NoRecipients(t *testing.T) {
	t.Parallel()

	mockBot := mocks.NewAPI(t)
	testBot := Bot{bot: mockBot, log: discard}

	require.NoError(t, testBot.Send(t.Context(), models.Notification{Source: "icarros"}))
	mockBot.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Empty(t, splitMessage("", 10))

	lines := "aaaa\nbbbb\ncccc\n"
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, splitMessage(lines, 12))

	// No line break: hard cut, but never inside a multi-byte rune.
	parts := splitMessage(strings.Repeat("é", 5), 3)
	assert.Equal(t, []string{"é", "é", "é", "é", "é"}, parts)
}

func TestStartHandler(t *testing.T) {
	t.Parallel()

	t.Run("new subscription", func(t *testing.T) {
		subs := mocks.NewSubscriptionRepository(t)
		subs.On("SubscribeChat", mock.Anything, int64(42)).Return(true, nil).Once()
		testBot := Bot{log: discard, subs: subs}
		tctx := newFakeContext(42)

		require.NoError(t, testBot.startHandler(tctx))
		require.Len(t, tctx.replies, 1)
		assert.Contains(t, tctx.replies[0], "/stop")
	})

	t.Run("already subscribed", func(t *testing.T) {
		subs := mocks.NewSubscriptionRepository(t)
		subs.On("SubscribeChat", mock.Anything, int64(42)).Return(false, nil).Once()
		testBot := Bot{log: discard, subs: subs}
		tctx := newFakeContext(42)

		require.NoError(t, testBot.startHandler(tctx))
		assert.Contains(t, tctx.replies[0], "already subscribed")
	})

	t.Run("repository error", func(t *testing.T) {
		subs := mocks.NewSubscriptionRepository(t)
		subs.On("SubscribeChat", mock.Anything, int64(42)).Return(false, assert.AnError).Once()
		testBot := Bot{log: discard, subs: subs}
		tctx := newFakeContext(42)

		require.NoError(t, testBot.startHandler(tctx))
		assert.Contains(t, tctx.replies[0], "something went wrong")
	})

	t.Run("reply fails", func(t *testing.T) {
		subs := mocks.NewSubscriptionRepository(t)
		subs.On("SubscribeChat", mock.Anything, int64(42)).Return(true, nil).Once()
		testBot := Bot{log: discard, subs: subs}
		tctx := newFakeContext(42)
		tctx.sendErr = assert.AnError

		require.ErrorIs(t, testBot.startHandler(tctx), assert.AnError)
	})
}

func TestStopHandler(t *testing.T) {
	t.Parallel()

	subs := mocks.NewSubscriptionRepository(t)
	subs.On("UnsubscribeChat", mock.Anything, int64(42)).Return(true, nil).Once()
	subs.On("UnsubscribeChat", mock.Anything, int64(43)).Return(false, nil).Once()
	testBot := Bot{log: discard, subs: subs}

	subscribed := newFakeContext(42)
	require.NoError(t, testBot.stopHandler(subscribed))
	assert.Contains(t, subscribed.replies[0], "Unsubscribed")

	stranger := newFakeContext(43)
	require.NoError(t, testBot.stopHandler(stranger))
	assert.Contains(t, stranger.replies[0], "not subscribed")
}
