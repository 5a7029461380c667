package notifier_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/Houeta/car-watch/internal/models"
	"github.com/Houeta/car-watch/internal/services/notifier"
	"github.com/Houeta/car-watch/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// titleProjector shows the "title" field of a payload as the model.
type titleProjector struct{}

func (titleProjector) Project(rec models.AdRecord) models.DigestEntry {
	var p struct {
		Title string `json:"title"`
		Price int    `json:"price"`
	}
	_ = json.Unmarshal(rec.Payload, &p)
	return models.DigestEntry{Model: p.Title, Price: p.Price}
}

func newAds() models.AdSet {
	return models.AdSet{
		"2": {ID: "2", URL: "https://example.com/b", Payload: json.RawMessage(`{"title":"Fit","price":70000}`)},
	}
}

func TestBuildDigest(t *testing.T) {
	t.Parallel()

	text, err := notifier.BuildDigest(newAds(), titleProjector{})

	require.NoError(t, err)
	assert.JSONEq(t, `{"https://example.com/b": {
		"model": "Fit", "color": null, "city": null, "description": null,
		"year": null, "km": null, "price": 70000
	}}`, text)
	assert.Contains(t, text, "\n    ", "digest is indented for humans")
}

func TestDispatcher_EmptyNewAdsSkipsSinks(t *testing.T) {
	t.Parallel()
	sink := mocks.NewNotifier(t)
	d := notifier.NewDispatcher(discard, sink)

	delivered, err := d.Dispatch(t.Context(), models.Search{Source: "icarros"}, titleProjector{}, models.AdSet{})

	require.NoError(t, err)
	assert.Zero(t, delivered)
	sink.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_DeliversToEverySink(t *testing.T) {
	t.Parallel()
	search := models.Search{Source: "icarros", Model: "fit", Recipients: []string{"me@example.com"}}

	mail := mocks.NewNotifier(t)
	chat := mocks.NewNotifier(t)
	matchNotification := mock.MatchedBy(func(n models.Notification) bool {
		return n.Source == "icarros" && n.Model == "fit" &&
			assert.ObjectsAreEqual([]string{"me@example.com"}, n.Recipients) &&
			json.Valid([]byte(n.Text))
	})
	mail.On("Send", mock.Anything, matchNotification).Return(nil).Once()
	mail.On("Name").Return("email").Maybe()
	chat.On("Send", mock.Anything, matchNotification).Return(nil).Once()
	chat.On("Name").Return("telegram").Maybe()

	d := notifier.NewDispatcher(discard, mail, nil, chat)

	delivered, err := d.Dispatch(t.Context(), search, titleProjector{}, newAds())

	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
}

func TestDispatcher_SinkFailureIsIsolated(t *testing.T) {
	t.Parallel()

	broken := mocks.NewNotifier(t)
	broken.On("Send", mock.Anything, mock.Anything).Return(assert.AnError).Once()
	broken.On("Name").Return("email")
	healthy := mocks.NewNotifier(t)
	healthy.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	healthy.On("Name").Return("telegram")

	d := notifier.NewDispatcher(discard, broken, healthy)

	delivered, err := d.Dispatch(t.Context(), models.Search{Source: "webmotors"}, titleProjector{}, newAds())

	assert.Equal(t, 1, delivered)
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "email")
}
