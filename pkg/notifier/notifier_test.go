package notifier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	httpmock "gopkg.in/jarcoal/httpmock.v1"

	"github.com/adamsanghera/go-ytnotify/pkg/notifier"
	"github.com/adamsanghera/go-ytnotify/pkg/subscription"
	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
)

const (
	hubURLTest  = "http://hub.test/subscribe"
	channelTest = "UCS0N5baNlQWJCUrhCEo8WlA"
	secretTest  = "a very good secret"
)

// captured collects the events a test notifier emits. Handlers run on the
// test goroutine, so plain slices are enough.
type captured struct {
	notifications []notifier.Notification
	subscribes    []notifier.SubscriptionUpdate
	unsubscribes  []notifier.SubscriptionUpdate
	errors        []error
}

// newNotifier builds a middleware-mode notifier with an httpmock-intercepted
// hub client, registers capturing handlers, and returns its callback handler.
func newNotifier(t *testing.T, mutate func(*notifier.Config)) (*notifier.Notifier, http.Handler, *captured) {
	t.Helper()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	cfg := notifier.NewConfig()
	cfg.HubCallback = "http://me.test"
	cfg.HubURL = hubURLTest
	cfg.Secret = secretTest
	cfg.Middleware = true
	cfg.Client = client
	if mutate != nil {
		mutate(cfg)
	}

	n, err := notifier.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, n.Shutdown(context.Background()))
	})

	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder("POST", hubURLTest, httpmock.NewStringResponder(202, ""))

	handler, err := n.Listener()
	require.NoError(t, err)

	ev := &captured{}
	n.OnNotification(func(nt notifier.Notification) { ev.notifications = append(ev.notifications, nt) })
	n.OnSubscribe(func(u notifier.SubscriptionUpdate) { ev.subscribes = append(ev.subscribes, u) })
	n.OnUnsubscribe(func(u notifier.SubscriptionUpdate) { ev.unsubscribes = append(ev.unsubscribes, u) })
	n.OnError(func(err error) { ev.errors = append(ev.errors, err) })

	return n, handler, ev
}

// verificationRequest builds the GET a hub sends to settle a handshake.
func verificationRequest(params map[string]string) *http.Request {
	q := make(url.Values)
	for k, v := range params {
		q.Set(k, v)
	}
	return httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil)
}

func TestNew_ConfigErrors(t *testing.T) {
	_, err := notifier.New(&notifier.Config{})
	assert.ErrorIs(t, err, notifier.ErrMissingHubCallback)

	_, err = notifier.New(nil)
	assert.ErrorIs(t, err, notifier.ErrMissingHubCallback)
}

func TestModeEntryPoints(t *testing.T) {
	standalone, err := notifier.New(&notifier.Config{HubCallback: "http://me.test"})
	require.NoError(t, err)
	defer standalone.Shutdown(context.Background())

	_, err = standalone.Listener()
	assert.ErrorIs(t, err, notifier.ErrStandaloneMode)

	middleware, err := notifier.New(&notifier.Config{HubCallback: "http://me.test", Middleware: true})
	require.NoError(t, err)
	defer middleware.Shutdown(context.Background())

	err = middleware.Setup()
	assert.ErrorIs(t, err, notifier.ErrMiddlewareMode)
}

func TestVerification_SubscribeChallenge(t *testing.T) {
	n, handler, ev := newNotifier(t, nil)

	n.Subscribe(context.Background(), channelTest)
	require.Empty(t, ev.errors)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, verificationRequest(map[string]string{
		"hub.mode":          "subscribe",
		"hub.topic":         subscription.TopicForChannel(channelTest),
		"hub.challenge":     "kitties",
		"hub.lease_seconds": "432000",
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kitties", rec.Body.String())

	require.Len(t, ev.subscribes, 1)
	assert.Equal(t, notifier.UpdateSubscribe, ev.subscribes[0].Type)
	assert.Equal(t, channelTest, ev.subscribes[0].Channel)
	assert.Equal(t, 432000, ev.subscribes[0].LeaseSeconds)

	// The subscription is visible as active with its lease
	active, err := n.ActiveSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, channelTest, active[0].Channel)
	assert.Equal(t, storage.StateActive, active[0].State)
	assert.False(t, active[0].LeaseExpiresAt.IsZero())
}

func TestVerification_UnknownTopic(t *testing.T) {
	_, handler, ev := newNotifier(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, verificationRequest(map[string]string{
		"hub.mode":      "subscribe",
		"hub.topic":     subscription.TopicForChannel("never-subscribed"),
		"hub.challenge": "kitties",
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, ev.subscribes)
	assert.Empty(t, ev.errors)
}

func TestVerification_BadRequests(t *testing.T) {
	n, handler, _ := newNotifier(t, nil)
	n.Subscribe(context.Background(), channelTest)

	topic := subscription.TopicForChannel(channelTest)

	tests := []struct {
		name   string
		params map[string]string
	}{
		{"no mode", map[string]string{"hub.topic": topic, "hub.challenge": "c"}},
		{"no topic", map[string]string{"hub.mode": "subscribe", "hub.challenge": "c"}},
		{"no challenge", map[string]string{"hub.mode": "subscribe", "hub.topic": topic}},
		{"foreign mode", map[string]string{"hub.mode": "dance", "hub.topic": topic, "hub.challenge": "c"}},
		{"garbage lease", map[string]string{"hub.mode": "subscribe", "hub.topic": topic, "hub.challenge": "c", "hub.lease_seconds": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, verificationRequest(tt.params))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestVerification_UnsubscribeChallenge(t *testing.T) {
	n, handler, ev := newNotifier(t, nil)
	topic := subscription.TopicForChannel(channelTest)

	n.Subscribe(context.Background(), channelTest)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, verificationRequest(map[string]string{
		"hub.mode": "subscribe", "hub.topic": topic, "hub.challenge": "c1", "hub.lease_seconds": "300",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	n.Unsubscribe(context.Background(), channelTest)

	// No lease on unsubscribe verifications
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, verificationRequest(map[string]string{
		"hub.mode": "unsubscribe", "hub.topic": topic, "hub.challenge": "c2",
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c2", rec.Body.String())

	require.Len(t, ev.unsubscribes, 1)
	assert.Equal(t, notifier.UpdateUnsubscribe, ev.unsubscribes[0].Type)
	assert.Equal(t, channelTest, ev.unsubscribes[0].Channel)
	assert.Equal(t, 0, ev.unsubscribes[0].LeaseSeconds)

	// A second confirmation has nothing left to settle
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, verificationRequest(map[string]string{
		"hub.mode": "unsubscribe", "hub.topic": topic, "hub.challenge": "c3",
	}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, ev.unsubscribes, 1)
}

func TestVerification_Denied(t *testing.T) {
	n, handler, ev := newNotifier(t, nil)

	n.Subscribe(context.Background(), channelTest)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, verificationRequest(map[string]string{
		"hub.mode":   "denied",
		"hub.topic":  subscription.TopicForChannel(channelTest),
		"hub.reason": "topic not allowed",
	}))

	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, ev.errors, 1)
	var denied notifier.DeniedError
	require.ErrorAs(t, ev.errors[0], &denied)
	assert.Equal(t, channelTest, denied.Channel)
	assert.Equal(t, "topic not allowed", denied.Reason)

	subs, err := n.Subscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, storage.StateRemoved, subs[0].State)
}
