// Package subscription drives the WebSub handshake for YouTube channel
// feeds: it sends subscribe and unsubscribe requests to the hub and settles
// the hub's verification challenges against stored subscription state.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adamsanghera/go-ytnotify/pkg/subscription/storage"
)

// Subscription modes, as they appear in hub.mode.
const (
	ModeSubscribe   = "subscribe"
	ModeUnsubscribe = "unsubscribe"
	ModeDenied      = "denied"
)

// maxRedirects bounds how many 307/308 hops a hub request will follow.
const maxRedirects = 3

var (
	// ErrMissingCallback is returned when the manager is built without a
	// public callback URL.
	ErrMissingCallback = errors.New("subscription: callback URL is required")

	// ErrMissingHub is returned when the manager is built without a hub URL.
	ErrMissingHub = errors.New("subscription: hub URL is required")

	// ErrMissingStore is returned when the manager is built without storage.
	ErrMissingStore = errors.New("subscription: storage is required")

	// ErrSubscriptionNotFound is returned by ConfirmChallenge and Deny when
	// the topic matches no subscription in the state the handshake requires.
	ErrSubscriptionNotFound = errors.New("subscription: no matching subscription")
)

// HubError reports a hub response that was neither an acknowledgement nor a
// redirect.
type HubError struct {
	Mode   string
	Topic  string
	Status int
}

func (e HubError) Error() string {
	return fmt.Sprintf("subscription: hub returned status %d for %s of {%s}", e.Status, e.Mode, e.Topic)
}

// ManagerConfig carries the collaborators and hub coordinates for a Manager.
type ManagerConfig struct {
	Hub      string // hub endpoint requests are POSTed to
	Callback string // public URL the hub calls back, sent as hub.callback
	Secret   string // shared secret for content signatures, optional

	Client  *http.Client
	Store   storage.Storage
	Logger  *slog.Logger
	OnError func(error) // invoked for failures of fire-and-forget requests
}

// Manager owns the subscribe side of the protocol. Subscribe and Unsubscribe
// return once the hub request is dispatched; confirmation arrives later
// through ConfirmChallenge when the hub verifies intent against the callback
// endpoint.
type Manager struct {
	hub      string
	callback string
	secret   string

	client  *http.Client
	store   storage.Storage
	logger  *slog.Logger
	onError func(error)
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Callback == "" {
		return nil, ErrMissingCallback
	}
	if cfg.Hub == "" {
		return nil, ErrMissingHub
	}
	if cfg.Store == nil {
		return nil, ErrMissingStore
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
			// Redirects carry protocol meaning here; they are handled per
			// status code rather than followed blindly.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		hub:      cfg.Hub,
		callback: cfg.Callback,
		secret:   cfg.Secret,
		client:   client,
		store:    cfg.Store,
		logger:   logger,
		onError:  cfg.OnError,
	}, nil
}

// Subscribe marks each channel pending and asks the hub for a subscription
// to its feed. Failures are reported through the error hook, never returned.
func (m *Manager) Subscribe(ctx context.Context, channels ...string) {
	for _, channel := range channels {
		topic := TopicForChannel(channel)

		if err := m.store.MarkPending(ctx, channel, topic, m.secret); err != nil {
			m.report(fmt.Errorf("recording pending subscription for {%s}: %w", channel, err))
			continue
		}

		if err := m.request(ctx, ModeSubscribe, topic); err != nil {
			m.report(err)
			continue
		}

		m.logger.Debug("subscribe request dispatched", "channel", channel, "topic", topic)
	}
}

// Unsubscribe asks the hub to drop each channel's subscription. The stored
// record stays active until the hub verifies the request against the
// callback endpoint. Failures are reported through the error hook.
func (m *Manager) Unsubscribe(ctx context.Context, channels ...string) {
	for _, channel := range channels {
		topic := TopicForChannel(channel)

		if err := m.request(ctx, ModeUnsubscribe, topic); err != nil {
			m.report(err)
			continue
		}

		m.logger.Debug("unsubscribe request dispatched", "channel", channel, "topic", topic)
	}
}

// ConfirmChallenge settles a hub verification request. Subscribe intents
// require a pending subscription for the topic, unsubscribe intents an
// active one; anything else fails with ErrSubscriptionNotFound so the
// caller can refuse the challenge. On success the returned string is the
// challenge to echo back, untouched.
func (m *Manager) ConfirmChallenge(ctx context.Context, mode, topic, challenge string, leaseSeconds int) (string, error) {
	channel, err := ChannelFromTopic(topic)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubscriptionNotFound, err)
	}

	switch mode {
	case ModeSubscribe:
		expiry := time.Now().Add(time.Duration(leaseSeconds) * time.Second)
		if err := m.store.Activate(ctx, channel, expiry); err != nil {
			return "", confirmErr(channel, err)
		}
		m.logger.Info("subscription verified", "channel", channel, "lease_seconds", leaseSeconds)

	case ModeUnsubscribe:
		if err := m.store.Remove(ctx, channel, "unsubscribed"); err != nil {
			return "", confirmErr(channel, err)
		}
		m.logger.Info("unsubscription verified", "channel", channel)

	default:
		return "", fmt.Errorf("%w: mode {%s} is not verifiable", ErrSubscriptionNotFound, mode)
	}

	return challenge, nil
}

// Deny settles a hub denial, removing the subscription whatever its state.
func (m *Manager) Deny(ctx context.Context, topic, reason string) error {
	channel, err := ChannelFromTopic(topic)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubscriptionNotFound, err)
	}

	if reason == "" {
		reason = "denied by hub"
	}
	if err := m.store.Deny(ctx, channel, reason); err != nil {
		return confirmErr(channel, err)
	}

	m.logger.Warn("subscription denied by hub", "channel", channel, "reason", reason)
	return nil
}

// Subscriptions returns every subscription the store knows about.
func (m *Manager) Subscriptions(ctx context.Context) ([]storage.Record, error) {
	return m.store.All(ctx)
}

// Active returns verified subscriptions whose lease has not expired.
func (m *Manager) Active(ctx context.Context) ([]storage.Record, error) {
	return m.store.Active(ctx)
}

// confirmErr keeps state machine refusals distinguishable from plumbing
// failures: the former map to ErrSubscriptionNotFound.
func confirmErr(channel string, err error) error {
	if errors.Is(err, storage.ErrWrongState) || errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: channel {%s}: %v", ErrSubscriptionNotFound, channel, err)
	}
	return fmt.Errorf("confirming subscription for {%s}: %w", channel, err)
}

// request POSTs a mode change for topic to the hub, following protocol
// redirects to a relocated hub.
func (m *Manager) request(ctx context.Context, mode, topic string) error {
	hub := m.hub
	for hop := 0; ; hop++ {
		resp, err := m.send(ctx, hub, mode, topic)
		if err != nil {
			return fmt.Errorf("requesting %s of {%s}: %w", mode, topic, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		code := resp.StatusCode

		// ACK
		if code >= 200 && code < 300 {
			return nil
		}

		// Redirect
		if code == http.StatusTemporaryRedirect || code == http.StatusPermanentRedirect {
			newHubLoc := resp.Header.Get("Location")
			if newHubLoc == "" || hop == maxRedirects {
				return HubError{Mode: mode, Topic: topic, Status: code}
			}
			m.logger.Info("hub redirected request", "mode", mode, "location", newHubLoc)
			hub = newHubLoc
			continue
		}

		return HubError{Mode: mode, Topic: topic, Status: code}
	}
}

func (m *Manager) send(ctx context.Context, hub, mode, topic string) (*http.Response, error) {
	data := make(url.Values)
	data.Set("hub.callback", m.callback)
	data.Set("hub.mode", mode)
	data.Set("hub.topic", topic)
	data.Set("hub.verify", "async")
	if mode == ModeSubscribe && m.secret != "" {
		data.Set("hub.secret", m.secret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hub, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return m.client.Do(req)
}

func (m *Manager) report(err error) {
	m.logger.Error("subscription request failed", "err", err)
	if m.onError != nil {
		m.onError(err)
	}
}
