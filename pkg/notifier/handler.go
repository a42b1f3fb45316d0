package notifier

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/adamsanghera/go-ytnotify/pkg/feed"
	"github.com/adamsanghera/go-ytnotify/pkg/signature"
	"github.com/adamsanghera/go-ytnotify/pkg/subscription"
)

// callback is the branching point between hub verification requests and
// notification deliveries.
func (n *Notifier) callback(w http.ResponseWriter, req *http.Request) {
	logger := n.logger.With("req", uuid.New().String())

	switch req.Method {
	case http.MethodGet:
		n.handleVerification(logger, w, req)
	case http.MethodPost:
		n.handleDelivery(logger, w, req)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleVerification settles hub.mode challenges. Refusals surface to the
// hub as status codes only; they are never events.
func (n *Notifier) handleVerification(logger *slog.Logger, w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	mode := query.Get("hub.mode")
	topic := query.Get("hub.topic")

	if mode == "" || topic == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if mode == subscription.ModeDenied {
		reason := query.Get("hub.reason")
		if err := n.manager.Deny(req.Context(), topic, reason); err != nil {
			logger.Warn("rejecting denial", "topic", topic, "err", err)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)

		channel, _ := subscription.ChannelFromTopic(topic)
		n.emitError(DeniedError{Channel: channel, Reason: reason})
		return
	}

	if mode != subscription.ModeSubscribe && mode != subscription.ModeUnsubscribe {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	challenge := query.Get("hub.challenge")
	if challenge == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	leaseSeconds := 0
	if raw := query.Get("hub.lease_seconds"); raw != "" {
		var err error
		if leaseSeconds, err = strconv.Atoi(raw); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	echo, err := n.manager.ConfirmChallenge(req.Context(), mode, topic, challenge, leaseSeconds)
	if err != nil {
		logger.Warn("rejecting challenge", "mode", mode, "topic", topic, "err", err)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// Parrot the challenge back, byte for byte
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(echo))

	channel, _ := subscription.ChannelFromTopic(topic)
	n.emitUpdate(SubscriptionUpdate{
		Type:         UpdateType(mode),
		Channel:      channel,
		LeaseSeconds: leaseSeconds,
	})
}

// handleDelivery authenticates, parses and deduplicates a notification
// body, then reports the new entries. The hub gets a 200 even when every
// entry was a redelivery, so suppression is not mistaken for failure.
func (n *Notifier) handleDelivery(logger *slog.Logger, w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if n.verifier != nil {
		if err := n.verifier.Verify(body, req.Header.Get(signature.Header)); err != nil {
			logger.Warn("rejecting delivery", "err", err)
			w.WriteHeader(http.StatusForbidden)
			return
		}
	}

	entries, err := feed.Parse(body)
	if err != nil {
		logger.Warn("unparseable delivery", "err", err)
		w.WriteHeader(http.StatusBadRequest)
		n.emitError(err)
		return
	}

	fresh := 0
	for _, entry := range entries {
		if !n.ledger.Record(dedupKey(entry)) {
			continue
		}
		fresh++
		n.emitNotification(Notification{
			Video:     entry.Video,
			Channel:   entry.Channel,
			Published: entry.Published,
			Updated:   entry.Updated,
		})
	}

	logger.Info("delivery processed", "entries", len(entries), "new", fresh)
	w.WriteHeader(http.StatusOK)
}

// dedupKey identifies one revision of one video, so an edited video
// notifies again while plain redeliveries stay suppressed.
func dedupKey(e feed.Entry) string {
	return e.Video.ID + "\n" + e.Updated.UTC().Format(time.RFC3339)
}
