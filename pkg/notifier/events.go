package notifier

import (
	"fmt"
	"time"

	"github.com/adamsanghera/go-ytnotify/pkg/feed"
)

// UpdateType names the two verified handshake outcomes.
type UpdateType string

const (
	// UpdateSubscribe reports a subscription the hub has verified.
	UpdateSubscribe UpdateType = "subscribe"
	// UpdateUnsubscribe reports an unsubscription the hub has verified.
	UpdateUnsubscribe UpdateType = "unsubscribe"
)

// Notification is one deduplicated video update delivered by the hub.
type Notification struct {
	Video     feed.Video
	Channel   feed.Channel
	Published time.Time
	Updated   time.Time
}

// SubscriptionUpdate reports a handshake the hub settled against the
// callback endpoint.
type SubscriptionUpdate struct {
	Type         UpdateType
	Channel      string
	LeaseSeconds int
}

// DeniedError is delivered through the error handlers when the hub denies
// or revokes a subscription.
type DeniedError struct {
	Channel string
	Reason  string
}

func (e DeniedError) Error() string {
	return fmt.Sprintf("notifier: hub denied subscription for {%s}: %s", e.Channel, e.Reason)
}

// OnNotification registers a handler for deduplicated video updates.
// Handlers run synchronously on the delivery path, in registration order.
func (n *Notifier) OnNotification(fn func(Notification)) {
	n.handlersMu.Lock()
	defer n.handlersMu.Unlock()
	n.onNotification = append(n.onNotification, fn)
}

// OnSubscribe registers a handler for verified subscriptions.
func (n *Notifier) OnSubscribe(fn func(SubscriptionUpdate)) {
	n.handlersMu.Lock()
	defer n.handlersMu.Unlock()
	n.onSubscribe = append(n.onSubscribe, fn)
}

// OnUnsubscribe registers a handler for verified unsubscriptions.
func (n *Notifier) OnUnsubscribe(fn func(SubscriptionUpdate)) {
	n.handlersMu.Lock()
	defer n.handlersMu.Unlock()
	n.onUnsubscribe = append(n.onUnsubscribe, fn)
}

// OnError registers a handler for parse failures, failed hub requests and
// hub denials. Verification refusals (403/404 responses) are not errors and
// never reach these handlers.
func (n *Notifier) OnError(fn func(error)) {
	n.handlersMu.Lock()
	defer n.handlersMu.Unlock()
	n.onError = append(n.onError, fn)
}

// Handlers are copied out under the read lock and invoked outside it, so a
// handler can register further handlers without deadlocking.

func (n *Notifier) emitNotification(notification Notification) {
	n.handlersMu.RLock()
	handlers := make([]func(Notification), len(n.onNotification))
	copy(handlers, n.onNotification)
	n.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(notification)
	}
}

func (n *Notifier) emitUpdate(update SubscriptionUpdate) {
	n.handlersMu.RLock()
	var handlers []func(SubscriptionUpdate)
	switch update.Type {
	case UpdateSubscribe:
		handlers = append(handlers, n.onSubscribe...)
	case UpdateUnsubscribe:
		handlers = append(handlers, n.onUnsubscribe...)
	}
	n.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(update)
	}
}

func (n *Notifier) emitError(err error) {
	n.handlersMu.RLock()
	handlers := make([]func(error), len(n.onError))
	copy(handlers, n.onError)
	n.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(err)
	}
}
