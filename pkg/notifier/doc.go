// Package notifier subscribes to YouTube channel feeds through the WebSub
// (PubSubHubbub) protocol and republishes hub pushes as typed events.
//
// A Notifier owns the callback endpoint the hub verifies against and
// delivers to. In standalone mode it runs its own HTTP server; in
// middleware mode it hands the caller a handler to mount wherever the
// public callback URL is served.
//
// # Handshake
//
// Subscribe records the channel as pending and asks the hub for its feed.
// The hub then verifies intent with a GET challenge against the callback
// endpoint; a challenge matching a pending subscription is echoed back and
// the subscription becomes active for the granted lease. Unsubscribe works
// the same way against active subscriptions. Challenges that match nothing
// are refused with a 404. Leases are finite: without renewal (see Renewer)
// a subscription lapses when its lease expires.
//
// # Deliveries
//
// The hub POSTs Atom documents to the callback endpoint. When a secret is
// configured, deliveries must carry a valid X-Hub-Signature over the raw
// body; failures are rejected with a 403 and never become events. Parsed
// entries pass through a fixed-size deduplication ledger, so the hub's
// at-least-once redeliveries collapse into at-most-one notification per
// video revision. Duplicate-only deliveries still get a 200, otherwise the
// hub would treat suppression as failure and retry.
//
// # Events
//
// Handlers registered with OnNotification, OnSubscribe, OnUnsubscribe and
// OnError run synchronously on the request path, in registration order.
// Slow handlers delay the hub's response.
//
// # Lifecycle
//
// Subscription state is memory-resident only. A restarted process starts
// empty and must subscribe again; hubs keep delivering to the old leases
// until those expire, and such deliveries are still verified, parsed and
// reported.
package notifier
