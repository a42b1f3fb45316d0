package subscription

import (
	"context"
	"time"
)

// Default renewal cadence.
const (
	DefaultRenewInterval = time.Minute
	DefaultRenewHeadroom = 10 * time.Minute
)

// RenewerConfig tunes how eagerly leases are refreshed.
type RenewerConfig struct {
	Interval time.Duration // how often leases are inspected
	Headroom time.Duration // renew once a lease expires within this window
}

// Renewer keeps active subscriptions from lapsing by re-subscribing before
// their lease runs out. The manager itself never schedules anything, so
// running a Renewer is the caller's choice.
type Renewer struct {
	manager  *Manager
	interval time.Duration
	headroom time.Duration
}

// NewRenewer returns a renewer over m. Zero config fields fall back to the
// package defaults.
func NewRenewer(m *Manager, cfg RenewerConfig) *Renewer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRenewInterval
	}
	if cfg.Headroom <= 0 {
		cfg.Headroom = DefaultRenewHeadroom
	}
	return &Renewer{
		manager:  m,
		interval: cfg.Interval,
		headroom: cfg.Headroom,
	}
}

// Run inspects leases until ctx is done, re-subscribing any channel whose
// lease expires within the configured headroom.
func (r *Renewer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.renewDue(ctx)
		}
	}
}

func (r *Renewer) renewDue(ctx context.Context) {
	active, err := r.manager.Active(ctx)
	if err != nil {
		r.manager.report(err)
		return
	}

	cutoff := time.Now().Add(r.headroom)
	for _, rec := range active {
		if rec.LeaseExpiresAt.After(cutoff) {
			continue
		}
		r.manager.logger.Info("renewing subscription lease",
			"channel", rec.Channel, "lease_expires_at", rec.LeaseExpiresAt)
		r.manager.Subscribe(ctx, rec.Channel)
	}
}
