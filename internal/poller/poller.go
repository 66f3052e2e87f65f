// Package poller implements the per-session background trigger that drives
// badge evaluation. Each client session owns one Poller; it fires an
// immediate evaluation on start and then re-evaluates on a fixed interval
// until the session ends.
//
// Scheduling is delegated to gocron with singleton mode as the single-flight
// guard: when an evaluation is still in flight at the next tick, that tick is
// skipped rather than queued, bounding in-flight evaluations per session to
// one. Correctness never depends on this bound (the ledger absorbs races);
// it only avoids pointless stacked work when the store is slow.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/menucraft/go-badge-backend/internal/domain"
	"github.com/menucraft/go-badge-backend/internal/notify"
)

// DefaultInterval is the evaluation period for a session.
const DefaultInterval = 30 * time.Second

// CheckFunc evaluates a user's badges and returns the newly unlocked ones.
// In production this is BadgeService.CheckBadges.
type CheckFunc func(ctx context.Context, userID string) ([]domain.UnlockedBadge, error)

// Poller periodically evaluates one user's badges and forwards new unlocks
// to the session's notification relay.
type Poller struct {
	userID   string
	interval time.Duration
	check    CheckFunc
	relay    *notify.Relay

	sched   gocron.Scheduler
	stopped atomic.Bool
	lg      zerolog.Logger
}

// New constructs a poller for one session. A non-positive interval falls
// back to DefaultInterval. Call Start to begin evaluating.
func New(userID string, interval time.Duration, check CheckFunc, relay *notify.Relay) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		userID:   userID,
		interval: interval,
		check:    check,
		relay:    relay,
		lg:       log.With().Str("component", "poller").Str("user_id", userID).Logger(),
	}
}

// Start schedules the evaluation job: one immediate run, then one per
// interval for the life of the session.
func (p *Poller) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(p.run),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}
	p.sched = sched
	sched.Start()
	return nil
}

// Stop cancels the timer. An evaluation already in flight is allowed to
// complete, but its result is discarded rather than forwarded; any unlocks it
// recorded stay in the ledger and simply never raise a toast in this session.
func (p *Poller) Stop() {
	p.stopped.Store(true)
	if p.sched != nil {
		if err := p.sched.Shutdown(); err != nil {
			p.lg.Warn().Err(err).Msg("scheduler shutdown")
		}
	}
}

// run executes one evaluation cycle. A failed cycle is not an error surface:
// the next tick retries naturally, and a missed cycle is indistinguishable
// from "nothing new yet".
func (p *Poller) run() {
	newly, err := p.check(context.Background(), p.userID)
	if err != nil {
		p.lg.Warn().Err(err).Msg("badge evaluation failed; retrying next tick")
		return
	}
	if p.stopped.Load() {
		return
	}
	for _, b := range newly {
		p.relay.Add(b.Badge)
	}
	if len(newly) > 0 {
		p.lg.Info().Int("count", len(newly)).Msg("new badges unlocked")
	}
}
