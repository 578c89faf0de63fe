// Package service implements the registration and attendance operations.
// Every operation takes the calling Actor explicitly; handlers for the
// /admin and /staff prefixes share the same methods.
package service

import (
	"context"
	"time"

	"github.com/agfi/registro-backend/internal/lock"
	"github.com/agfi/registro-backend/internal/queue"
)

// Notifier publishes check-in notifications after commit. Failures are
// logged and never reach the client.
type Notifier interface {
	PublishCheckIn(ctx context.Context, ev queue.CheckInRecordedEvent) error
}

// Options carries the tunables read from configuration.
type Options struct {
	BadgePrefix        string
	JWTSecret          string
	TokenTTL           time.Duration
	HashNewCredentials bool
	BcryptCost         int
}

// Service bundles the dependencies shared by all operations.
type Service struct {
	store    Store
	locker   lock.Locker
	notifier Notifier
	audit    *Auditor
	opts     Options
	now      func() time.Time
}

// New builds a Service. locker and notifier may be nil: a nil locker is
// replaced by an in-process one, a nil notifier disables notifications.
func New(store Store, locker lock.Locker, notifier Notifier, opts Options) *Service {
	if opts.BadgePrefix == "" {
		opts.BadgePrefix = DefaultBadgePrefix
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 8 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = 10
	}
	if locker == nil {
		locker = lock.NewLocalLocker(10 * time.Second)
	}
	return &Service{
		store:    store,
		locker:   locker,
		notifier: notifier,
		audit:    NewAuditor(store),
		opts:     opts,
		now:      wholeSeconds(time.Now),
	}
}

// SetClock replaces the time source. Tests use it to get stable timestamps.
func (s *Service) SetClock(now func() time.Time) { s.now = wholeSeconds(now) }

// wholeSeconds drops sub-second precision: DATETIME columns keep none, and
// a value returned before the write must match the one read back later.
func wholeSeconds(now func() time.Time) func() time.Time {
	return func() time.Time { return now().UTC().Truncate(time.Second) }
}

// BadgePrefix returns the configured badge prefix.
func (s *Service) BadgePrefix() string { return s.opts.BadgePrefix }

// Audit exposes the auditor so the transport layer can record actions that
// have no service operation of their own.
func (s *Service) Audit() *Auditor { return s.audit }
