// Package services implements the business logic of the badge engine: the
// evaluator that turns progress snapshots into unlock records, and the
// progress apply/read operations consumed by the HTTP layer. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrStoreUnavailable indicates that a progress or ledger read failed.
	// The evaluator fails closed on this: no unlock attempts are made for
	// the cycle, and the caller (normally the poller) simply retries on its
	// next tick.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrBadgeNotFound indicates an unknown badge id. The catalog is fixed
	// at deploy time, so hitting this in production means a caller bug.
	ErrBadgeNotFound = errors.New("badge not found")

	// ErrInvalidDelta is returned when a progress delta would decrease a
	// counter. Counters are monotonically non-decreasing; the whole engine
	// leans on that.
	ErrInvalidDelta = errors.New("progress counters cannot decrease")
)
