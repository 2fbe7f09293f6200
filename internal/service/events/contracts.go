//go:generate mockgen -source=contracts.go -destination=events_mocks_test.go -package=events_test

package events

import "context"

// StatsInvalidator drops cached aggregates that an event made stale.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}
