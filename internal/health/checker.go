// Package health aggregates dependency probes for GET /health and the gRPC
// health service.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status values reported per check and overall.
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// Check probes a single dependency.
type Check func(ctx context.Context) error

// Report is the result of one Checker run.
type Report struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	CheckedAt time.Time         `json:"checked_at"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool { return r.Status == StatusUp }

// Checker runs named checks concurrently under a shared timeout.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
	now     func() time.Time
}

// NewChecker returns an empty Checker. A non-positive timeout means 2s.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{checks: make(map[string]Check), timeout: timeout, now: time.Now}
}

// Register adds or replaces a check. Nil checks are ignored.
func (c *Checker) Register(name string, check Check) {
	if check == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names returns registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.checks))
	for n := range c.checks {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Run executes every check. With no checks registered the report is up.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for n, ch := range c.checks {
		checks[n] = ch
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	rep := Report{Status: StatusUp, Checks: make(map[string]string, len(checks)), CheckedAt: c.now().UTC()}
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			st := StatusUp
			if err := check(ctx); err != nil {
				st = StatusDown
			}
			mu.Lock()
			rep.Checks[name] = st
			if st == StatusDown {
				rep.Status = StatusDown
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	return rep
}
