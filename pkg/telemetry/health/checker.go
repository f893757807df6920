package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Status values used in CheckResult and HealthStatus.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
)

// CheckFunc reports whether a component can serve. A nil error is healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one CheckFunc.
type CheckResult struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ms,omitempty"`
}

// HealthStatus is the body of the /health and /ready endpoints.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ErrCheckTimeout is the failure recorded for a check that overruns.
var ErrCheckTimeout = errors.New("health check timeout")

// Checker holds named readiness checks.
type Checker struct {
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New returns a Checker that gives each check at most timeout to finish.
// Zero means 5 seconds.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{timeout: timeout, checks: map[string]CheckFunc{}}
}

// RegisterCheck adds or replaces the check called name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	c.checks[name] = check
	c.mu.Unlock()
}

// ListChecks returns the registered check names, sorted.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLiveness always reports ok: answering at all proves liveness.
func (c *Checker) CheckLiveness(context.Context) HealthStatus {
	return HealthStatus{Status: StatusOK, Timestamp: time.Now()}
}

// CheckReadiness runs every check in parallel and reports degraded if any
// of them fails.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	snapshot := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		snapshot[name] = check
	}
	c.mu.RUnlock()

	type named struct {
		name   string
		result CheckResult
	}
	out := make(chan named, len(snapshot))
	for name, check := range snapshot {
		go func() { out <- named{name, c.run(ctx, check)} }()
	}

	status := HealthStatus{Status: StatusReady, Checks: make(map[string]CheckResult, len(snapshot))}
	for range snapshot {
		n := <-out
		status.Checks[n.name] = n.result
		if n.result.Status == StatusUnhealthy {
			status.Status = StatusDegraded
		}
	}
	status.Timestamp = time.Now()
	return status
}

func (c *Checker) run(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}

	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: err.Error(), Duration: time.Since(start)}
	}
	return CheckResult{Status: StatusOK, Duration: time.Since(start)}
}
