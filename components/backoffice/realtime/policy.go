package realtime

import "time"

// RetryPolicy controls reconnect scheduling after an abnormal closure. The
// zero value disables reconnects entirely (fire-and-forget channels).
type RetryPolicy struct {
	// Delay before the first reconnect attempt. Zero disables the policy.
	Delay time.Duration
	// MaxAttempts bounds consecutive attempts; zero means unbounded.
	MaxAttempts int
	// Backoff multiplies the delay per consecutive attempt when > 1.
	Backoff float64
}

// Enabled reports whether the policy schedules reconnects at all.
func (p RetryPolicy) Enabled() bool { return p.Delay > 0 }

// NextDelay returns the delay for the given zero-based attempt, or false
// when the policy is exhausted or disabled.
func (p RetryPolicy) NextDelay(attempt int) (time.Duration, bool) {
	if !p.Enabled() {
		return 0, false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		return 0, false
	}
	d := p.Delay
	if p.Backoff > 1 {
		for i := 0; i < attempt; i++ {
			d = time.Duration(float64(d) * p.Backoff)
		}
	}
	return d, true
}

// FixedRetry is the steady fixed-delay policy both dashboard channels use:
// no attempt bound, no backoff growth.
func FixedRetry(delay time.Duration) RetryPolicy {
	return RetryPolicy{Delay: delay}
}
