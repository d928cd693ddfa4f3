// Package ratelimit provides a per-key fixed-window rate limiter used to
// throttle credential operations (signup, password reset) by email.
//
// The limiter fails fast and locally: a denied attempt never reaches the
// network. State is process-lifetime only; restarting the process resets
// all counters, which is an accepted limitation rather than a security
// control.
//
// # Usage
//
//	limiter, err := ratelimit.NewWindow(ratelimit.NewMemoryStore(), ratelimit.Config{
//	    MaxAttempts: 3,
//	    Window:      time.Minute,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := limiter.Allow(ctx, email)
//	if err == nil && !res.Allowed() {
//	    // reject with res.RetryAfter()
//	}
package ratelimit
