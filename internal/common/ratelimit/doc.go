// Package ratelimit provides rate limiting with a local (in-memory) backend and
// a distributed (Redis-backed) backend behind one Limiter interface.
//
// The local backend is built on golang.org/x/time/rate and also paces outbound
// calls to the card image API:
//
//	limiter, _ := ratelimit.NewLocalLimiter(ratelimit.IntervalConfig(110 * time.Millisecond))
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
//
// Inbound API requests are limited per client IP through HTTPMiddleware:
//
//	limiter, _ := ratelimit.New(ratelimit.DefaultConfig())
//	router.Use(ratelimit.HTTPMiddleware(limiter, ratelimit.IPKey))
//
// The distributed backend counts requests in a Redis sorted-set sliding window
// so several instances share one budget. It admits requests when Redis is
// unreachable.
//
// All limiters are safe for concurrent use.
package ratelimit
