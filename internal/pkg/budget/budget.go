// Package budget tracks the upstream-call allowance of one logical search
// operation. A Budget is never replenished and never shared across searches.
package budget

import "golang.org/x/time/rate"

// Budget is a fixed, concurrency-safe call allowance. It is backed by a rate
// limiter with zero refill rate, so the burst tokens it starts with are all
// it will ever grant.
type Budget struct {
	limiter *rate.Limiter
	limit   int
}

// New builds a Budget from the configured limit: negative means unlimited,
// zero disables upstream calls entirely, positive grants exactly that many.
func New(limit int) *Budget {
	if limit < 0 {
		return &Budget{limiter: rate.NewLimiter(rate.Inf, 0), limit: limit}
	}
	return &Budget{limiter: rate.NewLimiter(0, limit), limit: limit}
}

// TryConsume atomically takes one unit from the allowance and reports whether
// it was granted. Both successful and failed upstream calls consume a unit;
// the cost is the call itself, not its outcome.
func (b *Budget) TryConsume() bool {
	return b.limiter.Allow()
}

// Limit returns the configured limit the Budget was created with.
func (b *Budget) Limit() int {
	return b.limit
}
