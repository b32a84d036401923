package settle

import (
	"context"
	"time"

	"github.com/onecart/onecart/app/cart"
)

// Attempt runs one extraction pass and reports whether the result satisfies
// the caller's good-enough predicate.
type Attempt func() (cart.ProductRecord, bool)

// GoodEnough is the default predicate: price or image populated. Title alone
// is not enough because price/image nodes typically re-render after the add.
func GoodEnough(rec cart.ProductRecord) bool {
	return rec.Price != "" || rec.Img != ""
}

// Wait resolves a record against a page that may still be re-rendering. It
// attempts extraction immediately, then re-attempts on every update
// notification, and resolves with the first satisfying result. If the timeout
// elapses first it resolves with whatever was last extracted. Exactly one
// resolution on every path; the timer is always released.
func Wait(ctx context.Context, timeout time.Duration, updates <-chan struct{}, attempt Attempt) cart.ProductRecord {
	last, ok := attempt()
	if ok {
		return last
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case _, open := <-updates:
			if !open {
				return last
			}
			rec, ok := attempt()
			if rec.Title != "" || rec.Price != "" || rec.Img != "" {
				last = rec
			}
			if ok {
				return last
			}
		case <-timer.C:
			return last
		case <-ctx.Done():
			return last
		}
	}
}
