// Package loop provides the single owning goroutine that all live state is
// mutated on. Backend I/O is pushed off the loop with Go and its results are
// posted back with Post.
package loop

import (
	"time"
)

// Timer is a cancellable delayed callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Loop is the scheduling surface used by the core.
//
// Post and After callbacks always run on the owning goroutine, one at a
// time. Go runs blocking work elsewhere; it must not touch loop-owned state
// directly and should Post its result instead.
type Loop interface {
	Post(fn func())
	After(d time.Duration, fn func()) Timer
	Go(fn func())
	Now() time.Time
}
