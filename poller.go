package uvw

import "time"

// pollCallback is invoked by the poller, on the loop goroutine, with the
// readiness observed on a registered descriptor.
type pollCallback func(flags PollFlags)

// poller is the platform reactor the loop blocks in. Except for wake,
// which any goroutine may call, a poller belongs to the loop goroutine.
type poller interface {
	// add registers fd for the given readiness interest.
	add(fd int, flags PollFlags, cb pollCallback) error

	// modify replaces the readiness interest of an fd added before.
	modify(fd int, flags PollFlags) error

	// remove drops an fd from the watch set.
	remove(fd int) error

	// wait blocks up to timeout for readiness and dispatches the
	// callbacks of every ready descriptor. A negative timeout blocks
	// until woken, a zero timeout only collects what is already pending.
	wait(timeout time.Duration) error

	// wake unblocks a concurrent wait. Safe to call from any goroutine.
	wake()

	// close releases the poller's resources.
	close() error
}
