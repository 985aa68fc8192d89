package uvw

import (
	"container/heap"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
)

const defaultPollBatch = 128

// Loop is the cooperative event loop every handle is attached to. One
// goroutine drives it; handles publish their events from inside its
// iterations, and no listener ever runs anywhere else.
//
// The loop is itself an emitter: it publishes ErrorEvent when the
// platform poller fails.
//
// Except for Post, which is safe from any goroutine, a Loop and its
// handles must only be used from the goroutine that runs it.
type Loop struct {
	*Emitter[Loop]

	logger Logger
	reg    *Registry
	poller poller

	inboxMu sync.Mutex
	inbox   *queue.Queue
	closed  bool

	handles       map[Handle]struct{}
	activeHandles int

	timers   timerHeap
	timerSeq uint64

	prepares []*PrepareHandle
	checks   []*CheckHandle
	idles    []*IdleHandle

	pendingClose []func()

	now       time.Time
	stopFlag  bool
	pollBatch int
}

// NewLoop creates a loop together with its platform poller and a fresh
// event type registry shared by every handle attached to it.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	l := &Loop{
		logger:    noopLogger{},
		reg:       NewRegistry(),
		inbox:     queue.New(),
		handles:   make(map[Handle]struct{}),
		now:       time.Now(),
		pollBatch: defaultPollBatch,
	}
	l.Emitter = NewEmitter(l, l.reg)

	for _, opt := range opts {
		opt(l)
	}

	p, err := newPoller(l.pollBatch)
	if err != nil {
		return nil, errors.Wrap(err, "create poller")
	}
	l.poller = p

	return l, nil
}

// Registry returns the event type registry shared by the loop and its
// handles.
func (l *Loop) Registry() *Registry {
	return l.reg
}

// Now returns the loop's cached time. It is refreshed at the start of
// every iteration and again after the poller returns, and is the time
// base timers are armed against.
func (l *Loop) Now() time.Time {
	return l.now
}

// Alive reports whether anything keeps the loop running: active
// handles, handles awaiting close finalization, or posted work.
func (l *Loop) Alive() bool {
	return l.activeHandles > 0 || len(l.pendingClose) > 0 || l.postedLen() > 0
}

// Run iterates the loop until Stop is called or nothing keeps it alive.
func (l *Loop) Run() error {
	if l.isClosed() {
		return ErrLoopClosed
	}
	defer func() { l.stopFlag = false }()

	for l.Alive() && !l.stopFlag {
		if _, err := l.iterate(false); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce performs a single iteration, blocking in the poller if there
// is nothing due yet. It reports whether anything keeps the loop alive.
func (l *Loop) RunOnce() (bool, error) {
	if l.isClosed() {
		return false, ErrLoopClosed
	}
	return l.iterate(false)
}

// RunNoWait performs a single iteration without blocking in the poller.
// It reports whether anything keeps the loop alive.
func (l *Loop) RunNoWait() (bool, error) {
	if l.isClosed() {
		return false, ErrLoopClosed
	}
	return l.iterate(true)
}

// Stop makes the running Run return once the current iteration
// completes. Call it from the loop goroutine, usually a listener, or
// marshal it there with Post.
func (l *Loop) Stop() {
	l.stopFlag = true
}

// Post hands fn to the loop goroutine and wakes the poller if it is
// blocked. Posted functions run in FIFO order early in an iteration.
// This is the only operation that is safe to call from any goroutine;
// after Close, posted functions are dropped.
func (l *Loop) Post(fn func()) {
	l.inboxMu.Lock()
	if l.closed {
		l.inboxMu.Unlock()
		l.logger.Debugln("posted work dropped, loop is closed")
		return
	}
	l.inbox.Add(fn)
	l.inboxMu.Unlock()
	l.poller.wake()
}

// Close closes every handle still attached, runs their close
// finalization and releases the poller. Pending posted work is dropped.
// The loop is unusable afterwards.
func (l *Loop) Close() error {
	if l.isClosed() {
		return ErrLoopClosed
	}

	for _, h := range l.liveHandles() {
		if !h.Closing() {
			h.Close()
		}
	}
	for len(l.pendingClose) > 0 {
		l.runClosing()
	}

	l.inboxMu.Lock()
	l.closed = true
	l.inbox = queue.New()
	l.inboxMu.Unlock()

	return l.poller.close()
}

// iterate runs one loop iteration: due timers, posted work, prepare
// handles, the poller, check handles, idle handles and finally close
// finalization.
func (l *Loop) iterate(noWait bool) (bool, error) {
	l.now = time.Now()

	l.runTimers()
	l.runPosted()
	l.runPrepares()

	err := l.poller.wait(l.pollTimeout(noWait))
	l.now = time.Now()
	if err != nil {
		err = errors.Wrap(err, "poll")
		l.logger.Errorf("poller failed: %s", err)
		Publish(l.Emitter, ErrorEvent{Err: err})
	}

	l.runChecks()
	l.runIdles()
	l.runClosing()

	return l.Alive(), err
}

// pollTimeout decides how long the poller may block this iteration:
// not at all when there is work ready or an active idle handle, until
// the next timer is due, or indefinitely when only a wakeup can bring
// new work.
func (l *Loop) pollTimeout(noWait bool) time.Duration {
	switch {
	case noWait, l.stopFlag:
		return 0
	case len(l.idles) > 0, len(l.pendingClose) > 0, l.postedLen() > 0:
		return 0
	case len(l.timers) > 0:
		d := l.timers[0].deadline.Sub(l.now)
		if d < 0 {
			return 0
		}
		return d
	case !l.Alive():
		return 0
	}
	return -1
}

func (l *Loop) runTimers() {
	for len(l.timers) > 0 {
		t := l.timers[0]
		if t.deadline.After(l.now) {
			break
		}
		heap.Pop(&l.timers)
		if t.repeat > 0 {
			// Rearm relative to the fire time before the listeners run,
			// so they observe the timer as already scheduled again.
			t.deadline = l.now.Add(t.repeat)
			t.seq = l.nextTimerSeq()
			heap.Push(&l.timers, t)
		} else {
			t.markActive(false)
		}
		Publish(t.Emitter, TimerEvent{})
	}
}

func (l *Loop) runPosted() {
	l.inboxMu.Lock()
	n := l.inbox.Length()
	l.inboxMu.Unlock()

	// Only what was queued when the iteration reached this phase runs
	// now; work posted by the functions themselves waits for the next
	// iteration.
	for i := 0; i < n; i++ {
		l.inboxMu.Lock()
		fn := l.inbox.Remove().(func())
		l.inboxMu.Unlock()
		fn()
	}
}

// The phase runners iterate the slice header they capture, so handles
// started from inside a callback run from the next iteration on, and
// stopped ones are skipped by their active flag.

func (l *Loop) runPrepares() {
	for _, h := range l.prepares {
		if h.active {
			Publish(h.Emitter, PrepareEvent{})
		}
	}
}

func (l *Loop) runChecks() {
	for _, h := range l.checks {
		if h.active {
			Publish(h.Emitter, CheckEvent{})
		}
	}
}

func (l *Loop) runIdles() {
	for _, h := range l.idles {
		if h.active {
			Publish(h.Emitter, IdleEvent{})
		}
	}
}

func (l *Loop) runClosing() {
	n := len(l.pendingClose)
	if n == 0 {
		return
	}
	run := l.pendingClose[:n]
	for _, fn := range run {
		fn()
	}
	// Finalizers may have closed further handles; keep those for the
	// next round.
	l.pendingClose = l.pendingClose[n:]
}

func (l *Loop) postedLen() int {
	l.inboxMu.Lock()
	defer l.inboxMu.Unlock()
	return l.inbox.Length()
}

func (l *Loop) isClosed() bool {
	l.inboxMu.Lock()
	defer l.inboxMu.Unlock()
	return l.closed
}

func (l *Loop) nextTimerSeq() uint64 {
	l.timerSeq++
	return l.timerSeq
}

func (l *Loop) attach(h Handle) {
	l.handles[h] = struct{}{}
}

func (l *Loop) detach(h Handle) {
	delete(l.handles, h)
}

func (l *Loop) scheduleClose(fn func()) {
	l.pendingClose = append(l.pendingClose, fn)
}

func (l *Loop) liveHandles() []Handle {
	out := make([]Handle, 0, len(l.handles))
	for h := range l.handles {
		out = append(out, h)
	}
	return out
}

// without returns a copy of s with x removed. The phase runners
// iterate captured slice headers, so removal must build a fresh slice
// rather than shift elements in place.
func without[T comparable](s []T, x T) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}
