package uvw

import (
	"time"

	"github.com/eapache/queue"
)

// fakePoller lets tests drive the poll phase by hand. Unset funcs
// default to doing nothing.
type fakePoller struct {
	AddFunc    func(fd int, flags PollFlags, cb pollCallback) error
	ModifyFunc func(fd int, flags PollFlags) error
	RemoveFunc func(fd int) error
	WaitFunc   func(timeout time.Duration) error
	WakeFunc   func()
	CloseFunc  func() error
}

func (p *fakePoller) add(fd int, flags PollFlags, cb pollCallback) error {
	if p.AddFunc != nil {
		return p.AddFunc(fd, flags, cb)
	}
	return nil
}

func (p *fakePoller) modify(fd int, flags PollFlags) error {
	if p.ModifyFunc != nil {
		return p.ModifyFunc(fd, flags)
	}
	return nil
}

func (p *fakePoller) remove(fd int) error {
	if p.RemoveFunc != nil {
		return p.RemoveFunc(fd)
	}
	return nil
}

func (p *fakePoller) wait(timeout time.Duration) error {
	if p.WaitFunc != nil {
		return p.WaitFunc(timeout)
	}
	return nil
}

func (p *fakePoller) wake() {
	if p.WakeFunc != nil {
		p.WakeFunc()
	}
}

func (p *fakePoller) close() error {
	if p.CloseFunc != nil {
		return p.CloseFunc()
	}
	return nil
}

// newTestLoop builds a loop on the given poller so tests control the
// poll phase directly.
func newTestLoop(p poller, opts ...LoopOption) *Loop {
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
	l.poller = p
	return l
}
