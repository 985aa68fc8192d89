package uvw

type (
	// IdleHandle publishes IdleEvent on every iteration while started.
	// An active idle handle keeps the poller from blocking, so the loop
	// spins; use it for deferred work that must not starve I/O.
	IdleHandle struct {
		Resource[IdleHandle]
	}

	// PrepareHandle publishes PrepareEvent right before each poll.
	PrepareHandle struct {
		Resource[PrepareHandle]
	}

	// CheckHandle publishes CheckEvent right after each poll.
	CheckHandle struct {
		Resource[CheckHandle]
	}
)

// NewIdle creates an idle handle attached to l. Start it to receive
// events.
func NewIdle(l *Loop) (*IdleHandle, error) {
	if l.isClosed() {
		return nil, ErrLoopClosed
	}
	h := &IdleHandle{}
	h.Resource = newResource(l, h)
	h.teardown = func() { h.loop.idles = without(h.loop.idles, h) }
	l.attach(h)
	return h, nil
}

// Start enrolls the handle in the idle phase. Handles fire in the order
// they were started; starting an already started handle is a no-op.
func (h *IdleHandle) Start() error {
	if h.closing {
		return ErrHandleClosed
	}
	if h.active {
		return nil
	}
	h.loop.idles = append(h.loop.idles, h)
	h.markActive(true)
	return nil
}

// Stop withdraws the handle from the idle phase without closing it.
func (h *IdleHandle) Stop() error {
	if h.closing {
		return ErrHandleClosed
	}
	if !h.active {
		return nil
	}
	h.loop.idles = without(h.loop.idles, h)
	h.markActive(false)
	return nil
}

// NewPrepare creates a prepare handle attached to l.
func NewPrepare(l *Loop) (*PrepareHandle, error) {
	if l.isClosed() {
		return nil, ErrLoopClosed
	}
	h := &PrepareHandle{}
	h.Resource = newResource(l, h)
	h.teardown = func() { h.loop.prepares = without(h.loop.prepares, h) }
	l.attach(h)
	return h, nil
}

func (h *PrepareHandle) Start() error {
	if h.closing {
		return ErrHandleClosed
	}
	if h.active {
		return nil
	}
	h.loop.prepares = append(h.loop.prepares, h)
	h.markActive(true)
	return nil
}

func (h *PrepareHandle) Stop() error {
	if h.closing {
		return ErrHandleClosed
	}
	if !h.active {
		return nil
	}
	h.loop.prepares = without(h.loop.prepares, h)
	h.markActive(false)
	return nil
}

// NewCheck creates a check handle attached to l.
func NewCheck(l *Loop) (*CheckHandle, error) {
	if l.isClosed() {
		return nil, ErrLoopClosed
	}
	h := &CheckHandle{}
	h.Resource = newResource(l, h)
	h.teardown = func() { h.loop.checks = without(h.loop.checks, h) }
	l.attach(h)
	return h, nil
}

func (h *CheckHandle) Start() error {
	if h.closing {
		return ErrHandleClosed
	}
	if h.active {
		return nil
	}
	h.loop.checks = append(h.loop.checks, h)
	h.markActive(true)
	return nil
}

func (h *CheckHandle) Stop() error {
	if h.closing {
		return ErrHandleClosed
	}
	if !h.active {
		return nil
	}
	h.loop.checks = without(h.loop.checks, h)
	h.markActive(false)
	return nil
}
