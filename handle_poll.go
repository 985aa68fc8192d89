package uvw

import "github.com/pkg/errors"

// PollHandle watches a caller-owned file descriptor and publishes
// PollEvent when it becomes ready. The descriptor stays owned by the
// caller; closing the handle does not close it.
//
// Descriptor polling needs the platform poller, so on platforms without
// one Start fails with ErrUnsupported.
type PollHandle struct {
	Resource[PollHandle]

	fd      int
	watched bool
}

// NewPoll creates a poll handle for fd attached to l.
func NewPoll(l *Loop, fd int) (*PollHandle, error) {
	if l.isClosed() {
		return nil, ErrLoopClosed
	}
	h := &PollHandle{fd: fd}
	h.Resource = newResource(l, h)
	h.teardown = func() {
		if !h.watched {
			return
		}
		if err := h.loop.poller.remove(h.fd); err != nil {
			h.loop.logger.WithField("fd", h.fd).Errorf("deregister poll: %s", err)
		}
		h.watched = false
	}
	l.attach(h)
	return h, nil
}

// Start registers interest in flags, replacing any previous interest.
func (h *PollHandle) Start(flags PollFlags) error {
	if h.closing {
		return ErrHandleClosed
	}
	var err error
	if h.watched {
		err = h.loop.poller.modify(h.fd, flags)
	} else if err = h.loop.poller.add(h.fd, flags, h.onReady); err == nil {
		h.watched = true
	}
	if err != nil {
		return errors.Wrapf(err, "poll fd %d", h.fd)
	}
	h.markActive(true)
	return nil
}

// Stop deregisters the descriptor without closing the handle.
func (h *PollHandle) Stop() error {
	if h.closing {
		return ErrHandleClosed
	}
	if h.watched {
		if err := h.loop.poller.remove(h.fd); err != nil {
			return errors.Wrapf(err, "unpoll fd %d", h.fd)
		}
		h.watched = false
	}
	h.markActive(false)
	return nil
}

// Fd returns the watched descriptor.
func (h *PollHandle) Fd() int {
	return h.fd
}

func (h *PollHandle) onReady(flags PollFlags) {
	if h.closing {
		return
	}
	Publish(h.Emitter, PollEvent{Flags: flags})
}
