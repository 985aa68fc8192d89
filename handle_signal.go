package uvw

import (
	"os"
	"os/signal"
)

// SignalHandle subscribes to an OS signal and republishes deliveries on
// the loop as SignalEvent. Delivery is marshaled through Post, so the
// listeners run on the loop goroutine like everybody else's.
type SignalHandle struct {
	Resource[SignalHandle]

	sig  os.Signal
	ch   chan os.Signal
	quit chan struct{}
}

// NewSignal creates a signal handle attached to l. Subscribe with
// Start.
func NewSignal(l *Loop) (*SignalHandle, error) {
	if l.isClosed() {
		return nil, ErrLoopClosed
	}
	h := &SignalHandle{}
	h.Resource = newResource(l, h)
	h.teardown = h.unsubscribe
	l.attach(h)
	return h, nil
}

// Start subscribes the handle to sig, replacing any previous
// subscription. Deliveries while the subscription is active coalesce
// the way os/signal coalesces them.
func (h *SignalHandle) Start(sig os.Signal) error {
	if h.closing {
		return ErrHandleClosed
	}
	h.unsubscribe()

	h.sig = sig
	h.ch = make(chan os.Signal, 1)
	h.quit = make(chan struct{})
	signal.Notify(h.ch, sig)
	go h.forward(h.ch, h.quit)

	h.markActive(true)
	return nil
}

// Stop unsubscribes without closing the handle.
func (h *SignalHandle) Stop() error {
	if h.closing {
		return ErrHandleClosed
	}
	h.unsubscribe()
	h.markActive(false)
	return nil
}

// Signal returns the signal of the current subscription.
func (h *SignalHandle) Signal() os.Signal {
	return h.sig
}

func (h *SignalHandle) unsubscribe() {
	if h.ch == nil {
		return
	}
	signal.Stop(h.ch)
	close(h.quit)
	h.ch = nil
	h.quit = nil
}

// forward pumps deliveries to the loop until the subscription is torn
// down. The posted publish re-checks the handle state: it may have been
// stopped or resubscribed between delivery and the loop picking the
// work up.
func (h *SignalHandle) forward(ch chan os.Signal, quit chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case sig := <-ch:
			h.loop.Post(func() {
				if h.closing || h.ch != ch {
					return
				}
				Publish(h.Emitter, SignalEvent{Sig: sig})
			})
		}
	}
}
