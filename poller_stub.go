//go:build !linux

package uvw

import "time"

// stubPoller keeps timers, posted work and channel-fed handles working
// on platforms without a native reactor. Descriptor polling is not
// available; PollHandle operations report ErrUnsupported.
type stubPoller struct {
	wakeCh chan struct{}
}

func newPoller(int) (poller, error) {
	return &stubPoller{wakeCh: make(chan struct{}, 1)}, nil
}

func (p *stubPoller) add(int, PollFlags, pollCallback) error { return ErrUnsupported }

func (p *stubPoller) modify(int, PollFlags) error { return ErrUnsupported }

func (p *stubPoller) remove(int) error { return ErrUnsupported }

func (p *stubPoller) wait(timeout time.Duration) error {
	switch {
	case timeout == 0:
		select {
		case <-p.wakeCh:
		default:
		}
	case timeout < 0:
		<-p.wakeCh
	default:
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case <-p.wakeCh:
		case <-t.C:
		}
	}
	return nil
}

func (p *stubPoller) wake() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

func (p *stubPoller) close() error { return nil }
