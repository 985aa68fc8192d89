//go:build linux

package uvw

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// epollPoller is the Linux reactor: epoll for readiness, an eventfd for
// cross-goroutine wakeups.
type epollPoller struct {
	epfd    int
	wakefd  int
	events  []unix.EpollEvent
	watches map[int]*pollWatch
}

type pollWatch struct {
	cb    pollCallback
	flags PollFlags
}

func newPoller(batch int) (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll create")
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, errors.Wrap(err, "eventfd create")
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, errors.Wrap(err, "epoll ctl add wakeup")
	}

	return &epollPoller{
		epfd:    epfd,
		wakefd:  wakefd,
		events:  make([]unix.EpollEvent, batch),
		watches: make(map[int]*pollWatch),
	}, nil
}

func epollEvents(flags PollFlags) uint32 {
	var ev uint32
	if flags.Has(PollReadable) {
		ev |= unix.EPOLLIN
	}
	if flags.Has(PollWritable) {
		ev |= unix.EPOLLOUT
	}
	if flags.Has(PollDisconnect) {
		ev |= unix.EPOLLRDHUP
	}
	return ev
}

// pollFlags maps reported epoll events back to PollFlags. Error and
// hangup conditions surface as the readiness the caller asked for, so
// the owner performs I/O and observes the real error.
func pollFlags(ev uint32, requested PollFlags) PollFlags {
	var f PollFlags
	if ev&unix.EPOLLIN != 0 {
		f |= PollReadable
	}
	if ev&unix.EPOLLOUT != 0 {
		f |= PollWritable
	}
	if ev&unix.EPOLLRDHUP != 0 {
		f |= PollDisconnect
	}
	if ev&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		f |= requested & (PollReadable | PollWritable)
	}
	return f
}

func (p *epollPoller) add(fd int, flags PollFlags, cb pollCallback) error {
	ev := unix.EpollEvent{Events: epollEvents(flags), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return errors.Wrap(err, "epoll ctl add")
	}
	p.watches[fd] = &pollWatch{cb: cb, flags: flags}
	return nil
}

func (p *epollPoller) modify(fd int, flags PollFlags) error {
	w, ok := p.watches[fd]
	if !ok {
		return errors.New("fd is not registered")
	}
	ev := unix.EpollEvent{Events: epollEvents(flags), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return errors.Wrap(err, "epoll ctl mod")
	}
	w.flags = flags
	return nil
}

func (p *epollPoller) remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return errors.Wrap(err, "epoll ctl del")
	}
	delete(p.watches, fd)
	return nil
}

func (p *epollPoller) wait(timeout time.Duration) error {
	ms := -1
	switch {
	case timeout == 0:
		ms = 0
	case timeout > 0:
		// Round sub-millisecond waits up so a due timer cannot turn the
		// poll into a busy spin.
		ms = int((timeout + time.Millisecond - 1) / time.Millisecond)
	}

	n, err := unix.EpollWait(p.epfd, p.events, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return errors.Wrap(err, "epoll wait")
	}

	for i := 0; i < n; i++ {
		ev := p.events[i]
		fd := int(ev.Fd)
		if fd == p.wakefd {
			p.drainWake()
			continue
		}
		w, ok := p.watches[fd]
		if !ok {
			continue
		}
		w.cb(pollFlags(ev.Events, w.flags))
	}
	return nil
}

func (p *epollPoller) wake() {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	// EAGAIN means the counter is saturated and a wakeup is pending
	// anyway; a failed write after close is equally harmless.
	_, _ = unix.Write(p.wakefd, buf[:])
}

func (p *epollPoller) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(p.wakefd, buf[:])
}

func (p *epollPoller) close() error {
	err := unix.Close(p.wakefd)
	if cerr := unix.Close(p.epfd); err == nil {
		err = cerr
	}
	return err
}
