package uvw

import (
	"container/heap"
	"time"
)

// TimerHandle publishes TimerEvent when its timeout elapses and, with a
// nonzero repeat, again on every repeat interval after that. Deadlines
// are measured against the loop's cached time.
type TimerHandle struct {
	Resource[TimerHandle]

	timeout  time.Duration
	repeat   time.Duration
	deadline time.Time
	seq      uint64
	heapIdx  int
}

// NewTimer creates an inert timer attached to l. Arm it with Start.
func NewTimer(l *Loop) (*TimerHandle, error) {
	if l.isClosed() {
		return nil, ErrLoopClosed
	}
	t := &TimerHandle{heapIdx: -1}
	t.Resource = newResource(l, t)
	t.teardown = t.dequeue
	l.attach(t)
	return t, nil
}

// Start arms the timer to fire once timeout from now and then, when
// repeat is nonzero, every repeat after each fire. Starting an armed
// timer rearms it.
func (t *TimerHandle) Start(timeout, repeat time.Duration) error {
	if t.closing {
		return ErrHandleClosed
	}
	if timeout < 0 {
		timeout = 0
	}
	t.dequeue()
	t.timeout = timeout
	t.repeat = repeat
	t.deadline = t.loop.now.Add(timeout)
	t.seq = t.loop.nextTimerSeq()
	heap.Push(&t.loop.timers, t)
	t.markActive(true)
	return nil
}

// Stop disarms the timer without closing it.
func (t *TimerHandle) Stop() error {
	if t.closing {
		return ErrHandleClosed
	}
	t.dequeue()
	t.markActive(false)
	return nil
}

// Again rearms the timer using the repeat interval as its timeout. It
// fails with ErrNoRepeat for non-repeating timers.
func (t *TimerHandle) Again() error {
	if t.closing {
		return ErrHandleClosed
	}
	if t.repeat == 0 {
		return ErrNoRepeat
	}
	return t.Start(t.repeat, t.repeat)
}

// Repeat returns the repeat interval.
func (t *TimerHandle) Repeat() time.Duration {
	return t.repeat
}

// SetRepeat changes the repeat interval. An armed timer keeps its
// current deadline; the new interval applies from the next rearm on.
func (t *TimerHandle) SetRepeat(repeat time.Duration) {
	t.repeat = repeat
}

func (t *TimerHandle) dequeue() {
	if t.heapIdx >= 0 {
		heap.Remove(&t.loop.timers, t.heapIdx)
	}
}

// timerHeap orders armed timers by deadline; the sequence number breaks
// ties so simultaneous timers fire in arming order.
type timerHeap []*TimerHandle

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*TimerHandle)
	t.heapIdx = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIdx = -1
	*h = old[:n-1]
	return t
}
