package uvw

type (
	// Handle is the face every resource attached to a Loop presents to
	// it: lifecycle queries plus idempotent teardown. Concrete handles
	// add their own operations on top.
	Handle interface {
		// Active reports whether the handle currently keeps the loop
		// alive.
		Active() bool
		// Closing reports whether Close has been requested.
		Closing() bool
		// Close stops the handle, publishes a final CloseEvent at the
		// end of the current loop iteration and detaches it.
		Close()
	}
)

// Resource is the base every handle embeds: the loop it belongs to, the
// emitter it publishes through and its lifecycle state. The emitter is
// embedded, so listeners are registered directly against the handle:
//
//	t, _ := uvw.NewTimer(loop)
//	uvw.On(t.Emitter, func(evt *uvw.TimerEvent, t *uvw.TimerHandle) { ... })
//
// Like everything around the loop, resources must only be touched from
// the loop goroutine.
type Resource[T any] struct {
	*Emitter[T]

	loop     *Loop
	self     *T
	teardown func()
	active   bool
	closing  bool
}

// newResource binds a freshly allocated handle to its loop and gives it
// an emitter that shares the loop's registry.
func newResource[T any](l *Loop, self *T) Resource[T] {
	return Resource[T]{
		Emitter: NewEmitter(self, l.reg),
		loop:    l,
		self:    self,
	}
}

// Loop returns the loop the handle belongs to.
func (r *Resource[T]) Loop() *Loop {
	return r.loop
}

// Active reports whether the handle currently keeps the loop alive.
func (r *Resource[T]) Active() bool {
	return r.active
}

// Closing reports whether Close has been requested.
func (r *Resource[T]) Closing() bool {
	return r.closing
}

// Close stops the handle and schedules its finalization: at the end of
// the current loop iteration the handle publishes CloseEvent exactly
// once and detaches from the loop. Further calls are no-ops, and most
// other operations fail with ErrHandleClosed afterwards.
func (r *Resource[T]) Close() {
	if r.closing {
		return
	}
	r.closing = true
	if r.teardown != nil {
		r.teardown()
	}
	r.markActive(false)
	r.loop.scheduleClose(func() {
		Publish(r.Emitter, CloseEvent{})
		if h, ok := any(r.self).(Handle); ok {
			r.loop.detach(h)
		}
	})
}

// markActive flips the handle's liveness and keeps the loop's count of
// active handles in step.
func (r *Resource[T]) markActive(on bool) {
	if r.active == on {
		return
	}
	r.active = on
	if on {
		r.loop.activeHandles++
	} else {
		r.loop.activeHandles--
	}
}
