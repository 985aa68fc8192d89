// Package uvw is a single-threaded, event-driven I/O toolkit built
// around a typed publish/subscribe emitter.
//
// Everything in uvw is an event emitter. The Loop and every handle
// (timers, loop-phase watchers, file descriptor pollers, signal and
// filesystem watchers, WebSocket connections) publish typed event
// values to the listeners registered on them with On and Once. A
// listener receives a pointer to the event and a pointer to the object
// that published it, so all listeners fired by one publish observe, and
// may mutate, the same value.
//
// # Dispatch semantics
//
// Listeners registered with On are persistent: they fire on every
// matching publish until erased, most recently registered first.
// Listeners registered with Once fire at most one time, after the
// persistent ones, in the order they were registered. Mind the
// asymmetry between the two orders when ordering matters.
//
// Registration and removal are safe at any time, including from inside
// a running listener: a listener may erase any connection (its own
// included), register new listeners for the same or another event type,
// or publish nested events. A one-shot listener registered while a
// publish of its event type is in progress does not fire during that
// publish. Erasing a listener takes effect immediately, so it will not
// fire later in a pass already running; its storage is reclaimed only
// once the pass completes.
//
// # Threading model
//
// uvw is cooperative and single-threaded. The goroutine that drives
// Loop.Run owns the loop, its handles and their emitters; no dispatcher
// operation takes a lock, and none of them may be called from another
// goroutine. Loop.Post is the only goroutine-safe entry point: it hands
// a function to the loop goroutine and wakes the poller if it is
// blocked.
//
// Handles publish a terminal CloseEvent exactly once when closed, then
// detach from their loop.
package uvw
