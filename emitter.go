package uvw

// handler is the type-erased face of a listenerStore. The handler table
// only needs lifecycle queries; everything typed goes through the
// package-level generic functions.
type handler interface {
	empty() bool
	clear()
}

// Emitter dispatches typed events to the listeners registered against
// it. The Loop and every handle embed one; standalone emitters work the
// same way.
//
// An Emitter owns one listener store per event type, held in a table
// indexed by the identifiers its Registry hands out. Stores are created
// lazily on first registration, publish or per-type clear, and live for
// as long as the emitter does.
//
// Emitters are not safe for concurrent use: registration, removal and
// publish all belong to a single goroutine. Within that goroutine they
// are fully reentrant; see the package documentation.
type Emitter[T any] struct {
	owner    *T
	registry *Registry
	handlers []handler
}

// NewEmitter returns an emitter whose listeners receive owner as their
// second argument. Emitters sharing a Registry share event type
// identifiers; passing a nil registry creates one private to this
// emitter.
func NewEmitter[T any](owner *T, reg *Registry) *Emitter[T] {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Emitter[T]{owner: owner, registry: reg}
}

// storeFor returns the listener store for E, creating it on first use.
// Stores are heap-allocated and referenced through the table, so growing
// the table never moves entry storage and issued Conns stay valid.
func storeFor[E any, T any](em *Emitter[T]) *listenerStore[E] {
	id := em.registry.id(typeOf[E]())
	if n := int(id); n >= len(em.handlers) {
		grown := make([]handler, n+1)
		copy(grown, em.handlers)
		em.handlers = grown
	}
	if em.handlers[id] == nil {
		em.handlers[id] = new(listenerStore[E])
	}
	return em.handlers[id].(*listenerStore[E])
}

// On registers a persistent listener for events of type E. It fires on
// every publish until erased; listeners registered last fire first. The
// returned Conn can be freely discarded, or kept to erase the listener
// later.
func On[E any, T any](em *Emitter[T], fn Listener[E, T]) Conn[E] {
	owner := em.owner
	return storeFor[E](em).on(func(evt *E) { fn(evt, owner) })
}

// Once registers a one-shot listener for events of type E. It fires at
// most one time, after the persistent listeners, in registration order.
// A one-shot listener registered while a publish of E is running does
// not fire before the next publish.
func Once[E any, T any](em *Emitter[T], fn Listener[E, T]) Conn[E] {
	owner := em.owner
	return storeFor[E](em).once(func(evt *E) { fn(evt, owner) })
}

// Erase removes the listener c was issued for. The entry is tombstoned
// immediately and no longer fires, not even later in a publish pass
// already running; its storage is reclaimed once the current pass, if
// any, completes. Safe to call from inside a running listener,
// including for the listener itself.
//
// c must come from On or Once on em; erasing a connection against a
// different emitter or event type is a contract violation.
func Erase[E any, T any](em *Emitter[T], c Conn[E]) {
	c.entry.tombstone = true
}

// Clear removes every listener of event type E, persistent and one-shot
// alike. Like Erase it only tombstones; storage is reclaimed later.
func Clear[E any, T any](em *Emitter[T]) {
	storeFor[E](em).clear()
}

// Empty reports whether no live listener for events of type E remains.
// It never creates a store: querying a type nothing was ever registered
// for reports true.
func Empty[E any, T any](em *Emitter[T]) bool {
	id, ok := em.registry.lookup(typeOf[E]())
	if !ok || int(id) >= len(em.handlers) || em.handlers[id] == nil {
		return true
	}
	return em.handlers[id].empty()
}

// Publish synchronously dispatches evt to the listeners registered for
// E: first the persistent ones, most recently registered first, then the
// one-shot ones, in registration order. Every listener receives a
// pointer to the same event value and the emitter's owner. Publishing a
// type with no registrations fires nothing.
//
// Publish runs to completion before returning and never takes a lock. A
// panicking listener aborts the remainder of the pass; the store is left
// consistent and the panic propagates to the caller.
func Publish[E any, T any](em *Emitter[T], evt E) {
	storeFor[E](em).publish(&evt)
}

// ClearAll removes every listener of every event type.
func (em *Emitter[T]) ClearAll() {
	for _, h := range em.handlers {
		if h != nil {
			h.clear()
		}
	}
}

// Empty reports whether no live listener of any event type remains.
func (em *Emitter[T]) Empty() bool {
	for _, h := range em.handlers {
		if h != nil && !h.empty() {
			return false
		}
	}
	return true
}
