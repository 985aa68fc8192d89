package uvw

// Listener is a callback invoked when an event of type E is published.
// It receives the event by pointer, so every listener fired by one
// publish call observes the same value and may mutate it, together with
// the owner of the emitter that published it.
type Listener[E any, T any] func(evt *E, owner *T)

// Conn identifies a single registered listener. It is a pure capability:
// it carries no data, keeps nothing alive, and is only usable to request
// the removal of the entry it was issued for, through Erase.
//
// A Conn is only meaningful against the emitter and event type that
// issued it. It stays valid while unrelated listeners are added or
// removed and across handler table growth; using it after its own entry
// has been swept is undefined.
type Conn[E any] struct {
	entry *listenerEntry[E]
}

// listenerEntry is a node of a listenerList. Entries are tombstoned on
// removal and only unlinked once no dispatch pass iterates the list
// anymore, so outstanding Conns never dangle mid-pass.
type listenerEntry[E any] struct {
	tombstone bool
	fn        func(evt *E)
	prev      *listenerEntry[E]
	next      *listenerEntry[E]
}

// listenerList is an ordered, node-based sequence of listener entries.
type listenerList[E any] struct {
	head *listenerEntry[E]
	tail *listenerEntry[E]
}

func (l *listenerList[E]) pushFront(fn func(evt *E)) *listenerEntry[E] {
	e := &listenerEntry[E]{fn: fn, next: l.head}
	if l.head != nil {
		l.head.prev = e
	} else {
		l.tail = e
	}
	l.head = e
	return e
}

func (l *listenerList[E]) pushBack(fn func(evt *E)) *listenerEntry[E] {
	e := &listenerEntry[E]{fn: fn, prev: l.tail}
	if l.tail != nil {
		l.tail.next = e
	} else {
		l.head = e
	}
	l.tail = e
	return e
}

func (l *listenerList[E]) unlink(e *listenerEntry[E]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

// detach empties l and returns its previous content as a separate list.
func (l *listenerList[E]) detach() listenerList[E] {
	out := *l
	*l = listenerList[E]{}
	return out
}

func (l *listenerList[E]) tombstoneAll() {
	for e := l.head; e != nil; e = e.next {
		e.tombstone = true
	}
}

func (l *listenerList[E]) allTombstoned() bool {
	for e := l.head; e != nil; e = e.next {
		if !e.tombstone {
			return false
		}
	}
	return true
}

// sweep unlinks every tombstoned entry. Must not run while a dispatch
// pass is iterating the list.
func (l *listenerList[E]) sweep() {
	for e := l.head; e != nil; {
		next := e.next
		if e.tombstone {
			l.unlink(e)
		}
		e = next
	}
}

// listenerStore owns the two listener lists of one event type: the
// persistent list, kept most-recently-registered first, and the one-shot
// list, kept first-registered first.
type listenerStore[E any] struct {
	persistent listenerList[E]
	oneshot    listenerList[E]

	// one-shot batches detached by publish passes currently on the
	// stack, innermost last. Their unfired entries still count as
	// present for empty.
	inflight []*listenerList[E]

	// publish nesting depth for this event type. The persistent list is
	// swept only when the outermost pass unwinds.
	depth int
}

func (s *listenerStore[E]) on(fn func(evt *E)) Conn[E] {
	return Conn[E]{entry: s.persistent.pushFront(fn)}
}

func (s *listenerStore[E]) once(fn func(evt *E)) Conn[E] {
	return Conn[E]{entry: s.oneshot.pushBack(fn)}
}

// clear tombstones every entry of both lists without unlinking anything.
// Batches already detached by a running publish pass are out of reach
// and still fire.
func (s *listenerStore[E]) clear() {
	s.persistent.tombstoneAll()
	s.oneshot.tombstoneAll()
}

// empty reports whether every entry is tombstoned. One-shot entries that
// a running pass has detached but not yet fired count as present.
func (s *listenerStore[E]) empty() bool {
	if !s.persistent.allTombstoned() || !s.oneshot.allTombstoned() {
		return false
	}
	for _, batch := range s.inflight {
		if !batch.allTombstoned() {
			return false
		}
	}
	return true
}

// publish runs one dispatch pass.
//
// The one-shot list is detached up front, so one-shot listeners
// registered from inside a callback land on the now-empty stored list
// and cannot fire before a future pass. Removals during the pass only
// tombstone entries; the persistent list is swept when the outermost
// pass for this event type unwinds, which keeps every entry reachable
// for the iterations still on the stack. The deferred cleanup also runs
// when a listener panics, so the store stays consistent on every exit
// path.
func (s *listenerStore[E]) publish(evt *E) {
	current := s.oneshot.detach()
	s.inflight = append(s.inflight, &current)
	s.depth++

	defer func() {
		s.inflight = s.inflight[:len(s.inflight)-1]
		s.depth--
		if s.depth == 0 {
			s.persistent.sweep()
		}
	}()

	for e := s.persistent.head; e != nil; e = e.next {
		if !e.tombstone {
			e.fn(evt)
		}
	}

	for e := current.head; e != nil; e = e.next {
		if e.tombstone {
			continue
		}
		e.tombstone = true
		e.fn(evt)
	}
}
