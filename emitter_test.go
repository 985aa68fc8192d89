package uvw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	emitterOwner struct {
		log []string
	}

	dataReady struct {
		n int
	}

	flushDone struct {
		tag string
	}
)

func (o *emitterOwner) record(s string) func(evt *dataReady, owner *emitterOwner) {
	return func(evt *dataReady, owner *emitterOwner) {
		owner.log = append(owner.log, s)
	}
}

func TestPersistentAndOneShot(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	On(em, owner.record("on"))
	Once(em, owner.record("once"))

	// First publish reaches both, the second only the persistent one.
	Publish(em, dataReady{})
	require.Equal(t, []string{"on", "once"}, owner.log)

	Publish(em, dataReady{})
	require.Equal(t, []string{"on", "once", "on"}, owner.log)
}

func TestOneShotRegisteredDuringPublish(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	On(em, func(evt *dataReady, o *emitterOwner) {
		o.log = append(o.log, "on")
		if len(o.log) == 1 {
			Once(em, o.record("late"))
		}
	})

	// The one-shot registered mid-pass must wait for the next publish.
	Publish(em, dataReady{})
	require.Equal(t, []string{"on"}, owner.log)

	Publish(em, dataReady{})
	require.Equal(t, []string{"on", "on", "late"}, owner.log)
}

func TestFiringOrder(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	// Persistent listeners fire most recently registered first,
	// one-shots in registration order after them.
	On(em, owner.record("a"))
	On(em, owner.record("b"))
	Once(em, owner.record("s1"))
	Once(em, owner.record("s2"))

	Publish(em, dataReady{})
	require.Equal(t, []string{"b", "a", "s1", "s2"}, owner.log)
}

func TestEraseBeforePublish(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	conn := On(em, owner.record("on"))
	Erase(em, conn)

	Publish(em, dataReady{})
	require.Empty(t, owner.log)
	require.True(t, Empty[dataReady](em))
	require.True(t, em.Empty())
}

func TestEraseDuringPublish(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	victim := On(em, owner.record("victim"))
	On(em, func(evt *dataReady, o *emitterOwner) {
		o.log = append(o.log, "eraser")
		Erase(em, victim)
	})

	// The eraser runs first and removes the victim before its turn.
	Publish(em, dataReady{})
	require.Equal(t, []string{"eraser"}, owner.log)

	Publish(em, dataReady{})
	require.Equal(t, []string{"eraser", "eraser"}, owner.log)
}

func TestSelfErase(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	var conn Conn[dataReady]
	conn = On(em, func(evt *dataReady, o *emitterOwner) {
		o.log = append(o.log, "self")
		Erase(em, conn)
	})

	Publish(em, dataReady{})
	Publish(em, dataReady{})
	require.Equal(t, []string{"self"}, owner.log)
	require.True(t, Empty[dataReady](em))
}

func TestEraseIsIdempotent(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	conn := Once(em, owner.record("once"))
	Publish(em, dataReady{})

	// Erasing an already consumed or already erased connection is
	// harmless.
	Erase(em, conn)
	Erase(em, conn)

	Publish(em, dataReady{})
	require.Equal(t, []string{"once"}, owner.log)
}

func TestClearAll(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	On(em, owner.record("data"))
	Once(em, owner.record("data once"))
	On(em, func(evt *flushDone, o *emitterOwner) {
		o.log = append(o.log, "flush")
	})
	require.False(t, em.Empty())

	em.ClearAll()
	require.True(t, em.Empty())
	require.True(t, Empty[dataReady](em))
	require.True(t, Empty[flushDone](em))

	Publish(em, dataReady{})
	Publish(em, flushDone{})
	require.Empty(t, owner.log)
}

func TestEmptyWithoutRegistration(t *testing.T) {
	em := NewEmitter(&emitterOwner{}, nil)

	require.True(t, Empty[dataReady](em))
	require.True(t, em.Empty())

	// Probing must not allocate a listener table slot.
	require.Zero(t, em.registry.Len())
}

func TestInterleavedEraseLeavesEmpty(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	a := On(em, owner.record("a"))
	Publish(em, dataReady{})
	b := On(em, owner.record("b"))
	Erase(em, a)
	Publish(em, dataReady{})
	c := Once(em, owner.record("c"))
	Erase(em, c)
	Erase(em, b)

	require.True(t, Empty[dataReady](em))
	Publish(em, dataReady{})
	require.Equal(t, []string{"a", "b"}, owner.log)
}

func TestNestedPublishDifferentType(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	On(em, func(evt *flushDone, o *emitterOwner) {
		o.log = append(o.log, "flush "+evt.tag)
	})
	On(em, owner.record("outer tail"))
	On(em, func(evt *dataReady, o *emitterOwner) {
		o.log = append(o.log, "outer head")
		Publish(em, flushDone{tag: "nested"})
	})

	// The nested publish runs to completion and the rest of the outer
	// pass still fires.
	Publish(em, dataReady{})
	require.Equal(t, []string{"outer head", "flush nested", "outer tail"}, owner.log)
}

func TestNestedPublishSameType(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	Once(em, owner.record("shot"))
	On(em, func(evt *dataReady, o *emitterOwner) {
		o.log = append(o.log, "on")
		if len(o.log) == 1 {
			// A one-shot queued before a nested publish belongs to the
			// nested pass; the outer pass already detached its own.
			Once(em, o.record("mid"))
			Publish(em, dataReady{})
		}
	})

	Publish(em, dataReady{})
	require.Equal(t, []string{"on", "on", "mid", "shot"}, owner.log)
}

func TestClearDuringPublish(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	On(em, owner.record("victim"))
	On(em, func(evt *dataReady, o *emitterOwner) {
		o.log = append(o.log, "clearer")
		Clear[dataReady](em)
	})
	Once(em, owner.record("shot"))

	// Clearing mid-pass stops the listeners not yet reached, but the
	// one-shot batch was detached up front and still fires.
	Publish(em, dataReady{})
	require.Equal(t, []string{"clearer", "shot"}, owner.log)

	require.True(t, Empty[dataReady](em))
	Publish(em, dataReady{})
	require.Equal(t, []string{"clearer", "shot"}, owner.log)
}

func TestEmptySeesUnfiredOneShots(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	Once(em, func(evt *dataReady, o *emitterOwner) {
		// s2 is detached for this pass but has not run yet.
		assert.False(t, Empty[dataReady](em))
	})
	Once(em, owner.record("s2"))

	Publish(em, dataReady{})
	require.True(t, Empty[dataReady](em))
}

func TestListenersShareEventValue(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	var seen int
	On(em, func(evt *dataReady, o *emitterOwner) {
		seen = evt.n
	})
	On(em, func(evt *dataReady, o *emitterOwner) {
		evt.n *= 2
	})

	// The mutating listener runs first; the observer sees its change.
	Publish(em, dataReady{n: 21})
	require.Equal(t, 42, seen)
}

func TestOwnerBinding(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	On(em, func(evt *dataReady, o *emitterOwner) {
		require.Same(t, owner, o)
	})
	Publish(em, dataReady{})
}

func TestPublishWithNoListeners(t *testing.T) {
	em := NewEmitter(&emitterOwner{}, nil)

	require.NotPanics(t, func() {
		Publish(em, dataReady{n: 100})
	})
	require.True(t, em.Empty())
}

func TestPanickingListener(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	On(em, owner.record("survivor"))
	Once(em, func(evt *dataReady, o *emitterOwner) {
		panic("listener blew up")
	})

	require.Panics(t, func() {
		Publish(em, dataReady{})
	})
	require.Equal(t, []string{"survivor"}, owner.log)

	// The dispatcher must come back consistent and usable.
	Publish(em, dataReady{})
	require.Equal(t, []string{"survivor", "survivor"}, owner.log)
}

func TestSweepCompactsErasedListeners(t *testing.T) {
	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	keep := On(em, owner.record("keep"))
	gone := On(em, owner.record("gone"))
	Erase(em, gone)

	store := storeFor[dataReady](em)
	require.Equal(t, 2, listLen(&store.persistent))

	// The erased node is unlinked once a pass finishes at depth zero.
	Publish(em, dataReady{})
	require.Equal(t, 1, listLen(&store.persistent))

	Erase(em, keep)
	Publish(em, dataReady{})
	require.Zero(t, listLen(&store.persistent))
}

func TestSharedRegistry(t *testing.T) {
	reg := NewRegistry()
	first := NewEmitter(&emitterOwner{}, reg)
	second := NewEmitter(&emitterOwner{}, reg)

	On(first, func(evt *dataReady, o *emitterOwner) {})
	On(second, func(evt *flushDone, o *emitterOwner) {})

	// Both emitters feed the same type table; listener state stays per
	// emitter.
	require.Equal(t, 2, reg.Len())
	require.True(t, Empty[dataReady](second))
	require.True(t, Empty[flushDone](first))
	require.False(t, Empty[dataReady](first))
}

func TestConnSurvivesTableGrowth(t *testing.T) {
	type rowLoaded struct{}
	type rowStored struct{}
	type rowEvicted struct{}

	owner := &emitterOwner{}
	em := NewEmitter(owner, nil)

	conn := On(em, owner.record("a"))

	// Registering further event types grows the handler table
	// underneath the existing connection.
	On(em, func(evt *rowLoaded, o *emitterOwner) { o.log = append(o.log, "loaded") })
	On(em, func(evt *rowStored, o *emitterOwner) { o.log = append(o.log, "stored") })
	Once(em, func(evt *rowEvicted, o *emitterOwner) { o.log = append(o.log, "evicted") })

	Erase(em, conn)
	Publish(em, dataReady{})

	require.Empty(t, owner.log)
	require.True(t, Empty[dataReady](em))
	require.False(t, Empty[rowLoaded](em))
}

func listLen[E any](l *listenerList[E]) int {
	n := 0
	for e := l.head; e != nil; e = e.next {
		n++
	}
	return n
}
