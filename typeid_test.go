package uvw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryAssignsDenseStableIDs(t *testing.T) {
	reg := NewRegistry()

	a := reg.id(typeOf[dataReady]())
	b := reg.id(typeOf[flushDone]())

	require.Equal(t, typeID(0), a)
	require.Equal(t, typeID(1), b)

	// Repeated queries keep returning the same slot.
	require.Equal(t, a, reg.id(typeOf[dataReady]()))
	require.Equal(t, b, reg.id(typeOf[flushDone]()))
	require.Equal(t, 2, reg.Len())
}

func TestRegistryLookupDoesNotAssign(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.lookup(typeOf[dataReady]())
	require.False(t, ok)
	require.Zero(t, reg.Len())

	id := reg.id(typeOf[dataReady]())
	got, ok := reg.lookup(typeOf[dataReady]())
	require.True(t, ok)
	require.Equal(t, id, got)
}

func TestRegistryDistinguishesTypes(t *testing.T) {
	type localEvent struct{ n int }

	reg := NewRegistry()
	a := reg.id(typeOf[dataReady]())
	b := reg.id(typeOf[localEvent]())
	require.NotEqual(t, a, b)
}
