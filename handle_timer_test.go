package uvw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerRestartReplacesDeadline(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	tm, err := NewTimer(l)
	require.NoError(t, err)

	var fired int
	On(tm.Emitter, func(evt *TimerEvent, h *TimerHandle) {
		fired++
	})

	// The second Start discards the hour-long deadline.
	require.NoError(t, tm.Start(time.Hour, 0))
	require.NoError(t, tm.Start(time.Millisecond, 0))

	require.NoError(t, l.Run())
	require.Equal(t, 1, fired)
}

func TestStoppedTimerDoesNotFire(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	tm, err := NewTimer(l)
	require.NoError(t, err)

	var fired int
	On(tm.Emitter, func(evt *TimerEvent, h *TimerHandle) {
		fired++
	})

	require.NoError(t, tm.Start(time.Millisecond, 0))
	require.NoError(t, tm.Stop())

	require.NoError(t, l.Run())
	require.Zero(t, fired)
}

func TestTimerAgain(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	tm, err := NewTimer(l)
	require.NoError(t, err)
	require.ErrorIs(t, tm.Again(), ErrNoRepeat)

	var fired int
	On(tm.Emitter, func(evt *TimerEvent, h *TimerHandle) {
		fired++
		require.NoError(t, h.Stop())
	})

	tm.SetRepeat(time.Millisecond)
	require.NoError(t, tm.Again())

	require.NoError(t, l.Run())
	require.Equal(t, 1, fired)
}

func TestTimersFireInArmingOrder(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	var got []string
	for _, tag := range []string{"a", "b", "c"} {
		tag := tag
		tm, err := NewTimer(l)
		require.NoError(t, err)
		On(tm.Emitter, func(evt *TimerEvent, h *TimerHandle) {
			got = append(got, tag)
		})
		require.NoError(t, tm.Start(0, 0))
	}

	// Identical deadlines resolve by arming order.
	_, err = l.RunNoWait()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSetRepeatAppliesOnNextRearm(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	tm, err := NewTimer(l)
	require.NoError(t, err)

	var fired int
	On(tm.Emitter, func(evt *TimerEvent, h *TimerHandle) {
		fired++
		// The fire that delivered this event already rearmed the
		// timer; dropping the repeat stops it one fire later.
		h.SetRepeat(0)
	})

	require.NoError(t, tm.Start(time.Millisecond, time.Millisecond))
	require.NoError(t, l.Run())
	require.Equal(t, 2, fired)
}

func TestClosingArmedTimerDequeues(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	tm, err := NewTimer(l)
	require.NoError(t, err)
	require.NoError(t, tm.Start(time.Hour, 0))

	tm.Close()
	require.Empty(t, l.timers)

	_, err = l.RunNoWait()
	require.NoError(t, err)
	require.False(t, l.Alive())
}
