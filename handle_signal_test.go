//go:build unix

package uvw

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalDelivery(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	h, err := NewSignal(l)
	require.NoError(t, err)

	var got []os.Signal
	On(h.Emitter, func(evt *SignalEvent, hh *SignalHandle) {
		got = append(got, evt.Sig)
	})

	require.NoError(t, h.Start(syscall.SIGUSR1))
	require.True(t, h.Active())
	require.Equal(t, os.Signal(syscall.SIGUSR1), h.Signal())

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	drainUntil(t, l, func() bool { return len(got) > 0 })
	require.Equal(t, os.Signal(syscall.SIGUSR1), got[0])

	require.NoError(t, h.Stop())
	require.False(t, h.Active())
}

func TestSignalRestartReplacesSubscription(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	h, err := NewSignal(l)
	require.NoError(t, err)

	var got []os.Signal
	On(h.Emitter, func(evt *SignalEvent, hh *SignalHandle) {
		got = append(got, evt.Sig)
	})

	require.NoError(t, h.Start(syscall.SIGUSR1))
	require.NoError(t, h.Start(syscall.SIGUSR2))
	require.Equal(t, os.Signal(syscall.SIGUSR2), h.Signal())

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))

	drainUntil(t, l, func() bool { return len(got) > 0 })
	require.Equal(t, os.Signal(syscall.SIGUSR2), got[0])
}

func TestSignalCloseDetaches(t *testing.T) {
	l, err := NewLoop()
	require.NoError(t, err)
	defer l.Close()

	h, err := NewSignal(l)
	require.NoError(t, err)
	require.NoError(t, h.Start(syscall.SIGUSR1))

	var closes int
	On(h.Emitter, func(evt *CloseEvent, hh *SignalHandle) {
		closes++
	})

	h.Close()
	require.ErrorIs(t, h.Start(syscall.SIGUSR1), ErrHandleClosed)

	_, err = l.RunNoWait()
	require.NoError(t, err)
	require.Equal(t, 1, closes)
	require.False(t, l.Alive())
}
