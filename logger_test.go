package uvw

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer

	log := NewWriterLogger(&buf)
	log.Infof("hello %s", "world")

	scoped := log.WithField("handle", "websocket").WithField("attempt", 2)
	scoped.Warn("slow")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "INFO")
	assert.Contains(t, lines[0], "hello world")
	assert.NotContains(t, lines[0], "handle=")

	// Fields print sorted by key, not in registration order.
	assert.Contains(t, lines[1], "WARN attempt=2 handle=websocket | slow")
}

func TestWriterLoggerFieldOverride(t *testing.T) {
	var buf bytes.Buffer

	log := NewWriterLogger(&buf).WithField("fd", 3)
	log.WithField("fd", 4).Debug("rearmed")

	require.Contains(t, buf.String(), "fd=4")
	require.NotContains(t, buf.String(), "fd=3")
}

func TestClosedLoopLogsDroppedPost(t *testing.T) {
	var buf bytes.Buffer

	l := newTestLoop(&fakePoller{}, WithLogger(NewWriterLogger(&buf)))
	require.NoError(t, l.Close())

	l.Post(func() { t.Fatal("must not run") })

	require.Contains(t, buf.String(), "posted work dropped")
}
