package uvw

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

type (
	// writerLogger renders one line per entry to an io.Writer. Fields
	// accumulated through WithField print in key order so output is
	// stable across runs.
	writerLogger struct {
		out    io.Writer
		fields []logField
	}

	logField struct {
		key   string
		value any
	}
)

// NewWriterLogger returns a Logger that writes human-readable lines to
// out. Handy for examples and tests; callers with an existing logging
// stack should adapt it to the Logger interface instead.
func NewWriterLogger(out io.Writer) Logger {
	return &writerLogger{out: out}
}

func (l *writerLogger) WithField(key string, value any) Logger {
	fields := make([]logField, 0, len(l.fields)+1)
	replaced := false
	for _, f := range l.fields {
		if f.key == key {
			f.value = value
			replaced = true
		}
		fields = append(fields, f)
	}
	if !replaced {
		fields = append(fields, logField{key: key, value: value})
		sort.Slice(fields, func(i, j int) bool { return fields[i].key < fields[j].key })
	}
	return &writerLogger{out: l.out, fields: fields}
}

func (l *writerLogger) write(level, msg string) {
	var b strings.Builder
	b.WriteString(time.Now().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(level)
	for _, f := range l.fields {
		fmt.Fprintf(&b, " %s=%v", f.key, f.value)
	}
	b.WriteString(" | ")
	b.WriteString(strings.TrimSuffix(msg, "\n"))
	b.WriteByte('\n')
	io.WriteString(l.out, b.String())
}

func (l *writerLogger) Debug(args ...any) { l.write("DEBUG", fmt.Sprint(args...)) }
func (l *writerLogger) Debugf(format string, args ...any) {
	l.write("DEBUG", fmt.Sprintf(format, args...))
}
func (l *writerLogger) Debugln(args ...any) { l.write("DEBUG", fmt.Sprintln(args...)) }

func (l *writerLogger) Info(args ...any) { l.write("INFO", fmt.Sprint(args...)) }
func (l *writerLogger) Infof(format string, args ...any) {
	l.write("INFO", fmt.Sprintf(format, args...))
}
func (l *writerLogger) Infoln(args ...any) { l.write("INFO", fmt.Sprintln(args...)) }

func (l *writerLogger) Warn(args ...any) { l.write("WARN", fmt.Sprint(args...)) }
func (l *writerLogger) Warnf(format string, args ...any) {
	l.write("WARN", fmt.Sprintf(format, args...))
}
func (l *writerLogger) Warnln(args ...any) { l.write("WARN", fmt.Sprintln(args...)) }

func (l *writerLogger) Error(args ...any) { l.write("ERROR", fmt.Sprint(args...)) }
func (l *writerLogger) Errorf(format string, args ...any) {
	l.write("ERROR", fmt.Sprintf(format, args...))
}
func (l *writerLogger) Errorln(args ...any) { l.write("ERROR", fmt.Sprintln(args...)) }
