package x4grid

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rlibre/x4grid/record"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		log  func(l *Logger)
		want []string
	}{
		{"append", func(l *Logger) { l.LogAppend(ctx, record.Int(7), nil) }, []string{"append completed", "id=7"}},
		{"update failed", func(l *Logger) { l.LogUpdate(ctx, record.Int(7), errors.New("nope")) }, []string{"update failed", "error=nope"}},
		{"delete", func(l *Logger) { l.LogDelete(ctx, record.String("k"), nil) }, []string{"delete completed", "id=k"}},
		{"reset", func(l *Logger) { l.LogReset(ctx, 12, nil) }, []string{"reset completed", "count=12"}},
		{"load", func(l *Logger) { l.LogLoad(ctx, "file://a.json", 3, time.Millisecond, nil) }, []string{"load completed", "source=file://a.json", "count=3"}},
		{"query", func(l *Logger) { l.LogQuery(ctx, "filter", "age > 1", 0, errors.New("bad")) }, []string{"filter rejected", "error=bad"}},
		{"with", func(l *Logger) { l.WithField("age").WithCount(2).Info("x") }, []string{"field=age", "count=2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			tt.log(l)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestNoopLoggerDiscards(t *testing.T) {
	l := NoopLogger()
	l.LogAppend(context.Background(), record.Int(1), errors.New("x"))
	assert.NotNil(t, l.WithID(record.Int(1)))
}
