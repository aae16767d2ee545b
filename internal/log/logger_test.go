package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{
		Component: ComponentHTTP,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestLogHTTPEndLevelFollowsStatus(t *testing.T) {
	cases := map[int]string{
		200: "level=INFO",
		404: "level=WARN",
		500: "level=ERROR",
	}
	for status, want := range cases {
		var buf bytes.Buffer
		sl := NewStructuredLogger(newBufferLogger(&buf))
		r := httptest.NewRequest("POST", "/rpc/createMember", nil)

		sl.LogHTTPEnd(context.Background(), r, status, 12, "127.0.0.1")

		out := buf.String()
		assert.True(t, strings.Contains(out, want), "status %d: %s", status, out)
		assert.Contains(t, out, "status_code=")
	}
}

func TestLogProcedure(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf))

	sl.LogProcedure(context.Background(), "createPayment", 3, errors.New("Member with id 9 not found"))
	assert.Contains(t, buf.String(), "procedure=createPayment")
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	sl.LogProcedure(context.Background(), "getMembers", 1, nil)
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestComponentIsLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentGym,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})

	NewStructuredLogger(logger).LogPaymentRecorded(context.Background(), 3, 7, 1000, "cash")
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="), out)
	assert.Contains(t, out, "component=gym")
	assert.Contains(t, out, "payment_id=3")

	buf.Reset()
	logger.With(FieldRequestID, "req_1").WithComponent(ComponentRPC).Info("switched")
	out = buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="), out)
	assert.Contains(t, out, "component=rpc")
	assert.Contains(t, out, "request_id=req_1")

	buf.Reset()
	NewStructuredLogger(logger).LogError(context.Background(), "Request failed", errors.New("boom"), ComponentHTTP, OpRead, NewFields())
	out = buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="), out)
	assert.Contains(t, out, "component=http")
}
