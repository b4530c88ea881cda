package ctxlog

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Debug("hello", "k", "v")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected debug line, got %q", buf.String())
	}
}

func TestFromContext_MissingDiscards(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a discard logger, got nil")
	}
}

func TestNew_InfoHidesDebug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}
}
