package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_DefaultWhenEmpty(t *testing.T) {
	require.Equal(t, slog.Default(), From(context.Background()))
}

func TestInto_From_RoundTrip(t *testing.T) {
	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := Into(context.Background(), l)

	require.Same(t, l, From(ctx))
}

func TestOr_PrefersRequestLogger(t *testing.T) {
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.Same(t, fallback, Or(context.Background(), fallback))
	require.Same(t, fallback, Or(Into(context.Background(), nil), fallback))
	require.Same(t, req, Or(Into(context.Background(), req), fallback))
}

func TestWithRequestID_TagsEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx, l := WithRequestID(context.Background(), base, "rid-7")
	require.Same(t, l, From(ctx))

	From(ctx).Info("gate_decision", slog.String(KeyRoute, "/faculty"))
	require.Contains(t, buf.String(), "request_id=rid-7")
	require.Contains(t, buf.String(), "route=/faculty")
}

func TestWithRequestID_EmptyIDKeepsLogger(t *testing.T) {
	base := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, l := WithRequestID(context.Background(), base, "")
	require.Same(t, base, l)
	require.Same(t, base, From(ctx))
}
