package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/campus-portal/internal/gate"
	gwhttp "github.com/pribylovaa/campus-portal/internal/http"
	"github.com/pribylovaa/campus-portal/internal/models"
	"github.com/pribylovaa/campus-portal/internal/session"
)

func TestSetupLogger_LevelsByEnv(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var buf bytes.Buffer

	require.True(t, setupLogger(envLocal, &buf).Enabled(ctx, slog.LevelDebug))
	require.True(t, setupLogger(envDev, &buf).Enabled(ctx, slog.LevelDebug))
	require.False(t, setupLogger(envProd, &buf).Enabled(ctx, slog.LevelDebug))
	require.True(t, setupLogger("unknown", &buf).Enabled(ctx, slog.LevelDebug))

	setupLogger(envProd, &buf).Info("ping")
	require.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestReadPassword(t *testing.T) {
	t.Parallel()

	pw, err := readPassword("flag-pw", false, nil)
	require.NoError(t, err)
	require.Equal(t, "flag-pw", pw)

	_, err = readPassword("", false, nil)
	require.Error(t, err)

	pw, err = readPassword("", true, strings.NewReader("s3cret\r\nignored"))
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)

	pw, err = readPassword("", true, strings.NewReader("no-newline"))
	require.NoError(t, err)
	require.Equal(t, "no-newline", pw)

	_, err = readPassword("", true, strings.NewReader("\n"))
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render(&buf, gate.Outcome{State: gate.Denied, Redirect: "/login?next=%2Ffaculty"}, nil))
	require.Equal(t, "denied -> /login?next=%2Ffaculty\n", buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, gate.Outcome{State: gate.Redirected, Redirect: "/login"}, nil))
	require.Equal(t, "redirected -> /login\n", buf.String())

	buf.Reset()
	err := render(&buf, gate.Outcome{State: gate.NotFound, Location: "/nope"}, nil)
	require.ErrorIs(t, err, errNoSuchView)

	buf.Reset()
	view := models.View{Name: "student_dashboard", Role: "student", Location: "/student"}
	require.NoError(t, render(&buf, gate.Outcome{State: gate.Admitted}, &view))
	require.Contains(t, buf.String(), `"view": "student_dashboard"`)
}

func TestFormatClaims(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_800_000_000, 0).UTC()

	s := formatClaims(session.Claims{Role: session.RoleFaculty, Expiry: now.Add(time.Hour), Subject: "42"}, now)
	require.Contains(t, s, "role:    faculty")
	require.Contains(t, s, "subject: 42")
	require.Contains(t, s, "(valid)")

	s = formatClaims(session.Claims{Role: session.RoleStudent, Expiry: now}, now)
	require.Contains(t, s, "expired")
}

func TestAppInit_WiresMetricsAndNavigator(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env: prod\napi:\n  base_url: http://127.0.0.1:1\n"), 0o600))

	var a app
	require.NoError(t, a.init(context.Background(), path, true, io.Discard))
	t.Cleanup(a.close)

	require.NotNil(t, a.metrics)
	require.NotNil(t, a.cl)
	require.Equal(t, gwhttp.Routes(gate.DefaultLoginPath), a.nav.Routes())

	out := a.nav.Navigate(context.Background(), "/faculty/students/3")
	require.Equal(t, gate.Denied, out.State)
	require.Equal(t, map[string]string{"id": "3"}, out.Params)
}
