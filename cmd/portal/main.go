package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/campus-portal/internal/clients"
	"github.com/pribylovaa/campus-portal/internal/config"
	"github.com/pribylovaa/campus-portal/internal/gate"
	gwhttp "github.com/pribylovaa/campus-portal/internal/http"
	"github.com/pribylovaa/campus-portal/internal/metrics"
	"github.com/pribylovaa/campus-portal/internal/session"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// app — зависимости, общие для всех команд.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   session.Store
	metrics *metrics.Metrics
	cl      *clients.Clients
	gate    *gate.Gate
	nav     *gate.Navigator
}

func main() {
	var (
		configPath string
		ephemeral  bool
		a          app
	)

	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Campus portal client",
		Long: `portal signs students and faculty in to the campus portal backend,
keeps the session between runs and opens role-restricted views.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), configPath, ephemeral, cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session in memory only")

	rootCmd.AddCommand(
		loginCmd(&a),
		registerCmd(&a),
		logoutCmd(&a),
		whoamiCmd(&a),
		openCmd(&a),
		serveCmd(&a),
	)

	err := rootCmd.ExecuteContext(context.Background())
	a.close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func (a *app) init(ctx context.Context, configPath string, ephemeral bool, logOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if ephemeral {
		cfg.Session.Driver = session.DriverMemory
	}

	a.cfg = cfg
	a.log = setupLogger(cfg.Env, logOut)
	slog.SetDefault(a.log)

	a.store, err = session.Open(ctx, cfg.Session)
	if err != nil {
		a.log.Error("session_open_failed", slog.String("err", err.Error()))
		return err
	}

	a.metrics, err = metrics.New(nil)
	if err != nil {
		a.log.Error("metrics_init_failed", slog.String("err", err.Error()))
		return err
	}

	onEnded := func(ctx context.Context) {
		a.log.Warn("session_redirect", slog.String("to", gate.DefaultLoginPath))
	}

	a.cl, err = clients.New(ctx, *cfg, a.store, a.log, a.metrics, onEnded)
	if err != nil {
		a.log.Error("clients_init_failed", slog.String("err", err.Error()))
		return err
	}

	a.gate = gate.New(a.store, a.cl.API, gate.WithLogger(a.log), gate.WithMetrics(a.metrics))
	a.nav = gate.NewNavigator(a.gate, gate.DefaultLoginPath, gwhttp.Routes(gate.DefaultLoginPath)...)

	a.log.Debug("clients_initialized", slog.String("session_driver", cfg.Session.Driver))

	return nil
}

func (a *app) close() {
	if a.nav != nil {
		a.nav.Close()
	}

	if a.cl != nil {
		if err := a.cl.Close(); err != nil {
			a.log.Warn("clients_close_failed", slog.String("err", err.Error()))
		}
	}

	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("session_close_failed", slog.String("err", err.Error()))
		}
	}
}

// setupLogger — обработчик по окружению. CLI пишет логи в w (stderr),
// чтобы stdout оставался под вывод команд.
func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
