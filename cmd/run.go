package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dualkey/internal/config"
	"dualkey/internal/daemon"
	"dualkey/internal/dualrole"
	"dualkey/internal/input"
	"dualkey/internal/logging"
	"dualkey/internal/osutils"
	"dualkey/internal/tray"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dual-role key daemon",
	Long: `Attach to the X display and remap taps of the monitored keys until
interrupted.

The daemon needs the RECORD and XTEST extensions. The configuration file is
watched and reloaded on change or on SIGHUP; a new display name only takes
effect after a restart.

Examples:
  dualkey run                       # defaults: quote and caps lock
  dualkey run --threshold 250ms     # shorter taps
  dualkey run --tray                # with a tray icon to pause remapping`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), osutils.ShutdownSignals()...)
	defer stop()

	if osutils.IsWayland() {
		log.Warn().Msg("Wayland session detected; only XWayland clients are seen and remapped")
	}

	sess, err := input.Open(input.Options{Display: cfg.Display, Logger: log})
	if err != nil {
		return err
	}
	defer closeSession(sess)

	det, err := newDetector(cfg, sess)
	if err != nil {
		return err
	}
	if cfg.PrimeSubstitutes {
		primeSubstitutes(sess.Injector(), det.Bindings())
	}

	loop, err := daemon.New(daemon.Options{
		Source:  sess.Trap(),
		Handler: det,
		Logger:  logging.Component(log, "loop"),
	})
	if err != nil {
		return err
	}

	var active atomic.Pointer[dualrole.Detector]
	active.Store(det)

	displayName := cfg.Display
	cfgMgr.OnChange(func(newCfg *config.Config) {
		if newCfg.Display != displayName {
			log.Warn().Str("display", newCfg.Display).Msg("Display changed; restart to apply")
		}
		next, err := newDetector(newCfg, sess)
		if err != nil {
			log.Error().Err(err).Msg("Keeping previous configuration")
			return
		}
		if err := loop.Reconfigure(ctx, next); err != nil {
			log.Warn().Err(err).Msg("Failed to apply configuration")
			return
		}
		logStats(active.Swap(next))
		log.Info().
			Int("keys", len(next.Bindings())).
			Dur("threshold", next.Threshold()).
			Msg("Configuration reloaded")
	})
	err = cfgMgr.Watch(ctx, func(err error) {
		log.Error().Err(err).Msg("Failed to reload configuration")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Configuration file will not be watched")
	}
	go watchReloadSignals(ctx, cfgMgr, log)

	log.Info().
		Int("keys", len(det.Bindings())).
		Dur("threshold", det.Threshold()).
		Msg("dualkey started")

	if cfg.Tray {
		err = runWithTray(ctx, stop, loop)
	} else {
		err = loop.Run(ctx)
	}
	logStats(active.Load())
	if err != nil {
		return err
	}
	log.Info().Msg("Shutting down")
	return nil
}

func closeSession(sess io.Closer) {
	if err := sess.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close X session cleanly")
	}
}

func newDetector(cfg *config.Config, sess *input.Session) (*dualrole.Detector, error) {
	det, err := dualrole.NewFromConfig(cfg, sess.KeyboardMap(), sess.Injector(), logging.Component(log, "detector"))
	if err != nil {
		return nil, fmt.Errorf("configure keys: %w", err)
	}
	return det, nil
}

// primeSubstitutes taps every substitute once. Some clients ignore the
// first synthetic event on a keycode they have not seen yet.
func primeSubstitutes(sink input.KeySink, bindings []dualrole.Binding) {
	for _, b := range bindings {
		if err := input.Tap(sink, b.Substitute); err != nil {
			log.Warn().Err(err).Str("key", b.Name).Msg("Failed to prime substitute")
			continue
		}
		log.Debug().Str("key", b.Name).Uint8("substitute", uint8(b.Substitute)).Msg("Primed substitute")
	}
}

// runWithTray runs the event loop in the background while the tray owns
// the main thread. Quitting from the tray cancels ctx.
func runWithTray(ctx context.Context, cancel context.CancelFunc, loop *daemon.Loop) error {
	t := tray.New("dualkey", "dualkey - dual-role keys")
	t.AddCheckItem("Pause remapping", false, func(paused bool) {
		if err := loop.SetPaused(ctx, paused); err != nil {
			log.Warn().Err(err).Msg("Failed to toggle remapping")
		}
	})
	t.AddSeparator()
	t.AddMenuItem("Quit", cancel)

	errc := make(chan error, 1)
	go func() {
		errc <- loop.Run(ctx)
		select {
		case <-t.Ready():
			t.Stop()
		case <-t.Done():
		}
	}()

	t.Run()
	cancel()
	return <-errc
}

func watchReloadSignals(ctx context.Context, mgr *config.Manager, log zerolog.Logger) {
	sigs := osutils.ReloadSignals()
	if len(sigs) == 0 {
		return
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			log.Info().Msg("Reloading configuration")
			if err := mgr.Reload(); err != nil {
				log.Error().Err(err).Msg("Failed to reload configuration")
			}
		}
	}
}

func logStats(det *dualrole.Detector) {
	if det == nil {
		return
	}
	s := det.Stats()
	log.Info().
		Int("taps", s.Taps).
		Int("eager", s.Eager).
		Int("chorded", s.Chorded).
		Int("slow", s.Slow).
		Int("sink_errors", s.SinkErrors).
		Msg("Detector statistics")
}
