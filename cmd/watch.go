package main

import (
	"fmt"
	"io"
	"os/signal"

	"github.com/spf13/cobra"

	"dualkey/internal/daemon"
	"dualkey/internal/input"
	"dualkey/internal/logging"
	"dualkey/internal/osutils"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print intercepted key events",
	Long: `Print every key press and release seen on the display, one per line,
without remapping anything. Useful to find the keycodes to put in the
configuration.

Output columns are the event kind, the keycode and the keysym in the first
column of the keyboard mapping.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// eventPrinter writes one line per event.
type eventPrinter struct {
	out  io.Writer
	kmap *input.KeyboardMap
}

func (p *eventPrinter) HandleEvent(ev input.KeyEvent) {
	fmt.Fprintf(p.out, "%-7s %3d  %s\n", ev.Kind, ev.Code, input.KeyName(ev.Code, p.kmap))
}

func (p *eventPrinter) Reset() {}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), osutils.ShutdownSignals()...)
	defer stop()

	sess, err := input.Open(input.Options{Display: cfg.Display, Logger: log})
	if err != nil {
		return err
	}
	defer closeSession(sess)

	loop, err := daemon.New(daemon.Options{
		Source:  sess.Trap(),
		Handler: &eventPrinter{out: cmd.OutOrStdout(), kmap: sess.KeyboardMap()},
		Logger:  logging.Component(log, "loop"),
	})
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}
