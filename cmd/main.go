// dualkey - dual-role keys for X11
// Tapping a key emits a substitute key; holding it keeps its modifier role.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dualkey/internal/config"
	"dualkey/internal/logging"
)

var version = "0.3.0"

var (
	cfgPath   string
	cfgMgr    *config.Manager
	log       = zerolog.Nop()
	rootFlags struct {
		display   string
		threshold time.Duration
		tray      bool
		logLevel  string
		logFormat string
	}
)

var rootCmd = &cobra.Command{
	Use:   "dualkey",
	Short: "Give keys a second role when tapped",
	Long: `dualkey watches every key event on the X display.

A monitored key that is pressed and released on its own within the tap
threshold emits its substitute key. Held together with other keys it keeps
the role the keyboard layout gives it, usually a modifier.

Running dualkey without a subcommand is the same as 'dualkey run'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		switch cmd.Name() {
		case "help", "completion", "version":
			return nil
		}

		var err error
		cfgMgr, err = config.NewManager(cfgPath)
		if err != nil {
			return fmt.Errorf("initialize config: %w", err)
		}
		return bindFlags(cmd)
	},
	RunE: runDaemon,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dualkey version %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/dualkey/config.json)")
	pf.StringVar(&rootFlags.display, "display", "", "X display to attach to (default $DISPLAY)")
	pf.DurationVar(&rootFlags.threshold, "threshold", config.DefaultThreshold, "longest press that counts as a tap")
	pf.BoolVar(&rootFlags.tray, "tray", false, "show a system tray icon")
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(versionCmd)
}

// bindFlags lets command line flags override the file and environment.
// Only flags that were set explicitly take precedence.
func bindFlags(cmd *cobra.Command) error {
	v := cfgMgr.Viper()
	bindings := map[string]string{
		"display":    "display",
		"threshold":  "threshold",
		"tray":       "tray",
		"log.level":  "log-level",
		"log.format": "log-format",
	}
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// loadConfig reads the configuration and builds the logger from it.
func loadConfig() (*config.Config, error) {
	if err := cfgMgr.Load(); err != nil {
		return nil, err
	}
	cfg := cfgMgr.Get()

	lc := logging.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	l, err := logging.New(lc)
	if err != nil {
		return nil, err
	}
	log = l
	log.Debug().Str("path", cfgMgr.Path()).Msg("Configuration loaded")
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dualkey: %v\n", err)
		os.Exit(1)
	}
}
