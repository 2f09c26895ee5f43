package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dualkey/internal/autostart"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Start dualkey on login",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Install the XDG autostart entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		args := []string{"run"}
		if cfgPath != "" {
			abs, err := filepath.Abs(cfgPath)
			if err != nil {
				return err
			}
			args = append(args, "--config", abs)
		}
		if err := autostart.Enable(args...); err != nil {
			return fmt.Errorf("enable autostart: %w", err)
		}
		path, _ := autostart.EntryPath()
		fmt.Fprintf(cmd.OutOrStdout(), "Autostart enabled: %s\n", path)
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the XDG autostart entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := autostart.Disable(); err != nil {
			return fmt.Errorf("disable autostart: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled")
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the autostart entry is installed",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if autostart.IsEnabled() {
			fmt.Fprintln(cmd.OutOrStdout(), "enabled")
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), "disabled")
	},
}

func init() {
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartStatusCmd)
	rootCmd.AddCommand(autostartCmd)
}
