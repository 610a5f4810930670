package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openplace/launchpad/internal/config"
	"github.com/openplace/launchpad/internal/launch"
)

func (a *app) launchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch [-- args...]",
		Short: "Start the installed application",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if err := config.ValidateInstallationPath(cfg.App.InstallationPath, cfg.App.ExeName, config.ModeUpdate); err != nil {
				return err
			}

			launcher := launch.New(a.log)
			pid, err := launcher.Start(cfg.App.InstallationPath, cfg.App.ExeName, args...)
			if err != nil {
				return err
			}
			color.Green("Launched %s (pid %d)", cfg.App.ExeName, pid)
			return nil
		},
	}
}
