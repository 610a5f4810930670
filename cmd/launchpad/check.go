package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openplace/launchpad/internal/config"
	"github.com/openplace/launchpad/internal/update"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the release feed for a newer version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checkURL, err := a.updateCheckURL()
			if err != nil {
				return err
			}
			checker := update.NewChecker(a.log, a.cfg.Download.UserAgent)
			info, err := checker.Check(cmd.Context(), checkURL, a.cfg.App.CurrentVersion)
			if err != nil {
				return err
			}

			a.cfg.App.LastCheck = time.Now().UTC().Format(time.RFC3339)
			if err := config.Save(a.cfg, a.cfgPath); err != nil {
				return err
			}

			if !info.Available {
				color.Green("Up to date (version %s)", a.cfg.App.CurrentVersion)
				return nil
			}
			color.Cyan("Update available: %s -> %s", a.cfg.App.CurrentVersion, info.LatestVersion)
			fmt.Printf("Asset: %s\n", info.AssetName)
			return nil
		},
	}
}
