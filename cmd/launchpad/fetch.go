package main

import (
	"path"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openplace/launchpad/internal/cacheindex"
	"github.com/openplace/launchpad/internal/download"
	"github.com/openplace/launchpad/internal/update"
)

func (a *app) fetchCmd() *cobra.Command {
	var (
		output string
		resume bool
	)
	cmd := &cobra.Command{
		Use:   "fetch [url]",
		Short: "Download the latest release archive into the cache",
		Long: "Without arguments, fetch checks the release feed and downloads the " +
			"latest archive into the cache. With a URL it downloads that file instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.fetchLatest(cmd)
			}

			url := args[0]
			dest := output
			if dest == "" {
				dest = path.Base(strings.SplitN(url, "?", 2)[0])
			}

			mgr := a.newDownloadManager()
			renderer := startProgressRenderer()
			err := mgr.Download(cmd.Context(), url, dest, resume, renderer.callback())
			renderer.stop()
			if err != nil {
				return err
			}
			color.Green("Saved %s", dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default: URL basename)")
	cmd.Flags().BoolVar(&resume, "resume", true, "resume a partial download if present")
	return cmd
}

func (a *app) fetchLatest(cmd *cobra.Command) error {
	checkURL, err := a.updateCheckURL()
	if err != nil {
		return err
	}
	checker := update.NewChecker(a.log, a.cfg.Download.UserAgent)
	info, err := checker.Check(cmd.Context(), checkURL, a.cfg.App.CurrentVersion)
	if err != nil {
		return err
	}
	if !info.Available {
		color.Green("Already up to date (version %s), nothing to fetch", a.cfg.App.CurrentVersion)
		return nil
	}

	index, err := cacheindex.Open(a.indexPath())
	if err != nil {
		return err
	}
	defer index.Close()

	archive, err := a.obtainArchive(cmd, index, info.LatestVersion, info)
	if err != nil {
		return err
	}
	color.Green("Cached %s", archive)
	return nil
}

func (a *app) newDownloadManager() *download.Manager {
	policy := a.downloadPolicy()
	return download.New(a.log, download.Options{
		Policy:       policy,
		UserAgent:    a.cfg.Download.UserAgent,
		MinFreeSpace: a.cfg.Download.GetMinFreeSpace(),
	})
}
