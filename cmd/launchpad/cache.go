package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openplace/launchpad/internal/cacheindex"
)

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean the download cache",
	}
	cmd.AddCommand(a.cacheListCmd(), a.cacheClearCmd())
	return cmd
}

func (a *app) cacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached release archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := cacheindex.Open(a.indexPath())
			if err != nil {
				return err
			}
			defer index.Close()

			entries, err := index.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("Cache is empty")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("v%-12s %-40s %10s  %s\n",
					e.Version, e.Filename,
					humanize.Bytes(uint64(e.Size)),
					e.DownloadedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func (a *app) cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached release archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := cacheindex.Open(a.indexPath())
			if err != nil {
				return err
			}
			defer index.Close()

			removed, err := index.Clear()
			if err != nil {
				return err
			}
			color.Green("Removed %d cached archive(s)", removed)
			return nil
		},
	}
}
