package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openplace/launchpad/internal/cacheindex"
	"github.com/openplace/launchpad/internal/config"
	"github.com/openplace/launchpad/internal/download"
	"github.com/openplace/launchpad/internal/extract"
	"github.com/openplace/launchpad/internal/retry"
	"github.com/openplace/launchpad/internal/update"
)

func (a *app) updateCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download and install the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUpdate(cmd, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reinstall even when already on the latest version")
	return cmd
}

func (a *app) runUpdate(cmd *cobra.Command, force bool) error {
	cfg := a.cfg
	if err := config.ValidateInstallationPath(cfg.App.InstallationPath, cfg.App.ExeName, cfg.App.InstallationMode); err != nil {
		return err
	}

	checkURL, err := a.updateCheckURL()
	if err != nil {
		return err
	}
	checker := update.NewChecker(a.log, cfg.Download.UserAgent)
	info, err := checker.Check(cmd.Context(), checkURL, cfg.App.CurrentVersion)
	if err != nil {
		return err
	}
	if !info.Available && !force && cfg.App.InstallationMode != config.ModeFreshInstall {
		color.Green("Already up to date (version %s)", cfg.App.CurrentVersion)
		return nil
	}
	version := info.LatestVersion

	index, err := cacheindex.Open(a.indexPath())
	if err != nil {
		return err
	}
	defer index.Close()

	archive, err := a.obtainArchive(cmd, index, version, info)
	if err != nil {
		return err
	}

	if err := a.install(archive, version); err != nil {
		return err
	}

	// Older cached archives are no longer useful once the new version is in.
	if removed, err := index.Prune(version); err != nil {
		a.log.Warn("cache prune failed", zap.Error(err))
	} else if removed > 0 {
		a.log.Info("pruned stale cached archives", zap.Int("removed", removed))
	}

	color.Green("Updated to version %s", version)
	return nil
}

// obtainArchive returns a validated local archive for version, reusing the
// cache when possible and downloading (with resume) otherwise.
func (a *app) obtainArchive(cmd *cobra.Command, index *cacheindex.Store, version string, info *update.Info) (string, error) {
	if entry, err := index.Lookup(version); err == nil {
		if download.ValidateCachedFile(a.log, entry.Path, entry.Size) {
			color.Cyan("Using cached archive %s", entry.Filename)
			return entry.Path, nil
		}
		a.log.Warn("cached archive failed validation, re-downloading",
			zap.String("path", entry.Path))
	} else if !errors.Is(err, cacheindex.ErrNotFound) {
		return "", err
	}

	if info.DownloadURL == "" {
		return "", fmt.Errorf("release %s has no downloadable asset", version)
	}

	dest := cacheindex.FilePath(a.cacheDir(), version, info.AssetName)
	mgr := a.newDownloadManager()
	renderer := startProgressRenderer()
	err := mgr.Download(cmd.Context(), info.DownloadURL, dest, true, renderer.callback())
	renderer.stop()
	if err != nil {
		return "", err
	}

	if !download.ValidateCachedFile(a.log, dest, 0) {
		os.Remove(dest)
		return "", fmt.Errorf("downloaded archive failed validation: %s", dest)
	}

	st, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("failed to stat downloaded archive: %w", err)
	}
	if err := index.Record(cacheindex.Entry{
		Version:      version,
		Filename:     info.AssetName,
		Path:         dest,
		Size:         st.Size(),
		DownloadedAt: time.Now(),
	}); err != nil {
		return "", err
	}
	return dest, nil
}

// install extracts the archive over the installation directory, carrying the
// configured user data folders across the swap, then persists the new version.
func (a *app) install(archive, version string) error {
	cfg := a.cfg

	backup, err := extract.BackupUserData(a.log, cfg.App.InstallationPath, cfg.App.PreserveFolders)
	if err != nil {
		return err
	}

	extractor := extract.New(a.log)
	if err := extractor.Extract(archive, cfg.App.InstallationPath); err != nil {
		// Put user data back even when the new files did not land.
		if rerr := backup.Restore(cfg.App.InstallationPath); rerr != nil {
			a.log.Error("failed to restore user data after extraction failure", zap.Error(rerr))
		}
		return err
	}
	if err := backup.Restore(cfg.App.InstallationPath); err != nil {
		return err
	}

	cfg.App.CurrentVersion = version
	cfg.App.InstallationMode = config.ModeUpdate
	cfg.App.LastCheck = time.Now().UTC().Format(time.RFC3339)
	return config.Save(cfg, a.cfgPath)
}

func (a *app) cacheDir() string {
	return a.cfg.Cache.Dir
}

func (a *app) indexPath() string {
	if a.cfg.Cache.IndexPath != "" {
		return a.cfg.Cache.IndexPath
	}
	return filepath.Join(a.cacheDir(), "index.db")
}

func (a *app) downloadPolicy() retry.Policy {
	p := retry.ForNetwork()
	p.MaxRetries = a.cfg.Download.MaxRetries
	p.BaseDelay = a.cfg.Download.GetBackoffBase()
	p.MaxDelay = a.cfg.Download.GetBackoffMax()
	p.ChunkTimeout = a.cfg.Download.GetChunkTimeout()
	p.Strategy = retry.Exponential{Base: p.BaseDelay, Multiplier: 2}
	return p
}
