package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Backup holds user data copied aside before an update overwrites the
// installation directory.
type Backup struct {
	dir     string
	folders []string
	logger  *zap.Logger
}

// BackupUserData copies the named folders out of installDir into a temporary
// directory. Folders that do not exist are skipped.
func BackupUserData(logger *zap.Logger, installDir string, folders []string) (*Backup, error) {
	backupDir, err := os.MkdirTemp("", "launchpad-backup-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	b := &Backup{dir: backupDir, logger: logger}
	for _, folder := range folders {
		src := filepath.Join(installDir, folder)
		info, err := os.Stat(src)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := copyDir(src, filepath.Join(backupDir, folder)); err != nil {
			b.Discard()
			return nil, fmt.Errorf("failed to back up %s: %w", folder, err)
		}
		b.folders = append(b.folders, folder)
		logger.Info("backed up user data folder", zap.String("folder", folder))
	}
	return b, nil
}

// Restore copies the backed-up folders back into installDir and removes the
// backup directory.
func (b *Backup) Restore(installDir string) error {
	for _, folder := range b.folders {
		src := filepath.Join(b.dir, folder)
		dst := filepath.Join(installDir, folder)
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to clear %s before restore: %w", folder, err)
		}
		if err := copyDir(src, dst); err != nil {
			return fmt.Errorf("failed to restore %s: %w", folder, err)
		}
		b.logger.Info("restored user data folder", zap.String("folder", folder))
	}
	return b.Discard()
}

// Discard removes the backup directory without restoring anything.
func (b *Backup) Discard() error {
	return os.RemoveAll(b.dir)
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
