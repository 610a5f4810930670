// Package launch starts the installed application as a detached process.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// Launcher validates and spawns the installed executable.
type Launcher struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Launcher {
	return &Launcher{logger: logger}
}

// Start validates the executable under installDir and spawns it detached,
// with installDir as its working directory. It does not wait for exit.
func (l *Launcher) Start(installDir, exeName string, args ...string) (int, error) {
	exePath := filepath.Join(installDir, exeName)
	if err := validateExecutable(exePath); err != nil {
		return 0, err
	}

	cmd := exec.Command(exePath, args...)
	cmd.Dir = installDir
	configureDetached(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to launch application: %w", err)
	}
	pid := cmd.Process.Pid

	// The child outlives us; release our handle on it.
	if err := cmd.Process.Release(); err != nil {
		l.logger.Warn("failed to release process handle", zap.Error(err))
	}

	l.logger.Info("launched application",
		zap.String("exe", exePath), zap.Int("pid", pid))
	return pid, nil
}

func validateExecutable(exePath string) error {
	info, err := os.Stat(exePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("executable not found: %s", exePath)
		}
		return fmt.Errorf("failed to stat executable: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("executable path is a directory: %s", exePath)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("executable is not a regular file: %s", exePath)
	}
	return validateExecutableMode(exePath, info)
}
