//go:build !windows

package launch

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func validateExecutableMode(exePath string, info os.FileInfo) error {
	if info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("file is not executable: %s", exePath)
	}
	return nil
}
