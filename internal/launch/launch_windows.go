//go:build windows

package launch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
)

const createNewProcessGroup = 0x00000200

func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}

func validateExecutableMode(exePath string, _ os.FileInfo) error {
	if !strings.EqualFold(filepath.Ext(exePath), ".exe") {
		return fmt.Errorf("file is not executable: %s", exePath)
	}
	return nil
}
