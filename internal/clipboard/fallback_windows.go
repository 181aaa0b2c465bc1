//go:build windows

package clipboard

import (
	"fmt"
	"os/exec"
	"strings"
)

// Windows clipboard helper: PowerShell Set-Clipboard reads the value from
// stdin so it never shows up in a process listing.
func trySetClipboard(text string) error {
	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", "$input | Set-Clipboard")
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("Set-Clipboard failed: %v (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
