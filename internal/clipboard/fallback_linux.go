//go:build linux

package clipboard

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// trySetClipboard best-effort copies text to the user's clipboard.
// On Wayland it prefers wl-copy (wl-clipboard). On X11 it prefers xclip.
func trySetClipboard(text string) error {
	session := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))

	if session == "wayland" {
		if _, err := exec.LookPath("wl-copy"); err == nil {
			return pipeTo(text, "wl-copy")
		}
		// Fall through to xclip if wl-copy is missing.
	}

	if _, err := exec.LookPath("xclip"); err == nil {
		return pipeTo(text, "xclip", "-selection", "clipboard")
	}

	return fmt.Errorf("no clipboard tool found (need wl-copy for Wayland or xclip for X11)")
}

func pipeTo(text, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %v (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
