//go:build !linux && !darwin && !windows

package clipboard

import "errors"

func trySetClipboard(string) error {
	return errors.New("no clipboard fallback on this platform")
}
