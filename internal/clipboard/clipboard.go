// Package clipboard copies profile secrets to the system clipboard with
// an automatic clear so credentials do not linger.
package clipboard

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
)

// CopyWithTimeout copies text to the clipboard and clears it after the
// timeout, unless something else has replaced it in the meantime.
func CopyWithTimeout(text string, timeout time.Duration) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}

	go func() {
		time.Sleep(timeout)
		current, err := clipboard.ReadAll()
		if err == nil && current == text {
			_ = clipboard.WriteAll("")
		}
	}()

	return nil
}

// IsAvailable returns true if clipboard functionality is available.
func IsAvailable() bool {
	_, err := clipboard.ReadAll()
	return err == nil
}

// Clear clears the clipboard.
func Clear() error {
	return clipboard.WriteAll("")
}
