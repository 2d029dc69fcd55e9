// Package util provides shared helpers for the vpnctl command: exit codes
// and error-to-exit-code mapping.
package util

import (
	"fmt"
	"os"
)

// Exit codes. The CLI contract distinguishes connection failures from
// configuration and input errors.
const (
	ExitOK              = 0
	ExitError           = 1
	ExitInvalidInput    = 2
	ExitConnectFailed   = 3
	ExitNetworkNotReady = 4
)

// ExitWithCode exits the program with the specified code and message.
func ExitWithCode(code int, format string, args ...interface{}) {
	if format != "" {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	os.Exit(code)
}

// HandleError prints the error with optional context and exits with
// ExitError. Does nothing for a nil error.
func HandleError(err error, context string) {
	if err == nil {
		return
	}
	if context != "" {
		ExitWithCode(ExitError, "Error: %s - %v", context, err)
	}
	ExitWithCode(ExitError, "Error: %v", err)
}

// WrapError wraps an error with additional context.
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
