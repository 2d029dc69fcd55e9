package vault

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MasterKeySize is the size of the persisted master key in bytes.
const MasterKeySize = 32

// ErrKeyIO is returned when the master key file cannot be read or written.
// This is fatal: no store operation starts without a usable key.
var ErrKeyIO = errors.New("master key file unreadable or unwritable")

// EnsureKey returns the master key persisted at path, generating and
// persisting a fresh one on first use. Losing this file makes existing
// sealed store data permanently unrecoverable.
func EnsureKey(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		if len(data) != MasterKeySize {
			return nil, fmt.Errorf("%w: unexpected key length %d", ErrKeyIO, len(data))
		}
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v", ErrKeyIO, err)
	}

	key := make([]byte, MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyIO, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyIO, err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyIO, err)
	}

	return key, nil
}
