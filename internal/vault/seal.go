package vault

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Vault wraps the envelope engine with in-place file sealing and the
// scoped acquisition used around every profile store operation.
type Vault struct {
	engine *Engine
	logger *zap.Logger
}

// New constructs a Vault around the given master key.
func New(master []byte, logger *zap.Logger) (*Vault, error) {
	engine, err := NewEngine(master)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{engine: engine, logger: logger}, nil
}

// SealFile encrypts the file at path in place.
func (v *Vault) SealFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	envelope, err := v.engine.Seal(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, EnvelopeToBytes(envelope), 0o600); err != nil {
		return fmt.Errorf("failed to write sealed store file: %w", err)
	}
	return nil
}

// UnsealFile decrypts the file at path in place. A file that is not a
// valid envelope, or that was sealed with a different key, is left
// unchanged and the failure is swallowed: callers cannot tell the two
// cases apart, matching IsSealed.
func (v *Vault) UnsealFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	plaintext, err := v.open(data)
	if err != nil {
		v.logger.Debug("unseal left file unchanged", zap.String("path", path), zap.Error(err))
		return nil
	}

	if err := os.WriteFile(path, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write unsealed store file: %w", err)
	}
	return nil
}

// IsSealed probes whether the file at path decrypts under this vault's
// key, without writing. False covers both an unsealed file and one sealed
// with a different key.
func (v *Vault) IsSealed(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, err = v.open(data)
	return err == nil
}

func (v *Vault) open(data []byte) ([]byte, error) {
	envelope, err := EnvelopeFromBytes(data)
	if err != nil {
		return nil, err
	}
	return v.engine.Open(envelope)
}

// WithStore runs fn with the store file at path unsealed, resealing on
// every exit path including an fn error. Process termination inside the
// window can leave the file unsealed; that risk window is accepted.
func (v *Vault) WithStore(path string, fn func() error) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		if v.IsSealed(path) {
			if unsealErr := v.UnsealFile(path); unsealErr != nil {
				return unsealErr
			}
		}
	}

	defer func() {
		if _, statErr := os.Stat(path); statErr != nil {
			return
		}
		if sealErr := v.SealFile(path); sealErr != nil && err == nil {
			err = sealErr
		}
	}()

	return fn()
}
