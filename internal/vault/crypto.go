// Package vault owns encryption at rest for the profile store: the
// persisted master key, the AES-256-GCM envelope format, in-place file
// sealing, and the scoped unseal-then-reseal acquisition around store
// operations.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	KeySize   = 32 // AES-256 key size
	SaltSize  = 32 // salt size for Argon2id subkey derivation
	NonceSize = 12 // GCM nonce size
	TagSize   = 16 // GCM tag size

	EnvelopeVersion = 1

	DefaultArgon2Memory      = 64 * 1024 // KiB
	DefaultArgon2Iterations  = 3
	DefaultArgon2Parallelism = 4
)

var (
	ErrInvalidEnvelope  = errors.New("invalid envelope format")
	ErrInvalidVersion   = errors.New("unsupported envelope version")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidKeySize   = errors.New("invalid key size")
)

// Argon2Params holds the subkey derivation parameters recorded in each
// envelope so older files stay readable after a retune.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultArgon2Params returns the default Argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      DefaultArgon2Memory,
		Iterations:  DefaultArgon2Iterations,
		Parallelism: DefaultArgon2Parallelism,
	}
}

// Envelope is the sealed on-disk representation of the store file.
type Envelope struct {
	Version    uint8
	KDFParams  Argon2Params
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

// Engine performs envelope seal and open operations with a fixed master
// key. Each seal derives a fresh subkey from the master key and a random
// salt, so nonce reuse across files is not a concern.
type Engine struct {
	master []byte
	params Argon2Params
}

// NewEngine creates an engine around the given master key.
func NewEngine(master []byte) (*Engine, error) {
	if len(master) != MasterKeySize {
		return nil, ErrInvalidKeySize
	}
	return &Engine{master: master, params: DefaultArgon2Params()}, nil
}

// GenerateSalt creates a cryptographically secure random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateNonce creates a cryptographically secure random nonce.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

func (e *Engine) deriveSubkey(salt []byte, params Argon2Params) []byte {
	return argon2.IDKey(e.master, salt, params.Iterations, params.Memory, params.Parallelism, KeySize)
}

// Seal encrypts plaintext into a fresh envelope.
func (e *Engine) Seal(plaintext []byte) (*Envelope, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}

	key := e.deriveSubkey(salt, e.params)
	defer Zeroize(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	if len(sealed) < TagSize {
		return nil, ErrInvalidEnvelope
	}

	return &Envelope{
		Version:    EnvelopeVersion,
		KDFParams:  e.params,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: sealed[:len(sealed)-TagSize],
		Tag:        sealed[len(sealed)-TagSize:],
	}, nil
}

// Open decrypts an envelope. Any authentication failure, including a
// wrong master key, is reported as ErrDecryptionFailed.
func (e *Engine) Open(envelope *Envelope) ([]byte, error) {
	if envelope.Version != EnvelopeVersion {
		return nil, ErrInvalidVersion
	}
	if len(envelope.Salt) != SaltSize || len(envelope.Nonce) != NonceSize || len(envelope.Tag) != TagSize {
		return nil, ErrInvalidEnvelope
	}

	key := e.deriveSubkey(envelope.Salt, envelope.KDFParams)
	defer Zeroize(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	sealed := make([]byte, len(envelope.Ciphertext)+len(envelope.Tag))
	copy(sealed, envelope.Ciphertext)
	copy(sealed[len(envelope.Ciphertext):], envelope.Tag)

	plaintext, err := gcm.Open(nil, envelope.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Zeroize securely clears a byte slice.
func Zeroize(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

// EnvelopeToBytes serializes an envelope for storage.
// Binary format: version(1) + kdf_params(9) + salt_len(4) + salt +
// nonce_len(4) + nonce + ciphertext_len(4) + ciphertext + tag_len(4) + tag.
func EnvelopeToBytes(envelope *Envelope) []byte {
	buf := make([]byte, 0, 1+9+4+len(envelope.Salt)+4+len(envelope.Nonce)+4+len(envelope.Ciphertext)+4+len(envelope.Tag))

	buf = append(buf, envelope.Version)

	buf = binary.LittleEndian.AppendUint32(buf, envelope.KDFParams.Memory)
	buf = binary.LittleEndian.AppendUint32(buf, envelope.KDFParams.Iterations)
	buf = append(buf, envelope.KDFParams.Parallelism)

	for _, field := range [][]byte{envelope.Salt, envelope.Nonce, envelope.Ciphertext, envelope.Tag} {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(field)))
		buf = append(buf, field...)
	}

	return buf
}

// EnvelopeFromBytes deserializes an envelope produced by EnvelopeToBytes.
func EnvelopeFromBytes(data []byte) (*Envelope, error) {
	if len(data) < 1+9 {
		return nil, ErrInvalidEnvelope
	}

	envelope := &Envelope{Version: data[0]}
	envelope.KDFParams.Memory = binary.LittleEndian.Uint32(data[1:5])
	envelope.KDFParams.Iterations = binary.LittleEndian.Uint32(data[5:9])
	envelope.KDFParams.Parallelism = data[9]

	rest := data[10:]
	fields := make([][]byte, 4)
	for i := range fields {
		if len(rest) < 4 {
			return nil, ErrInvalidEnvelope
		}
		n := binary.LittleEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint32(len(rest)) < n {
			return nil, ErrInvalidEnvelope
		}
		fields[i] = rest[:n]
		rest = rest[n:]
	}
	if len(rest) != 0 {
		return nil, ErrInvalidEnvelope
	}

	envelope.Salt = fields[0]
	envelope.Nonce = fields[1]
	envelope.Ciphertext = fields[2]
	envelope.Tag = fields[3]
	return envelope, nil
}
