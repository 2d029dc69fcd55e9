package vault

import (
	"bytes"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	return key
}

func fastVault(t *testing.T, master []byte) *Vault {
	t.Helper()
	v, err := New(master, nil)
	if err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}
	// Cheap KDF parameters keep the tests fast.
	v.engine.params = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1}
	return v
}

func TestEnsureKey_GeneratesAndReuses(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "keys", "secret.key")

	key1, err := EnsureKey(keyPath)
	if err != nil {
		t.Fatalf("EnsureKey failed on first use: %v", err)
	}
	if len(key1) != MasterKeySize {
		t.Fatalf("Key length = %d, want %d", len(key1), MasterKeySize)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("Key file not created: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Key file permissions = %o, want 0600", info.Mode().Perm())
	}

	key2, err := EnsureKey(keyPath)
	if err != nil {
		t.Fatalf("EnsureKey failed on reuse: %v", err)
	}
	if !bytes.Equal(key1, key2) {
		t.Error("EnsureKey should return the persisted key on subsequent runs")
	}
}

func TestEnsureKey_CorruptKeyFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "secret.key")
	if err := os.WriteFile(keyPath, []byte("short"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := EnsureKey(keyPath)
	if !errors.Is(err, ErrKeyIO) {
		t.Errorf("EnsureKey error = %v, want ErrKeyIO", err)
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	v := fastVault(t, testKey(t))

	plaintexts := [][]byte{
		[]byte("a"),
		[]byte("profile table contents"),
		bytes.Repeat([]byte{0xAB}, 4096),
	}

	for _, plaintext := range plaintexts {
		envelope, err := v.engine.Seal(plaintext)
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}

		decoded, err := EnvelopeFromBytes(EnvelopeToBytes(envelope))
		if err != nil {
			t.Fatalf("Envelope codec round-trip failed: %v", err)
		}

		opened, err := v.engine.Open(decoded)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Error("Round-trip plaintext mismatch")
		}
	}
}

func TestEnvelopeFromBytes_Garbage(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("x"),
		bytes.Repeat([]byte{0xFF}, 64),
	}
	for _, input := range inputs {
		if _, err := EnvelopeFromBytes(input); err == nil {
			t.Errorf("EnvelopeFromBytes(%d bytes of garbage) should fail", len(input))
		}
	}
}

func TestSealUnsealFile_RoundTrip(t *testing.T) {
	v := fastVault(t, testKey(t))
	path := filepath.Join(t.TempDir(), "store.db")
	content := []byte("non-empty store contents")

	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := v.SealFile(path); err != nil {
		t.Fatalf("SealFile failed: %v", err)
	}

	sealed, _ := os.ReadFile(path)
	if bytes.Equal(sealed, content) {
		t.Fatal("SealFile left plaintext on disk")
	}
	if !v.IsSealed(path) {
		t.Error("IsSealed should be true after SealFile")
	}

	if err := v.UnsealFile(path); err != nil {
		t.Fatalf("UnsealFile failed: %v", err)
	}

	unsealed, _ := os.ReadFile(path)
	if !bytes.Equal(unsealed, content) {
		t.Error("Unsealed content differs from original")
	}
	if v.IsSealed(path) {
		t.Error("IsSealed should be false after UnsealFile")
	}
}

func TestUnsealFile_WrongKeyLeavesFileUnchanged(t *testing.T) {
	sealer := fastVault(t, testKey(t))
	other := fastVault(t, testKey(t))
	path := filepath.Join(t.TempDir(), "store.db")

	if err := os.WriteFile(path, []byte("secret contents"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := sealer.SealFile(path); err != nil {
		t.Fatal(err)
	}
	sealed, _ := os.ReadFile(path)

	// Wrong key: decrypt failure is swallowed, bytes stay untouched.
	if err := other.UnsealFile(path); err != nil {
		t.Fatalf("UnsealFile with wrong key should not error, got: %v", err)
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(sealed, after) {
		t.Error("UnsealFile with wrong key must leave ciphertext unchanged")
	}

	if other.IsSealed(path) {
		t.Error("IsSealed with wrong key reports false, by policy")
	}
}

func TestUnsealFile_PlaintextLeftUnchanged(t *testing.T) {
	v := fastVault(t, testKey(t))
	path := filepath.Join(t.TempDir(), "store.db")
	content := []byte("never sealed")

	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := v.UnsealFile(path); err != nil {
		t.Fatalf("UnsealFile on plaintext should not error, got: %v", err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(content, after) {
		t.Error("UnsealFile must leave a non-envelope file unchanged")
	}
}

func TestWithStore_ResealsOnAllExitPaths(t *testing.T) {
	v := fastVault(t, testKey(t))
	path := filepath.Join(t.TempDir(), "store.db")
	if err := os.WriteFile(path, []byte("store"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := v.SealFile(path); err != nil {
		t.Fatal(err)
	}

	// Success path.
	err := v.WithStore(path, func() error {
		if v.IsSealed(path) {
			t.Error("store should be unsealed inside WithStore")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithStore failed: %v", err)
	}
	if !v.IsSealed(path) {
		t.Error("store should be resealed after a successful operation")
	}

	// Error path: the operation error propagates, the file is still resealed.
	opErr := errors.New("operation failed")
	err = v.WithStore(path, func() error { return opErr })
	if !errors.Is(err, opErr) {
		t.Errorf("WithStore error = %v, want the operation error", err)
	}
	if !v.IsSealed(path) {
		t.Error("store should be resealed after a failed operation")
	}
}

func TestWithStore_MissingFile(t *testing.T) {
	v := fastVault(t, testKey(t))
	path := filepath.Join(t.TempDir(), "store.db")

	ran := false
	err := v.WithStore(path, func() error {
		ran = true
		// Simulate a first operation that creates the store file.
		return os.WriteFile(path, []byte("fresh store"), 0o600)
	})
	if err != nil {
		t.Fatalf("WithStore failed: %v", err)
	}
	if !ran {
		t.Fatal("operation did not run")
	}
	if !v.IsSealed(path) {
		t.Error("file created during the operation should be sealed on exit")
	}
}
