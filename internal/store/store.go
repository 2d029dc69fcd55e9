// Package store persists named VPN profiles in a bbolt database. The
// database file is the artifact the vault seals at rest; every operation
// here runs inside the vault's scoped acquisition, against the unsealed
// file.
package store

import (
	"errors"

	"github.com/vpn-cli/vpnctl/internal/domain"
)

// Error variables for profile store operations
var (
	// ErrProfileExists is returned when inserting a profile whose name is taken.
	ErrProfileExists = errors.New("profile already exists")
	// ErrProfileNotFound is returned when the named profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrStoreCorrupted is returned when the store file is not a usable database.
	ErrStoreCorrupted = errors.New("profile store is corrupted")
)

// ProfileStore defines the profile persistence contract.
type ProfileStore interface {
	Insert(profile *domain.Profile) error
	Update(name string, fields domain.Profile, overwrite bool) error
	Get(name string) (*domain.Profile, error)
	List(kind domain.ProviderKind) ([]*domain.Profile, error)
	Delete(name string) error

	LogOperation(op *domain.Operation) error
	AuditLog() ([]*domain.Operation, error)

	Close() error
}
