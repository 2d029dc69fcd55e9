// Package domain defines the core data structures for the VPN profile
// manager: named connection profiles, the provider kinds that select a
// client adapter, and audit records.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ProviderKind selects which external VPN client drives a profile.
type ProviderKind string

const (
	ProviderCisco ProviderKind = "cisco"
	ProviderForti ProviderKind = "forti"
)

// ParseProviderKind converts user input to a ProviderKind.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch ProviderKind(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderCisco:
		return ProviderCisco, nil
	case ProviderForti:
		return ProviderForti, nil
	default:
		return "", errors.New("unsupported provider kind: " + s + " (expected cisco or forti)")
	}
}

// Valid reports whether the kind is one of the supported providers.
func (k ProviderKind) Valid() bool {
	return k == ProviderCisco || k == ProviderForti
}

// SupportedProviders lists every provider kind the tool can drive.
func SupportedProviders() []ProviderKind {
	return []ProviderKind{ProviderCisco, ProviderForti}
}

// Profile is a named, persisted VPN connection record.
type Profile struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Host      string       `json:"host"`
	Username  string       `json:"username"`
	Secret    string       `json:"secret"`
	Provider  ProviderKind `json:"provider"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ProfileID derives the storage key for a profile name. The same name
// always yields the same ID.
func ProfileID(name string) string {
	sum := sha256.Sum256([]byte("vpnctl-profile:" + name))
	return hex.EncodeToString(sum[:16])
}

// Validate checks the invariant that every stored profile carries a name,
// host, username, secret, and a supported provider kind.
func (p *Profile) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return errors.New("profile name must not be empty")
	case strings.TrimSpace(p.Host) == "":
		return errors.New("profile host must not be empty")
	case strings.TrimSpace(p.Username) == "":
		return errors.New("profile username must not be empty")
	case p.Secret == "":
		return errors.New("profile secret must not be empty")
	case !p.Provider.Valid():
		return errors.New("profile provider must be one of: cisco, forti")
	}
	return nil
}

// Operation is an audit log record for a store mutation or a connection
// outcome.
type Operation struct {
	Type      string    `json:"type"`
	Profile   string    `json:"profile"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}
