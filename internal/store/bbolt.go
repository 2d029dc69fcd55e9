package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/vpn-cli/vpnctl/internal/domain"
)

// Bucket names
var (
	ProfilesBucket = []byte("profiles") // profile ID -> profile JSON
	NamesBucket    = []byte("names")    // insertion sequence -> profile ID
	AuditBucket    = []byte("audit")    // sequence -> operation JSON
)

// BoltStore implements ProfileStore using BoltDB.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// Open opens (creating if necessary) the profile database at path. The
// file must already be unsealed; the caller wraps this in vault.WithStore.
func Open(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{ProfilesBucket, NamesBucket, AuditBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (bs *BoltStore) Close() error {
	if bs.db == nil {
		return nil
	}
	err := bs.db.Close()
	bs.db = nil
	return err
}

// Insert stores a new profile. The profile name must be unused; the ID and
// timestamps are assigned here.
func (bs *BoltStore) Insert(profile *domain.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	return bs.db.Update(func(tx *bbolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		names := tx.Bucket(NamesBucket)
		if profiles == nil || names == nil {
			return ErrStoreCorrupted
		}

		id := domain.ProfileID(profile.Name)
		if profiles.Get([]byte(id)) != nil {
			return ErrProfileExists
		}

		now := time.Now().UTC()
		profile.ID = id
		profile.CreatedAt = now
		profile.UpdatedAt = now

		data, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		if err := profiles.Put([]byte(id), data); err != nil {
			return fmt.Errorf("failed to store profile: %w", err)
		}

		// Record insertion order for List.
		seq, err := names.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		return names.Put(seqKey(seq), []byte(id))
	})
}

// Update replaces host, username, secret, and provider of an existing
// profile and refreshes its UpdatedAt. With overwrite false the existing
// profile is left untouched and ErrProfileExists reports the conflict.
func (bs *BoltStore) Update(name string, fields domain.Profile, overwrite bool) error {
	return bs.db.Update(func(tx *bbolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		if profiles == nil {
			return ErrStoreCorrupted
		}

		id := domain.ProfileID(name)
		data := profiles.Get([]byte(id))
		if data == nil {
			return ErrProfileNotFound
		}
		if !overwrite {
			return ErrProfileExists
		}

		var profile domain.Profile
		if err := json.Unmarshal(data, &profile); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
		}

		profile.Host = fields.Host
		profile.Username = fields.Username
		profile.Secret = fields.Secret
		profile.Provider = fields.Provider
		profile.UpdatedAt = time.Now().UTC()

		if err := profile.Validate(); err != nil {
			return err
		}

		updated, err := json.Marshal(&profile)
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		return profiles.Put([]byte(id), updated)
	})
}

// Get retrieves a profile by name.
func (bs *BoltStore) Get(name string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := bs.db.View(func(tx *bbolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		if profiles == nil {
			return ErrStoreCorrupted
		}

		data := profiles.Get([]byte(domain.ProfileID(name)))
		if data == nil {
			return ErrProfileNotFound
		}

		profile = &domain.Profile{}
		if err := json.Unmarshal(data, profile); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// List returns profiles in insertion order. A non-empty kind restricts the
// result to that provider.
func (bs *BoltStore) List(kind domain.ProviderKind) ([]*domain.Profile, error) {
	var result []*domain.Profile
	err := bs.db.View(func(tx *bbolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		names := tx.Bucket(NamesBucket)
		if profiles == nil || names == nil {
			return ErrStoreCorrupted
		}

		return names.ForEach(func(_, id []byte) error {
			data := profiles.Get(id)
			if data == nil {
				// Deleted profile; its order slot is gone too.
				return nil
			}
			var profile domain.Profile
			if err := json.Unmarshal(data, &profile); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
			}
			if kind != "" && profile.Provider != kind {
				return nil
			}
			result = append(result, &profile)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a profile by name. Deleting a name that does not exist is
// a no-op, not an error.
func (bs *BoltStore) Delete(name string) error {
	return bs.db.Update(func(tx *bbolt.Tx) error {
		profiles := tx.Bucket(ProfilesBucket)
		names := tx.Bucket(NamesBucket)
		if profiles == nil || names == nil {
			return ErrStoreCorrupted
		}

		id := []byte(domain.ProfileID(name))
		if profiles.Get(id) == nil {
			return nil
		}
		if err := profiles.Delete(id); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}

		cursor := names.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if string(v) == string(id) {
				return names.Delete(k)
			}
		}
		return nil
	})
}

// LogOperation appends an audit record.
func (bs *BoltStore) LogOperation(op *domain.Operation) error {
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now().UTC()
	}

	return bs.db.Update(func(tx *bbolt.Tx) error {
		audit := tx.Bucket(AuditBucket)
		if audit == nil {
			return ErrStoreCorrupted
		}

		seq, err := audit.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		data, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("failed to marshal operation: %w", err)
		}
		return audit.Put(seqKey(seq), data)
	})
}

// AuditLog returns all audit records in chronological order.
func (bs *BoltStore) AuditLog() ([]*domain.Operation, error) {
	var ops []*domain.Operation
	err := bs.db.View(func(tx *bbolt.Tx) error {
		audit := tx.Bucket(AuditBucket)
		if audit == nil {
			return ErrStoreCorrupted
		}

		return audit.ForEach(func(_, data []byte) error {
			var op domain.Operation
			if err := json.Unmarshal(data, &op); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
			}
			ops = append(ops, &op)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
