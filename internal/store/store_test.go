package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/vpn-cli/vpnctl/internal/domain"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.db")
	bs, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { bs.Close() })
	return bs
}

func officeProfile() *domain.Profile {
	return &domain.Profile{
		Name:     "office",
		Host:     "vpn.example.com",
		Username: "alice",
		Secret:   "s3cret",
		Provider: domain.ProviderCisco,
	}
}

func TestInsertAndGet(t *testing.T) {
	bs := openTestStore(t)

	if err := bs.Insert(officeProfile()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := bs.Get("office")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Host != "vpn.example.com" || got.Username != "alice" || got.Secret != "s3cret" {
		t.Errorf("Get returned wrong fields: %+v", got)
	}
	if got.ID != domain.ProfileID("office") {
		t.Errorf("ID = %q, want deterministic hash of name", got.ID)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be assigned on insert")
	}
}

func TestInsert_DuplicateLeavesOriginalUntouched(t *testing.T) {
	bs := openTestStore(t)

	if err := bs.Insert(officeProfile()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	dup := officeProfile()
	dup.Host = "other.example.com"
	if err := bs.Insert(dup); !errors.Is(err, ErrProfileExists) {
		t.Fatalf("duplicate Insert error = %v, want ErrProfileExists", err)
	}

	got, err := bs.Get("office")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Host != "vpn.example.com" {
		t.Errorf("first profile mutated by failed insert: host = %q", got.Host)
	}
}

func TestInsert_RejectsInvalidProfile(t *testing.T) {
	bs := openTestStore(t)

	tests := []struct {
		name    string
		mutate  func(*domain.Profile)
	}{
		{"empty host", func(p *domain.Profile) { p.Host = "" }},
		{"empty username", func(p *domain.Profile) { p.Username = "" }},
		{"empty secret", func(p *domain.Profile) { p.Secret = "" }},
		{"bad provider", func(p *domain.Profile) { p.Provider = "wireguard" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := officeProfile()
			tt.mutate(p)
			if err := bs.Insert(p); err == nil {
				t.Error("Insert should reject invalid profile")
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	bs := openTestStore(t)

	if err := bs.Insert(officeProfile()); err != nil {
		t.Fatal(err)
	}
	before, _ := bs.Get("office")

	fields := domain.Profile{
		Host:     "vpn2.example.com",
		Username: "bob",
		Secret:   "n3w",
		Provider: domain.ProviderForti,
	}

	// Without overwrite the existing profile is reported as a conflict.
	if err := bs.Update("office", fields, false); !errors.Is(err, ErrProfileExists) {
		t.Fatalf("Update without overwrite error = %v, want ErrProfileExists", err)
	}
	unchanged, _ := bs.Get("office")
	if unchanged.Host != "vpn.example.com" {
		t.Error("Update without overwrite must not mutate the profile")
	}

	if err := bs.Update("office", fields, true); err != nil {
		t.Fatalf("Update with overwrite failed: %v", err)
	}
	after, _ := bs.Get("office")
	if after.Host != "vpn2.example.com" || after.Username != "bob" || after.Secret != "n3w" || after.Provider != domain.ProviderForti {
		t.Errorf("Update did not replace fields: %+v", after)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("Update must preserve CreatedAt")
	}
	if !after.UpdatedAt.After(before.UpdatedAt) && !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("Update must refresh UpdatedAt")
	}

	if err := bs.Update("missing", fields, true); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Update of missing profile error = %v, want ErrProfileNotFound", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	bs := openTestStore(t)
	if _, err := bs.Get("missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Get miss error = %v, want ErrProfileNotFound", err)
	}
}

func TestList_InsertionOrderAndFilter(t *testing.T) {
	bs := openTestStore(t)

	names := []string{"office", "lab", "home"}
	kinds := []domain.ProviderKind{domain.ProviderCisco, domain.ProviderForti, domain.ProviderCisco}
	for i, name := range names {
		p := officeProfile()
		p.Name = name
		p.Provider = kinds[i]
		if err := bs.Insert(p); err != nil {
			t.Fatalf("Insert %s failed: %v", name, err)
		}
	}

	all, err := bs.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List returned %d profiles, want 3", len(all))
	}
	for i, p := range all {
		if p.Name != names[i] {
			t.Errorf("List order mismatch at %d: got %q, want %q", i, p.Name, names[i])
		}
	}

	cisco, err := bs.List(domain.ProviderCisco)
	if err != nil {
		t.Fatalf("List with filter failed: %v", err)
	}
	if len(cisco) != 2 || cisco[0].Name != "office" || cisco[1].Name != "home" {
		t.Errorf("filtered List wrong: %+v", cisco)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	bs := openTestStore(t)

	if err := bs.Insert(officeProfile()); err != nil {
		t.Fatal(err)
	}

	// Deleting a profile that never existed is a no-op.
	if err := bs.Delete("missing"); err != nil {
		t.Errorf("Delete of missing profile should not error, got: %v", err)
	}
	all, _ := bs.List("")
	if len(all) != 1 {
		t.Errorf("Delete of missing profile changed the store: %d profiles", len(all))
	}

	if err := bs.Delete("office"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := bs.Get("office"); !errors.Is(err, ErrProfileNotFound) {
		t.Error("profile should be gone after Delete")
	}

	// Deleting twice is equivalent to deleting once.
	if err := bs.Delete("office"); err != nil {
		t.Errorf("second Delete should not error, got: %v", err)
	}
}

func TestAuditLog(t *testing.T) {
	bs := openTestStore(t)

	ops := []*domain.Operation{
		{Type: "create", Profile: "office", Success: true},
		{Type: "connect", Profile: "office", Detail: "succeeded after 2 attempts", Success: true},
		{Type: "connect", Profile: "office", Detail: "exhausted 3 attempts", Success: false},
	}
	for _, op := range ops {
		if err := bs.LogOperation(op); err != nil {
			t.Fatalf("LogOperation failed: %v", err)
		}
	}

	log, err := bs.AuditLog()
	if err != nil {
		t.Fatalf("AuditLog failed: %v", err)
	}
	if len(log) != 3 {
		t.Fatalf("AuditLog returned %d records, want 3", len(log))
	}
	for i, op := range log {
		if op.Type != ops[i].Type || op.Success != ops[i].Success {
			t.Errorf("audit record %d mismatch: %+v", i, op)
		}
		if op.Timestamp.IsZero() {
			t.Errorf("audit record %d missing timestamp", i)
		}
	}
}
