package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-redirect-service/internal/domain"
)

func openFile(t *testing.T, open func(string) (*gorm.DB, error), path string) *gorm.DB {
	t.Helper()
	db, err := open(path)
	if err != nil {
		t.Fatalf("open %q: %v", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing", "redirects.db")

	db, err := OpenSQLite(bad)
	if db != nil || !os.IsNotExist(err) {
		t.Fatalf("OpenSQLite(%q) = (%v, %v); want not-exist error", bad, db, err)
	}
}

func TestOpenSQLite_ConnectionTuning(t *testing.T) {
	db := openFile(t, OpenSQLite, filepath.Join(t.TempDir(), "redirects.db"))

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL
	}
	for _, p := range pragmas {
		var got string
		if err := db.Raw("PRAGMA " + p.name).Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", p.name, err)
		}
		if strings.ToLower(got) != p.want {
			t.Fatalf("PRAGMA %s = %q; want %q", p.name, got, p.want)
		}
	}

	sqlDB, _ := db.DB()
	if n := sqlDB.Stats().MaxOpenConnections; n != 10 {
		t.Fatalf("MaxOpenConnections = %d; want 10", n)
	}
}

func TestAutoMigrate_SlugsAndAliasesAreConstrained(t *testing.T) {
	db := openFile(t, OpenSQLite, filepath.Join(t.TempDir(), "redirects.db"))
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, model := range []any{&domain.Destination{}, &domain.Alias{}, &domain.Hit{}, &domain.Idempotency{}} {
		if !m.HasTable(model) {
			t.Fatalf("table for %T missing", model)
		}
	}

	now := time.Now().UTC()
	dest := func(id, slug string) *domain.Destination {
		return &domain.Destination{ID: id, UserID: "ops", Slug: slug, URL: "https://example.com/" + slug, CreatedAt: now, UpdatedAt: now}
	}
	if err := db.Create(dest("d-1", "docs")).Error; err != nil {
		t.Fatalf("insert destination: %v", err)
	}
	if err := db.Create(dest("d-2", "docs")).Error; err == nil || !isUniqueViolation(err) {
		t.Fatalf("second /docs destination: err = %v; want unique violation", err)
	}

	alias := &domain.Alias{ID: "a-1", UserID: "ops", Slug: "help", DestinationID: "d-missing", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(alias).Error; err == nil {
		t.Fatalf("alias to a missing destination was accepted")
	}
	alias.DestinationID = "d-1"
	if err := db.Create(alias).Error; err != nil {
		t.Fatalf("alias to d-1: %v", err)
	}
}

func TestOpenDatabase_LocalForms(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		url  string
		file string
	}{
		{"sqlite scheme", "sqlite://" + filepath.Join(dir, "a.db"), filepath.Join(dir, "a.db")},
		{"bare path", filepath.Join(dir, "b.db"), filepath.Join(dir, "b.db")},
		{"memory dsn", "file:" + uuid.NewString() + "?mode=memory&cache=shared", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := openFile(t, OpenDatabase, tc.url)
			if len(db.Config.Plugins) == 0 {
				t.Fatalf("tracing plugin not installed")
			}
			if err := AutoMigrate(db); err != nil {
				t.Fatalf("AutoMigrate: %v", err)
			}
			if tc.file != "" {
				if _, err := os.Stat(tc.file); err != nil {
					t.Fatalf("database file: %v", err)
				}
			}
		})
	}
}
