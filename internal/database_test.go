package internal

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/cc-convo/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "valid database",
			setup: func(t *testing.T) string {
				dbPath := filepath.Join(testutil.CreateTempDir(t), "test.db")
				testutil.CreateSQLiteFile(t, dbPath, "CREATE TABLE t (x INTEGER)")
				return dbPath
			},
			wantErr: false,
		},
		{
			name: "non-existent database",
			setup: func(t *testing.T) string {
				// Read-only mode fails on a missing file at ping time
				return filepath.Join(testutil.CreateTempDir(t), "nonexistent.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := tt.setup(t)
			db, err := OpenDatabase(dbPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if db == nil {
					t.Fatal("OpenDatabase() returned nil database")
				}
				db.Close()
			}
		})
	}
}

func TestOpenWritableDatabase_CreatesParent(t *testing.T) {
	dbPath := filepath.Join(testutil.CreateTempDir(t), "a", "b", "w.db")
	db, err := OpenWritableDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenWritableDatabase() error = %v", err)
	}
	defer db.Close()

	if err := setSchemaVersion(db, 7); err != nil {
		t.Fatalf("setSchemaVersion() error = %v", err)
	}
	v, err := schemaVersion(db)
	if err != nil {
		t.Fatalf("schemaVersion() error = %v", err)
	}
	if v != 7 {
		t.Errorf("schemaVersion() = %d, want 7", v)
	}
}
