package db

import (
	"context"
	"testing"
)

func TestMigrateUp(t *testing.T) {
	ctx := context.Background()

	database, err := OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	defer database.Close()

	// Apply all migrations
	applied, err := database.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	if applied == 0 {
		t.Error("expected at least one migration to be applied")
	}

	// Check version
	version, err := database.getCurrentVersion(ctx)
	if err != nil {
		t.Fatalf("getCurrentVersion failed: %v", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	maxVersion := 0
	for _, migration := range migrations {
		if migration.Version > maxVersion {
			maxVersion = migration.Version
		}
	}
	if version != maxVersion {
		t.Errorf("expected version %d, got %d", maxVersion, version)
	}

	// Run again - should be idempotent
	applied, err = database.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	if applied != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", applied)
	}
}

func TestMigrateTablesCreated(t *testing.T) {
	ctx := context.Background()

	database, err := OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	defer database.Close()

	// Apply migrations
	_, err = database.MigrateUp(ctx)
	if err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	// Check that core tables exist
	tables := []string{"passes", "schema_version"}

	for _, table := range tables {
		var count int
		err := database.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s should exist", table)
		}
	}
}

func TestMigrationDescriptions(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}

	// Versions must be unique and ascending.
	last := 0
	for _, m := range migrations {
		if m.Version <= last {
			t.Errorf("migration versions out of order: %d after %d", m.Version, last)
		}
		last = m.Version
		if m.Description == "" {
			t.Errorf("migration %d has no description", m.Version)
		}
		if m.UpSQL == "" {
			t.Errorf("migration %d has no SQL", m.Version)
		}
	}
}
