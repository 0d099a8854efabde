package database

import "testing"

func TestLatestMigrationVersionMatchesEmbeddedMigrations(t *testing.T) {
	if LatestMigrationVersion() != latestMigrationVersion {
		t.Fatalf("LatestMigrationVersion() = %d, want %d", LatestMigrationVersion(), latestMigrationVersion)
	}
	if LatestMigrationVersion() < 1 {
		t.Fatal("expected at least one embedded migration")
	}
}
