package ledger

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/louisbranch/ledgerdb/internal/engine"
	"github.com/louisbranch/ledgerdb/internal/ledger/migrations"
)

// CompatibleVersion is the oldest schema version this code can still
// read.
const CompatibleVersion = 1

// Migrator brings a store's schema up to the newest embedded migration.
type Migrator struct {
	store      *Store
	migrations fs.FS
}

// NewMigrator creates a migrator over the embedded migration files.
func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store, migrations: migrations.FS}
}

// Migrate reads the stored schema version and applies every newer
// migration plus the version bump as one atomic transaction. It returns
// the schema version the store ends up at. A store already at the newest
// version is a no-op.
func (m *Migrator) Migrate(ctx context.Context) (int32, error) {
	steps, err := loadMigrations(m.migrations)
	if err != nil {
		return 0, err
	}
	if len(steps) == 0 {
		return 0, fmt.Errorf("no embedded migrations found")
	}
	target := steps[len(steps)-1].version

	// A fresh store seeds its metadata at version 0 so every migration
	// below applies; a pre-existing store reports its last migrated
	// version.
	current, err := m.store.Initialize(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	if current >= target {
		return current, nil
	}

	commands := make([]engine.Command, 0, len(steps)+1)
	for _, step := range steps {
		if step.version <= current {
			continue
		}
		commands = append(commands, engine.Command{
			Kind: engine.CommandExecute,
			Text: step.sql,
		})
	}
	commands = append(commands, engine.Command{Kind: engine.CommandMigrate})

	if _, err := m.store.RunTransaction(ctx, &engine.Transaction{
		Commands:          commands,
		Version:           target,
		CompatibleVersion: CompatibleVersion,
	}); err != nil {
		return 0, fmt.Errorf("migrate schema %d -> %d: %w", current, target, err)
	}
	return target, nil
}

type migrationStep struct {
	version int32
	sql     string
}

// loadMigrations reads every v<N>.sql file and orders the steps by
// version number.
func loadMigrations(migrationFS fs.FS) ([]migrationStep, error) {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var steps []migrationStep
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, err := parseMigrationVersion(name)
		if err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		steps = append(steps, migrationStep{version: version, sql: string(content)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return steps, nil
}

func parseMigrationVersion(name string) (int32, error) {
	base := strings.TrimSuffix(name, ".sql")
	if !strings.HasPrefix(base, "v") {
		return 0, fmt.Errorf("migration %s: expected v<N>.sql", name)
	}
	version, err := strconv.ParseInt(strings.TrimPrefix(base, "v"), 10, 32)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("migration %s: invalid version number", name)
	}
	return int32(version), nil
}
