package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/louisbranch/ledgerdb/internal/engine"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	e, err := engine.New(path, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)
	return NewStore(e)
}

func TestInitializeFreshStoreReportsTarget(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	version, err := store.Initialize(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if version != 5 {
		t.Fatalf("version = %d, want 5", version)
	}
}

func TestQueryBeforeInitializeFails(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.Query(context.Background(), "SELECT 1",
		[]engine.ColumnType{engine.ColumnInt})
	if !errors.Is(err, ErrInitialization) {
		t.Fatalf("err = %v, want %v", err, ErrInitialization)
	}
}

func TestRunAndQueryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	if _, err := store.Initialize(ctx, 1, 1); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := store.Exec(ctx, "CREATE TABLE balances (owner TEXT, total DOUBLE)"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if err := store.Run(ctx, "INSERT INTO balances (owner, total) VALUES (?, ?)",
		engine.StringValue("alice"), engine.DoubleValue(12.5)); err != nil {
		t.Fatalf("run: %v", err)
	}

	reader, err := store.Query(ctx, "SELECT owner, total FROM balances",
		[]engine.ColumnType{engine.ColumnString, engine.ColumnDouble})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if reader.Len() != 1 {
		t.Fatalf("rows = %d, want 1", reader.Len())
	}
	if !reader.Step() {
		t.Fatal("expected a row")
	}
	if got := reader.ColumnString(0); got != "alice" {
		t.Fatalf("owner = %q, want \"alice\"", got)
	}
	if got := reader.ColumnDouble(1); got != 12.5 {
		t.Fatalf("total = %v, want 12.5", got)
	}
	if reader.Step() {
		t.Fatal("expected exactly one row")
	}
}

func TestRunErrorMapsToCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	if _, err := store.Initialize(ctx, 1, 1); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	err := store.Run(ctx, "INSERT INTO missing_table VALUES (1)")
	if !errors.Is(err, ErrCommand) {
		t.Fatalf("err = %v, want %v", err, ErrCommand)
	}
}

func TestVacuumAndClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	if _, err := store.Initialize(ctx, 1, 1); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := store.Vacuum(ctx); err != nil {
		t.Fatalf("vacuum: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestReaderTypeMismatchReturnsZero(t *testing.T) {
	t.Parallel()

	reader := NewReader([]engine.Record{
		{Fields: []engine.Value{engine.StringValue("text")}},
	})
	if !reader.Step() {
		t.Fatal("expected a row")
	}
	if got := reader.ColumnInt(0); got != 0 {
		t.Fatalf("mismatched column = %d, want 0", got)
	}
	if got := reader.ColumnString(1); got != "" {
		t.Fatalf("out-of-range column = %q, want \"\"", got)
	}
}
