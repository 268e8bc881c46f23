package admin

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/ledgerdb/internal/engine"
	"github.com/louisbranch/ledgerdb/internal/ledger"
)

func seedStore(t *testing.T, path string) {
	t.Helper()

	e, err := engine.New(path, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	store := ledger.NewStore(e)
	if _, err := store.Initialize(context.Background(), 1, 1); err != nil {
		t.Fatalf("initialize store: %v", err)
	}
	if err := store.Close(context.Background()); err != nil {
		t.Fatalf("close store: %v", err)
	}
}

func TestParseConfigRequiresPathAndAction(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-print-version"}); err == nil {
		t.Fatal("expected missing path error")
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-db", "ledger.db"}); err == nil {
		t.Fatal("expected missing action error")
	}
}

func TestParseConfigRejectsDeleteCombinedWithOtherActions(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := ParseConfig(fs, []string{"-db", "ledger.db", "-delete", "-vacuum"})
	if err == nil {
		t.Fatal("expected conflicting action error")
	}
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("LEDGERDB_DB_PATH", "from-env.db")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-vacuum"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "from-env.db" {
		t.Fatalf("db path = %q, want env value", cfg.DBPath)
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err = ParseConfig(fs, []string{"-db", "from-flag.db", "-print-version"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "from-flag.db" {
		t.Fatalf("db path = %q, want flag override", cfg.DBPath)
	}
}

func TestRunPrintVersionReportsStoredVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	seedStore(t, path)

	cfg, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-db", path, "-print-version"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	var out strings.Builder
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "schema version: 1") {
		t.Fatalf("output = %q, want stored schema version 1", got)
	}
}

func TestRunRefusesToCreateMissingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	cfg, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-db", path, "-print-version"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	var out strings.Builder
	if err := Run(context.Background(), cfg, &out); err == nil {
		t.Fatal("expected missing store error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("stat after run: %v, want store still absent", err)
	}
}

func TestRunDeleteRemovesStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	seedStore(t, path)

	cfg, err := ParseConfig(flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-db", path, "-delete"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	var out strings.Builder
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("delete store: %v", err)
	}
	if !strings.Contains(out.String(), "deleted") {
		t.Fatalf("output = %q, want delete confirmation", out.String())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("stat after delete: %v, want store removed", err)
	}
}
