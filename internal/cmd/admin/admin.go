// Package admin parses ledger-admin flags and runs store maintenance
// actions.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/louisbranch/ledgerdb/internal/engine"
	"github.com/louisbranch/ledgerdb/internal/ledger"
	entrypoint "github.com/louisbranch/ledgerdb/internal/platform/cmd"
)

// Config holds ledger-admin command configuration.
type Config struct {
	DBPath  string        `env:"LEDGERDB_DB_PATH"`
	Timeout time.Duration `env:"LEDGERDB_ADMIN_TIMEOUT" envDefault:"30s"`

	PrintVersion bool
	Vacuum       bool
	Delete       bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the ledger store file")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Maintenance timeout")
	fs.BoolVar(&cfg.PrintVersion, "print-version", false, "Print the stored schema version")
	fs.BoolVar(&cfg.Vacuum, "vacuum", false, "Compact the store file")
	fs.BoolVar(&cfg.Delete, "delete", false, "Close and delete the store files")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("store path is required (-db or LEDGERDB_DB_PATH)")
	}
	if !cfg.PrintVersion && !cfg.Vacuum && !cfg.Delete {
		return Config{}, fmt.Errorf("no action requested (-print-version, -vacuum or -delete)")
	}
	if cfg.Delete && (cfg.PrintVersion || cfg.Vacuum) {
		return Config{}, fmt.Errorf("-delete cannot be combined with other actions")
	}
	return cfg, nil
}

// Run executes the requested maintenance actions against the store.
func Run(ctx context.Context, cfg Config, stdout io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAdmin, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		e, err := engine.New(cfg.DBPath, nil)
		if err != nil {
			return err
		}

		if cfg.Delete {
			if err := e.DeleteFiles(); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "deleted %s\n", cfg.DBPath)
			return nil
		}

		// Inspection actions must not create a store that is not there.
		if _, err := os.Stat(cfg.DBPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("no store at %s", cfg.DBPath)
			}
			return err
		}

		store := ledger.NewStore(e)
		defer func() { _ = store.Close(context.Background()) }()

		version, err := store.Initialize(ctx, 0, 0)
		if err != nil {
			return err
		}
		if cfg.PrintVersion {
			fmt.Fprintf(stdout, "schema version: %d\n", version)
		}
		if cfg.Vacuum {
			if err := store.Vacuum(ctx); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "vacuumed %s\n", cfg.DBPath)
		}
		return nil
	})
}
