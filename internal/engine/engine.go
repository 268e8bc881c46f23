package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/ledgerdb/internal/platform/pressure"
	_ "modernc.org/sqlite"
)

const tracerName = "github.com/louisbranch/ledgerdb/internal/engine"

// Engine owns the lazily-opened SQLite store and interprets command
// transactions against it.
//
// The engine assumes exclusive, sequential access: an internal mutex
// serializes transactions, memory trimming and deletion, so callers on
// multiple goroutines are safe but never run concurrently against the
// store.
type Engine struct {
	path   string
	source *pressure.Source

	mu          sync.Mutex
	sqlDB       *sql.DB
	initialized bool
	subscribed  bool

	// vacuum is swappable so reclaim failures can be exercised in tests.
	vacuum func(context.Context) error
}

// New creates an engine for the store at path. The store file is not
// touched until the first transaction runs. source may be nil when no
// memory-pressure signal exists.
func New(path string, source *pressure.Source) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	e := &Engine{path: filepath.Clean(path), source: source}
	e.vacuum = e.vacuumStore
	return e, nil
}

// Path returns the primary store file path.
func (e *Engine) Path() string {
	return e.path
}

// RunTransaction interprets one transaction and returns its terminal
// response. Commands run in listed order inside a single atomic scope;
// the first failing command rolls everything back. A transaction holding
// exactly one Close command bypasses the atomic scope entirely.
func (e *Engine) RunTransaction(ctx context.Context, txn *Transaction) *CommandResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "engine.RunTransaction",
		trace.WithAttributes(attribute.Int("db.command_count", len(txn.Commands))))
	defer span.End()

	resp := &CommandResponse{Status: StatusOK}
	defer func() {
		span.SetAttributes(attribute.String("db.status", resp.Status.String()))
	}()

	if e.sqlDB == nil {
		if err := e.openLocked(ctx); err != nil {
			log.Printf("engine: open %s: %v", e.path, err)
			resp.Status = StatusInitializationError
			return resp
		}
	}

	// Close must always arrive as the only command in its transaction and
	// never passes through the commit path.
	if len(txn.Commands) == 1 && txn.Commands[0].Kind == CommandClose {
		e.closeLocked()
		return resp
	}

	sqlTx, err := e.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("engine: begin transaction: %v", err)
		resp.Status = StatusTransactionError
		return resp
	}

	vacuumRequested := false

	for _, cmd := range txn.Commands {
		var status Status

		switch cmd.Kind {
		case CommandInitialize:
			status = e.initialize(ctx, sqlTx, txn.Version, txn.CompatibleVersion, resp)
		case CommandRead:
			status = e.read(ctx, sqlTx, cmd, resp)
		case CommandExecute:
			status = e.execute(ctx, sqlTx, cmd)
		case CommandRun:
			status = e.run(ctx, sqlTx, cmd)
		case CommandMigrate:
			status = e.migrate(ctx, sqlTx, txn.Version, txn.CompatibleVersion)
		case CommandVacuum:
			// Reclaiming rewrites the whole store file and must happen
			// outside the open scope; defer it until after commit.
			vacuumRequested = true
			status = StatusOK
		case CommandClose:
			// Caller contract violation: Close mixed with other commands.
			log.Printf("engine: close mixed with other commands")
			status = StatusCommandError
		default:
			log.Printf("engine: unknown command kind %d", cmd.Kind)
			status = StatusCommandError
		}

		if status != StatusOK {
			_ = sqlTx.Rollback()
			resp.Status = status
			return resp
		}
	}

	if err := sqlTx.Commit(); err != nil {
		log.Printf("engine: commit transaction: %v", err)
		resp.Status = StatusTransactionError
		return resp
	}

	if vacuumRequested {
		// The transaction already committed; reclaim failure is logged and
		// never changes the returned status.
		if err := e.vacuum(ctx); err != nil {
			log.Printf("engine: vacuum: %v", err)
		}
	}

	return resp
}

// Close releases the store connection and resets per-session state. It is
// equivalent to running a single-Close transaction.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

// DeleteFiles closes the store and removes the primary file together with
// its derived sidecars. Files that do not exist are no-ops.
func (e *Engine) DeleteFiles() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()

	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		target := e.path + suffix
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", target, err)
		}
	}
	return nil
}

// TrimMemory asks the store to release non-essential cached memory. It
// takes the engine lock and therefore never overlaps an in-flight
// transaction. A closed store is a no-op.
func (e *Engine) TrimMemory(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sqlDB == nil {
		return
	}
	if _, err := e.sqlDB.ExecContext(ctx, "PRAGMA shrink_memory"); err != nil {
		log.Printf("engine: trim memory: %v", err)
	}
}

func (e *Engine) openLocked(ctx context.Context) error {
	dsn := e.path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	e.sqlDB = sqlDB
	return nil
}

func (e *Engine) closeLocked() {
	if e.sqlDB != nil {
		if err := e.sqlDB.Close(); err != nil {
			log.Printf("engine: close store: %v", err)
		}
		e.sqlDB = nil
	}
	e.initialized = false
}

// initialize opens the metadata table on first use in this session, reads
// the stored schema version back as the command result, and hooks the
// memory-pressure source once per engine lifetime.
func (e *Engine) initialize(ctx context.Context, tx *sql.Tx, version, compatibleVersion int32, resp *CommandResponse) Status {
	if !e.initialized {
		if err := initMetaTable(ctx, tx, version, compatibleVersion); err != nil {
			log.Printf("engine: init meta table: %v", err)
			return StatusInitializationError
		}
		e.initialized = true
	}

	stored, err := metaVersion(ctx, tx)
	if err != nil {
		log.Printf("engine: read schema version: %v", err)
		return StatusInitializationError
	}

	if e.source != nil && !e.subscribed {
		e.source.Subscribe(func(pressure.Level) {
			e.TrimMemory(context.Background())
		})
		e.subscribed = true
	}

	value := IntValue(stored)
	resp.Result = &CommandResult{Value: &value}
	return StatusOK
}

// read prepares the statement, applies bindings by slot index, steps
// through every result row and marshals each into a record using the
// declared column types. Zero rows is a valid, non-error result.
func (e *Engine) read(ctx context.Context, tx *sql.Tx, cmd Command, resp *CommandResponse) Status {
	if !e.initialized {
		return StatusInitializationError
	}

	rows, err := tx.QueryContext(ctx, cmd.Text, bindingArgs(cmd.Bindings)...)
	if err != nil {
		log.Printf("engine: read: %v", err)
		return StatusCommandError
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows, cmd.Columns)
		if err != nil {
			log.Printf("engine: read row: %v", err)
			return StatusCommandError
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		log.Printf("engine: read rows: %v", err)
		return StatusCommandError
	}

	resp.Result = &CommandResult{Records: records}
	return StatusOK
}

// execute runs raw statement text with no parameters and no result
// capture (schema-definition statements).
func (e *Engine) execute(ctx context.Context, tx *sql.Tx, cmd Command) Status {
	if !e.initialized {
		return StatusInitializationError
	}

	if _, err := tx.ExecContext(ctx, cmd.Text); err != nil {
		log.Printf("engine: execute: %v", err)
		return StatusCommandError
	}
	return StatusOK
}

// run executes one parameterized mutating statement without reading rows.
func (e *Engine) run(ctx context.Context, tx *sql.Tx, cmd Command) Status {
	if !e.initialized {
		return StatusInitializationError
	}

	if _, err := tx.ExecContext(ctx, cmd.Text, bindingArgs(cmd.Bindings)...); err != nil {
		log.Printf("engine: run: %v", err)
		return StatusCommandError
	}
	return StatusOK
}

// migrate rewrites the stored version metadata to the transaction's
// targets. The writes live inside the open scope and are durable only on
// commit; the caller issues any table-altering statements as earlier
// commands in the same transaction.
func (e *Engine) migrate(ctx context.Context, tx *sql.Tx, version, compatibleVersion int32) Status {
	if !e.initialized {
		return StatusInitializationError
	}

	if err := setMetaVersion(ctx, tx, version); err != nil {
		log.Printf("engine: migrate version: %v", err)
		return StatusCommandError
	}
	if err := setMetaCompatibleVersion(ctx, tx, compatibleVersion); err != nil {
		log.Printf("engine: migrate compatible version: %v", err)
		return StatusCommandError
	}
	return StatusOK
}

func (e *Engine) vacuumStore(ctx context.Context) error {
	if _, err := e.sqlDB.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum store: %w", err)
	}
	return nil
}

// scanRecord reads the current row into a record tagged with the declared
// column types. NULL cells surface as the zero value of the declared
// type, matching the column accessors of the original profile store.
func scanRecord(rows *sql.Rows, columns []ColumnType) (Record, error) {
	dests := make([]any, len(columns))
	for i, column := range columns {
		switch column {
		case ColumnString:
			dests[i] = new(sql.NullString)
		case ColumnInt:
			dests[i] = new(sql.NullInt32)
		case ColumnInt64:
			dests[i] = new(sql.NullInt64)
		case ColumnDouble:
			dests[i] = new(sql.NullFloat64)
		case ColumnBool:
			dests[i] = new(sql.NullBool)
		default:
			panic(fmt.Sprintf("engine: unknown column type %d", column))
		}
	}

	if err := rows.Scan(dests...); err != nil {
		return Record{}, err
	}

	fields := make([]Value, len(dests))
	for i, dest := range dests {
		switch d := dest.(type) {
		case *sql.NullString:
			fields[i] = StringValue(d.String)
		case *sql.NullInt32:
			fields[i] = IntValue(d.Int32)
		case *sql.NullInt64:
			fields[i] = Int64Value(d.Int64)
		case *sql.NullFloat64:
			fields[i] = DoubleValue(d.Float64)
		case *sql.NullBool:
			fields[i] = BoolValue(d.Bool)
		}
	}
	return Record{Fields: fields}, nil
}
