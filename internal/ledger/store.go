package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/ledgerdb/internal/engine"
)

// Engine statuses surface to callers as sentinel errors.
var (
	ErrInitialization = errors.New("store initialization failed")
	ErrTransaction    = errors.New("store transaction failed")
	ErrCommand        = errors.New("store command failed")
)

// Store assembles engine transactions for common single-statement
// operations. It adds no state of its own; atomicity and version
// bookkeeping stay with the engine.
type Store struct {
	engine *engine.Engine
}

// NewStore wraps an engine.
func NewStore(e *engine.Engine) *Store {
	return &Store{engine: e}
}

// Initialize opens the schema metadata with the given targets and returns
// the stored schema version. A fresh store reports the target version; a
// pre-existing store reports whatever was last migrated.
func (s *Store) Initialize(ctx context.Context, version, compatibleVersion int32) (int32, error) {
	resp := s.engine.RunTransaction(ctx, &engine.Transaction{
		Commands:          []engine.Command{{Kind: engine.CommandInitialize}},
		Version:           version,
		CompatibleVersion: compatibleVersion,
	})
	if err := statusErr(resp.Status); err != nil {
		return 0, fmt.Errorf("initialize: %w", err)
	}
	if resp.Result == nil || resp.Result.Value == nil || resp.Result.Value.Kind != engine.KindInt {
		return 0, fmt.Errorf("initialize: missing version result")
	}
	return resp.Result.Value.Int, nil
}

// Query runs one read statement. Values bind positionally, and columns
// declare the result row layout.
func (s *Store) Query(ctx context.Context, text string, columns []engine.ColumnType, args ...engine.Value) (*Reader, error) {
	resp := s.engine.RunTransaction(ctx, &engine.Transaction{
		Commands: []engine.Command{{
			Kind:     engine.CommandRead,
			Text:     text,
			Bindings: positionalBindings(args),
			Columns:  columns,
		}},
	})
	if err := statusErr(resp.Status); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("query: missing records result")
	}
	return NewReader(resp.Result.Records), nil
}

// Run executes one parameterized mutating statement.
func (s *Store) Run(ctx context.Context, text string, args ...engine.Value) error {
	resp := s.engine.RunTransaction(ctx, &engine.Transaction{
		Commands: []engine.Command{{
			Kind:     engine.CommandRun,
			Text:     text,
			Bindings: positionalBindings(args),
		}},
	})
	if err := statusErr(resp.Status); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// Exec executes raw statement text with no parameters.
func (s *Store) Exec(ctx context.Context, text string) error {
	resp := s.engine.RunTransaction(ctx, &engine.Transaction{
		Commands: []engine.Command{{Kind: engine.CommandExecute, Text: text}},
	})
	if err := statusErr(resp.Status); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Vacuum schedules a store compaction, performed by the engine after the
// surrounding transaction commits.
func (s *Store) Vacuum(ctx context.Context) error {
	resp := s.engine.RunTransaction(ctx, &engine.Transaction{
		Commands: []engine.Command{{Kind: engine.CommandVacuum}},
	})
	if err := statusErr(resp.Status); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// Close releases the store connection.
func (s *Store) Close(ctx context.Context) error {
	resp := s.engine.RunTransaction(ctx, &engine.Transaction{
		Commands: []engine.Command{{Kind: engine.CommandClose}},
	})
	if err := statusErr(resp.Status); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// RunTransaction submits a caller-assembled transaction unchanged.
func (s *Store) RunTransaction(ctx context.Context, txn *engine.Transaction) (*engine.CommandResponse, error) {
	resp := s.engine.RunTransaction(ctx, txn)
	if err := statusErr(resp.Status); err != nil {
		return nil, err
	}
	return resp, nil
}

func positionalBindings(args []engine.Value) []engine.Binding {
	if len(args) == 0 {
		return nil
	}
	bindings := make([]engine.Binding, len(args))
	for i, arg := range args {
		bindings[i] = engine.Binding{Index: i, Value: arg}
	}
	return bindings
}

func statusErr(status engine.Status) error {
	switch status {
	case engine.StatusOK:
		return nil
	case engine.StatusInitializationError:
		return ErrInitialization
	case engine.StatusTransactionError:
		return ErrTransaction
	case engine.StatusCommandError:
		return ErrCommand
	}
	return fmt.Errorf("unknown status %d", status)
}
