package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/ledgerdb/internal/engine"
)

var (
	// ErrWalletCorrupted reports a wallet row missing its payment id or
	// recovery seed.
	ErrWalletCorrupted = errors.New("rewards wallet record is corrupted")

	// ErrWalletExists reports an attempt to save over an existing wallet.
	ErrWalletExists = errors.New("rewards wallet already exists")
)

// RewardsWallet identifies a user's rewards wallet. The recovery seed is
// stored as given; sealing it is the caller's concern.
type RewardsWallet struct {
	PaymentID    string
	RecoverySeed string
}

// WalletStore reads and writes the single rewards wallet row.
type WalletStore struct {
	store *Store
}

// NewWalletStore creates a wallet store over an initialized ledger store.
func NewWalletStore(store *Store) *WalletStore {
	return &WalletStore{store: store}
}

// Read returns the stored wallet, or nil when none exists yet. A present
// row with an empty payment id or seed reports ErrWalletCorrupted.
func (w *WalletStore) Read(ctx context.Context) (*RewardsWallet, error) {
	reader, err := w.store.Query(ctx,
		"SELECT payment_id, recovery_seed FROM rewards_wallet LIMIT 1",
		[]engine.ColumnType{engine.ColumnString, engine.ColumnString})
	if err != nil {
		return nil, fmt.Errorf("read rewards wallet: %w", err)
	}
	if !reader.Step() {
		return nil, nil
	}

	wallet := RewardsWallet{
		PaymentID:    reader.ColumnString(0),
		RecoverySeed: reader.ColumnString(1),
	}
	if wallet.PaymentID == "" || wallet.RecoverySeed == "" {
		return nil, ErrWalletCorrupted
	}
	return &wallet, nil
}

// SaveNew stores a wallet exactly once; an existing wallet is never
// overwritten. The guard and the insert run in a single transaction, so
// a row landing between them cannot be clobbered.
func (w *WalletStore) SaveNew(ctx context.Context, wallet RewardsWallet) error {
	if wallet.PaymentID == "" {
		return fmt.Errorf("payment id is required")
	}
	if wallet.RecoverySeed == "" {
		return fmt.Errorf("recovery seed is required")
	}

	resp, err := w.store.RunTransaction(ctx, &engine.Transaction{
		Commands: []engine.Command{
			{
				Kind: engine.CommandRun,
				Text: "INSERT INTO rewards_wallet (payment_id, recovery_seed) " +
					"SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM rewards_wallet)",
				Bindings: []engine.Binding{
					{Index: 0, Value: engine.StringValue(wallet.PaymentID)},
					{Index: 1, Value: engine.StringValue(wallet.RecoverySeed)},
				},
			},
			{
				Kind:    engine.CommandRead,
				Text:    "SELECT payment_id, recovery_seed FROM rewards_wallet LIMIT 1",
				Columns: []engine.ColumnType{engine.ColumnString, engine.ColumnString},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("save rewards wallet: %w", err)
	}

	if resp.Result == nil {
		return fmt.Errorf("save rewards wallet: missing records result")
	}
	reader := NewReader(resp.Result.Records)
	if !reader.Step() {
		return fmt.Errorf("save rewards wallet: no row after insert")
	}
	stored := RewardsWallet{
		PaymentID:    reader.ColumnString(0),
		RecoverySeed: reader.ColumnString(1),
	}
	if stored == wallet {
		return nil
	}
	if stored.PaymentID == "" || stored.RecoverySeed == "" {
		return ErrWalletCorrupted
	}
	return ErrWalletExists
}
