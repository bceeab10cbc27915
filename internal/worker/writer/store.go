package writer

import (
	"context"
	"errors"

	"circ-supply/internal/worker/model"
)

// Store adapts the per-table writers to the run's persistence contract.
type Store struct {
	snapshots BatchWriter[*model.SupplySnapshot]
	balances  BatchWriter[model.WalletBalance]
	runLogs   BatchWriter[*model.RunLog]
}

func NewStore(snapshots BatchWriter[*model.SupplySnapshot], balances BatchWriter[model.WalletBalance], runLogs BatchWriter[*model.RunLog]) *Store {
	return &Store{snapshots: snapshots, balances: balances, runLogs: runLogs}
}

func (s *Store) InsertSnapshot(ctx context.Context, snapshot *model.SupplySnapshot) error {
	return s.snapshots.BWrite(ctx, []*model.SupplySnapshot{snapshot})
}

func (s *Store) UpsertWalletBalances(ctx context.Context, balances []model.WalletBalance) error {
	return s.balances.BWrite(ctx, balances)
}

func (s *Store) AppendRunLog(ctx context.Context, runLog *model.RunLog) error {
	return s.runLogs.BWrite(ctx, []*model.RunLog{runLog})
}

func (s *Store) Close() error {
	return errors.Join(s.snapshots.Close(), s.balances.Close(), s.runLogs.Close())
}
