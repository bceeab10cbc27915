package balance

import (
	"context"
	"time"

	"circ-supply/internal/worker/model"
	"circ-supply/internal/worker/writer"
	walletutils "circ-supply/pkg/utils/wallet_utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	batchSize  = 500
	retryCount = 3
)

type DbBalanceWriter struct {
	db *gorm.DB
	tl *zap.Logger
}

func NewDbBalanceWriter(db *gorm.DB, tl *zap.Logger) writer.BatchWriter[model.WalletBalance] {
	return &DbBalanceWriter{db: db, tl: tl}
}

// BWrite upserts one row per wallet. The upsert is idempotent so a failed
// attempt is retried as a whole.
func (bw *DbBalanceWriter) BWrite(ctx context.Context, balances []model.WalletBalance) error {
	if len(balances) == 0 {
		return nil
	}

	// 同一批次内按 wallet 去重，后出现的覆盖
	balances = walletutils.DeduplicateBalances(balances)

	newCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var err error
	for range retryCount {
		err = bw.db.WithContext(newCtx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "last_updated"}),
		}).CreateInBatches(balances, batchSize).Error
		if err == nil {
			break
		}
		bw.tl.Warn("upsert wallet balances failed", zap.Error(err), zap.Int("rows", len(balances)))
		if newCtx.Err() != nil {
			break
		}
	}

	if err != nil {
		bw.tl.Error("upsert wallet balances failed after retries", zap.Error(err))
		return err
	}
	return nil
}

func (bw *DbBalanceWriter) Close() error {
	return nil
}
