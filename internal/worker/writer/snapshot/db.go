package snapshot

import (
	"context"
	"time"

	"circ-supply/internal/worker/model"
	"circ-supply/internal/worker/writer"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DbSnapshotWriter struct {
	db *gorm.DB
	tl *zap.Logger
}

func NewDbSnapshotWriter(db *gorm.DB, tl *zap.Logger) writer.BatchWriter[*model.SupplySnapshot] {
	return &DbSnapshotWriter{db: db, tl: tl}
}

// BWrite inserts snapshots in one statement. Inserts are not retried: a
// timed-out insert may already be committed.
func (w *DbSnapshotWriter) BWrite(ctx context.Context, snapshots []*model.SupplySnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	newCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := w.db.WithContext(newCtx).Create(snapshots).Error; err != nil {
		w.tl.Error("insert supply snapshot failed", zap.Error(err))
		return err
	}
	return nil
}

func (w *DbSnapshotWriter) Close() error {
	return nil
}
