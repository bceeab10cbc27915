package runlog

import (
	"context"
	"time"

	"circ-supply/internal/worker/model"
	"circ-supply/internal/worker/writer"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DbRunLogWriter struct {
	db *gorm.DB
	tl *zap.Logger
}

func NewDbRunLogWriter(db *gorm.DB, tl *zap.Logger) writer.BatchWriter[*model.RunLog] {
	return &DbRunLogWriter{db: db, tl: tl}
}

// BWrite 只追加，不更新
func (w *DbRunLogWriter) BWrite(ctx context.Context, logs []*model.RunLog) error {
	if len(logs) == 0 {
		return nil
	}

	newCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return w.db.WithContext(newCtx).Create(logs).Error
}

func (w *DbRunLogWriter) Close() error {
	return nil
}
