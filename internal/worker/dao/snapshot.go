package dao

import (
	"context"
	"errors"
	"time"

	"circ-supply/internal/worker/model"
)

var ErrNotFound = errors.New("no supply snapshot")

// SnapshotDAO 定义供应量快照的读取接口，所有列表均按 ts 倒序
type SnapshotDAO interface {
	// Latest 最新一条快照，无数据时返回 ErrNotFound
	Latest(ctx context.Context) (*model.SupplySnapshot, error)

	// Range 返回 start <= ts <= end 的快照
	Range(ctx context.Context, start, end time.Time) ([]*model.SupplySnapshot, error)

	// Recent 返回最近 limit 条快照
	Recent(ctx context.Context, limit int) ([]*model.SupplySnapshot, error)

	// All 返回全部快照
	All(ctx context.Context) ([]*model.SupplySnapshot, error)

	// InvalidateLatest 清除 Latest 的本地与 Redis 缓存
	InvalidateLatest(ctx context.Context)
}
