package dao

import (
	"context"
	"errors"
	"time"

	"circ-supply/internal/worker/model"
	"circ-supply/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	localLatestTTL = 10 * time.Second
	redisLatestTTL = 30 * time.Second
)

// snapshotDAO 实现SnapshotDAO接口
type snapshotDAO struct {
	db         *gorm.DB
	rds        *redis.Client
	localCache *cache.Cache
}

// NewSnapshotDAO 创建SnapshotDAO实例
func NewSnapshotDAO(db *gorm.DB, rds *redis.Client) SnapshotDAO {
	return &snapshotDAO{
		db:         db,
		rds:        rds,
		localCache: cache.New(localLatestTTL, time.Minute),
	}
}

func (s *snapshotDAO) Latest(ctx context.Context) (*model.SupplySnapshot, error) {
	cacheKey := utils.LatestSnapshotKey()

	// 先查本地缓存
	if cached, found := s.localCache.Get(cacheKey); found {
		if snapshot, ok := cached.(*model.SupplySnapshot); ok {
			return snapshot, nil
		}
	}

	// 再查Redis缓存
	if s.rds != nil {
		cached, err := s.rds.Get(ctx, cacheKey).Result()
		if err == nil {
			var snapshot model.SupplySnapshot
			if sonic.UnmarshalString(cached, &snapshot) == nil {
				s.localCache.Set(cacheKey, &snapshot, cache.DefaultExpiration)
				return &snapshot, nil
			}
		}
	}

	// 查数据库
	var snapshot model.SupplySnapshot
	err := s.db.WithContext(ctx).
		Order("ts DESC").
		Order("id DESC").
		Take(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.updateLatestCache(ctx, cacheKey, &snapshot)
	return &snapshot, nil
}

func (s *snapshotDAO) updateLatestCache(ctx context.Context, cacheKey string, snapshot *model.SupplySnapshot) {
	s.localCache.Set(cacheKey, snapshot, cache.DefaultExpiration)

	if s.rds == nil {
		return
	}
	if data, err := sonic.MarshalString(snapshot); err == nil {
		s.rds.Set(ctx, cacheKey, data, redisLatestTTL)
	}
}

func (s *snapshotDAO) InvalidateLatest(ctx context.Context) {
	cacheKey := utils.LatestSnapshotKey()
	s.localCache.Delete(cacheKey)
	if s.rds != nil {
		s.rds.Del(ctx, cacheKey)
	}
}

func (s *snapshotDAO) Range(ctx context.Context, start, end time.Time) ([]*model.SupplySnapshot, error) {
	var snapshots []*model.SupplySnapshot
	err := s.db.WithContext(ctx).
		Where("ts >= ? AND ts <= ?", start, end).
		Order("ts DESC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (s *snapshotDAO) Recent(ctx context.Context, limit int) ([]*model.SupplySnapshot, error) {
	var snapshots []*model.SupplySnapshot
	err := s.db.WithContext(ctx).
		Order("ts DESC").
		Limit(limit).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (s *snapshotDAO) All(ctx context.Context) ([]*model.SupplySnapshot, error) {
	var snapshots []*model.SupplySnapshot
	if err := s.db.WithContext(ctx).Order("ts DESC").Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
