package dao

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DAOManager 管理所有DAO实例
type DAOManager struct {
	SnapshotDAO SnapshotDAO
}

// NewDAOManager rds 可为 nil，此时只使用本地缓存
func NewDAOManager(db *gorm.DB, rds *redis.Client) *DAOManager {
	return &DAOManager{
		SnapshotDAO: NewSnapshotDAO(db, rds),
	}
}
