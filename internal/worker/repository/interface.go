package repository

import (
	"circ-supply/pkg/solana_client"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB

type Repository interface {
	GetDB() DBClient
	// GetRDB 未配置 redis 时返回 nil
	GetRDB() RedisClient
	GetSolanaClient() *rpc.Client
	GetLedger() *solana_client.Ledger
	Close() error
}
