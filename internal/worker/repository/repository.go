package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"circ-supply/internal/worker/config"
	"circ-supply/pkg/database"
	"circ-supply/pkg/solana_client"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func New(cfg config.Config, logger *zap.Logger) (Repository, error) {
	r := &repositoryImpl{
		cfg:    cfg,
		logger: logger,
	}
	if err := r.init(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

type repositoryImpl struct {
	cfg          config.Config
	logger       *zap.Logger
	db           *gorm.DB
	rdb          *redis.Client
	solanaClient *rpc.Client
	ledger       *solana_client.Ledger
}

func (r *repositoryImpl) init() error {
	var err error
	r.db, err = database.Open(r.cfg.Database.Driver, r.cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if r.cfg.Database.AutoMigrate {
		if err := database.Migrate(r.db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	// redis 可选，地址为空则跳过
	if strings.TrimSpace(r.cfg.Redis.Address) != "" {
		r.rdb = redis.NewClient(&redis.Options{
			Addr:     r.cfg.Redis.Address,
			Password: r.cfg.Redis.Password,
			DB:       r.cfg.Redis.DB,
			PoolSize: 10,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := r.rdb.Ping(ctx).Err(); err != nil {
			r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
		}
	} else {
		r.logger.Info("redis address empty, skip redis initialization")
	}

	// 初始化rpc client
	r.solanaClient = solana_client.Init(r.cfg.Solana.RPCURL)
	r.ledger = solana_client.NewLedger(r.solanaClient, r.cfg.Solana.RateLimit).
		WithTimeout(time.Duration(r.cfg.Solana.TimeoutSec) * time.Second)
	return nil
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetRDB() *redis.Client {
	return r.rdb
}

func (r *repositoryImpl) GetSolanaClient() *rpc.Client {
	return r.solanaClient
}

func (r *repositoryImpl) GetLedger() *solana_client.Ledger {
	return r.ledger
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		if sqlDB, err := r.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if r.rdb != nil {
		r.rdb.Close()
	}
	if r.solanaClient != nil {
		r.solanaClient.Close()
	}
	return nil
}
