package worker

import (
	"context"
	"time"

	"circ-supply/internal/worker/config"
	"circ-supply/internal/worker/dao"
	"circ-supply/internal/worker/job"
	"circ-supply/internal/worker/monitor"
	"circ-supply/internal/worker/repository"
	"circ-supply/internal/worker/supply"
	"circ-supply/internal/worker/wallet"
	"circ-supply/internal/worker/writer"
	"circ-supply/internal/worker/writer/balance"
	"circ-supply/internal/worker/writer/runlog"
	"circ-supply/internal/worker/writer/snapshot"

	"go.uber.org/zap"
)

type Core struct {
	cfg       *config.Config
	tl        *zap.Logger
	repo      repository.Repository
	store     *writer.Store
	scheduler *job.Scheduler
	metrics   *monitor.MetricsServer
}

// NewRunner 组装一次流通量计算所需的全部依赖，worker 与 runonce 共用
func NewRunner(cfg config.Config, repo repository.Repository, logger *zap.Logger) (*supply.Runner, *writer.Store) {
	db := repo.GetDB()
	store := writer.NewStore(
		snapshot.NewDbSnapshotWriter(db, logger),
		balance.NewDbBalanceWriter(db, logger),
		runlog.NewDbRunLogWriter(db, logger),
	)
	wallets := wallet.NewSource(cfg.LockedWallets.Source, time.Duration(cfg.LockedWallets.TimeoutSec)*time.Second, logger)

	runner := supply.NewRunner(job.RunnerOptions(cfg), repo.GetLedger(), wallets, store, logger)
	return runner, store
}

// Validate 在连接数据库和 RPC 之前检查运行参数
func Validate(cfg config.Config) error {
	return supply.ValidateOptions(job.RunnerOptions(cfg))
}

func New(cfg *config.Config, logger *zap.Logger) (*Core, error) {
	if err := Validate(*cfg); err != nil {
		return nil, err
	}

	// 初始化repo
	repo, err := repository.New(*cfg, logger)
	if err != nil {
		return nil, err
	}

	// 初始化作业调度器
	scheduler := job.NewScheduler(logger)

	runner, store := NewRunner(*cfg, repo, logger)
	daoManager := dao.NewDAOManager(repo.GetDB(), repo.GetRDB())
	circSupply := job.NewCircSupplyJob(cfg, runner, daoManager.SnapshotDAO, logger)
	scheduler.RegisterJob("circ_supply", cfg.Worker.Interval, circSupply.Run)

	return &Core{
		cfg:       cfg,
		tl:        logger,
		repo:      repo,
		store:     store,
		scheduler: scheduler,
		metrics:   monitor.NewMetricsServer(cfg.Monitor, logger),
	}, nil
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting worker core...")
	// 启动监控服务
	c.metrics.Run()

	// 启动调度器
	c.scheduler.Start(ctx)
	c.tl.Info("Worker started successfully",
		zap.String("mint", c.cfg.Supply.TokenMint),
		zap.Duration("interval", c.cfg.Worker.Interval))

	// 等待外部关闭信号
	<-ctx.Done()
	c.tl.Info("Shutting down worker due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping worker core...")

	// 停止调度器
	c.scheduler.Stop(ctx)

	// 停止 Prometheus 监控服务
	if err := c.metrics.Stop(ctx); err != nil {
		c.tl.Warn("metrics server shutdown", zap.Error(err))
	}

	_ = c.store.Close()
	_ = c.repo.Close()

	c.tl.Info("Worker core stopped.")
}
