package job

import (
	"context"

	"circ-supply/internal/worker/config"
	"circ-supply/internal/worker/dao"
	"circ-supply/internal/worker/supply"

	"go.uber.org/zap"
)

// RunnerOptions 把配置映射为一次计算的参数
func RunnerOptions(cfg config.Config) supply.Options {
	return supply.Options{
		RPCURL:    cfg.Solana.RPCURL,
		TokenMint: cfg.Supply.TokenMint,
		Batch: supply.BatchOptions{
			Size:  cfg.Supply.BatchSize,
			Delay: cfg.Supply.BatchDelay(),
		},
		Retry: supply.RetryPolicy{
			MaxRetries: cfg.Supply.MaxRPCRetries,
			BaseDelay:  cfg.Supply.RetryBase(),
			CapDelay:   cfg.Supply.RetryCap(),
		},
	}
}

// CircSupplyJob 周期计算流通量并落库
type CircSupplyJob struct {
	cfg       *config.Config
	runner    *supply.Runner
	snapshots dao.SnapshotDAO
	logger    *zap.Logger
}

// NewCircSupplyJob cfg 为热加载共享的配置指针；snapshots 可为 nil
func NewCircSupplyJob(cfg *config.Config, runner *supply.Runner, snapshots dao.SnapshotDAO, logger *zap.Logger) *CircSupplyJob {
	return &CircSupplyJob{cfg: cfg, runner: runner, snapshots: snapshots, logger: logger}
}

func (j *CircSupplyJob) Run(ctx context.Context) error {
	// 每次运行前重新读取配置：mint、批次与重试参数可热加载，RPC 地址需重启
	cfg := config.Snapshot(j.cfg)
	j.runner.Configure(RunnerOptions(cfg))

	result, err := j.runner.Run(ctx)
	if err != nil {
		j.logger.Error("circulating supply run failed",
			zap.String("kind", supply.KindOf(err).String()),
			zap.Error(err))
		return err
	}

	// api 进程的本地缓存仍会在 TTL 内返回旧值
	if j.snapshots != nil {
		j.snapshots.InvalidateLatest(ctx)
	}
	j.checkDecimals(ctx, cfg.Supply.DecimalsDisplay)
	j.logger.Debug("circulating supply snapshot stored",
		zap.Time("ts", result.Timestamp),
		zap.String("circulating", result.Circulating.String()))
	return nil
}

// checkDecimals warns when the display decimals used by the query API do
// not match the mint. The run has just filled the cache, so no RPC is made.
func (j *CircSupplyJob) checkDecimals(ctx context.Context, configured int) {
	actual, err := j.runner.MintDecimals(ctx)
	if err != nil {
		j.logger.Warn("mint decimals unavailable", zap.Error(err))
		return
	}
	if int(actual) != configured {
		j.logger.Warn("token_decimals does not match mint decimals",
			zap.Int("configured", configured),
			zap.Uint8("mint", actual))
	}
}
