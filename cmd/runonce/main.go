package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"circ-supply/internal/worker"
	"circ-supply/internal/worker/config"
	"circ-supply/internal/worker/repository"
	"circ-supply/internal/worker/supply"
	"circ-supply/pkg/logger"
	"circ-supply/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// 一次性任务：执行一次流通量计算并把结果以 JSON 打印到 stdout

type output struct {
	Timestamp         time.Time `json:"ts"`
	TotalSupply       string    `json:"total_supply"`
	LockedBalance     string    `json:"locked_balance"`
	CirculatingSupply string    `json:"circulating_supply"`
	TotalFormatted    string    `json:"totalFormatted"`
	LockedFormatted   string    `json:"lockedFormatted"`
	CircFormatted     string    `json:"circFormatted"`
	PctLocked         *float64  `json:"pctLocked"`
	Decimals          uint8     `json:"decimals"`
	WalletsChecked    int       `json:"wallets_checked"`
	RPCCalls          int64     `json:"rpc_calls"`
	DurationMs        int64     `json:"duration_ms"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "circ-supply run failed:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load(viper.New())
	if err != nil {
		return err
	}

	tp := logger.InitTrace("circ-supply", "runonce")
	defer tp.Shutdown(context.Background())
	ctx, span := logger.StartSpan(context.Background(), "main", "runonce")
	defer span.End()

	// stdout 只输出结果 JSON，日志走 stderr
	rootLogger := logger.NewLogger("runonce", logger.WithDir(cfg.Log.Dir), logger.WithConsole(os.Stderr))
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)
	defer tl.Sync()

	if err := worker.Validate(cfg); err != nil {
		tl.Error("run failed", zap.String("kind", supply.KindOf(err).String()), zap.Error(err))
		return err
	}

	repo, err := repository.New(cfg, tl)
	if err != nil {
		return err
	}
	defer repo.Close()

	runner, store := worker.NewRunner(cfg, repo, tl)
	defer store.Close()

	result, err := runner.Run(ctx)
	if err != nil {
		tl.Error("run failed", zap.String("kind", supply.KindOf(err).String()), zap.Error(err))
		return err
	}

	decimals := int(result.Decimals)
	out := output{
		Timestamp:         result.Timestamp,
		TotalSupply:       result.Total.String(),
		LockedBalance:     result.Locked.String(),
		CirculatingSupply: result.Circulating.String(),
		TotalFormatted:    utils.MustFormatUnits(result.Total.String(), decimals),
		LockedFormatted:   utils.MustFormatUnits(result.Locked.String(), decimals),
		CircFormatted:     utils.MustFormatUnits(result.Circulating.String(), decimals),
		PctLocked:         utils.PctLockedFloat(result.Locked, result.Total),
		Decimals:          result.Decimals,
		WalletsChecked:    result.WalletsChecked,
		RPCCalls:          result.RPCCalls,
		DurationMs:        result.Duration.Milliseconds(),
	}
	data, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
