package supply

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"circ-supply/internal/worker/cache"
	"circ-supply/internal/worker/model"
	"circ-supply/internal/worker/monitor"
	"circ-supply/pkg/logger"
	"circ-supply/pkg/utils"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

type RunState int

const (
	StateInit RunState = iota
	StateFetchingTotal
	StateFetchingBalances
	StateAggregating
	StatePersisting
	StateSuccess
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateFetchingTotal:
		return "FETCHING_TOTAL"
	case StateFetchingBalances:
		return "FETCHING_BALANCES"
	case StateAggregating:
		return "AGGREGATING"
	case StatePersisting:
		return "PERSISTING"
	case StateSuccess:
		return "SUCCESS"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// WalletSource 返回已校验、去重的锁仓地址列表
type WalletSource interface {
	Load(ctx context.Context) ([]string, error)
}

// Store persists run output. InsertSnapshot and UpsertWalletBalances are
// fatal to the run; AppendRunLog failures are only logged.
type Store interface {
	InsertSnapshot(ctx context.Context, snapshot *model.SupplySnapshot) error
	UpsertWalletBalances(ctx context.Context, balances []model.WalletBalance) error
	AppendRunLog(ctx context.Context, runLog *model.RunLog) error
}

type Options struct {
	RPCURL    string
	TokenMint string
	Batch     BatchOptions
	Retry     RetryPolicy
}

type RunResult struct {
	Timestamp      time.Time
	Total          *big.Int
	Locked         *big.Int
	Circulating    *big.Int
	Decimals       uint8
	WalletsChecked int
	RPCCalls       int64
	Duration       time.Duration
}

type Runner struct {
	opts     Options
	client   LedgerClient
	wallets  WalletSource
	store    Store
	resolver *Resolver
	decimals *cache.DecimalsCache
	tl       *zap.Logger
	now      func() time.Time
}

func NewRunner(opts Options, client LedgerClient, wallets WalletSource, store Store, tl *zap.Logger) *Runner {
	return &Runner{
		opts:     opts,
		client:   client,
		wallets:  wallets,
		store:    store,
		resolver: NewResolver(),
		decimals: cache.NewDecimalsCache(),
		tl:       tl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithResolver 替换默认的解析策略
func (r *Runner) WithResolver(resolver *Resolver) *Runner {
	r.resolver = resolver
	return r
}

// Configure replaces the options used by subsequent runs. The ledger client
// is bound at construction, so RPCURL keeps its original value. A new mint
// drops the cached decimals.
func (r *Runner) Configure(opts Options) {
	opts.RPCURL = r.opts.RPCURL
	if opts.TokenMint != r.opts.TokenMint {
		r.decimals.Invalidate()
	}
	r.opts = opts
}

func (r *Runner) Options() Options {
	return r.opts
}

// MintDecimals returns the cached decimals for the current mint, fetching
// the token supply once when the cache is cold.
func (r *Runner) MintDecimals(ctx context.Context) (uint8, error) {
	if d, ok := r.decimals.Get(r.opts.TokenMint); ok {
		return d, nil
	}
	supply, err := r.client.GetTotalSupply(ctx, r.opts.TokenMint)
	if err != nil {
		return 0, TransientFetchError("fetch mint decimals", err)
	}
	r.decimals.Set(r.opts.TokenMint, supply.Decimals)
	return supply.Decimals, nil
}

func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	ctx, span := logger.StartSpan(ctx, "circ_supply", "run")
	defer span.End()
	tl := logger.NewLoggerWithTrace(ctx, r.tl).With(zap.String("mint", r.opts.TokenMint))

	start := time.Now()
	counters := &Counters{}
	state := StateInit
	enter := func(s RunState) {
		state = s
		tl.Debug("run state", zap.String("state", s.String()))
	}
	defer func() {
		monitor.RunDuration.Observe(time.Since(start).Seconds())
		monitor.RunsTotal.WithLabelValues(strings.ToLower(state.String())).Inc()
	}()

	enter(StateInit)
	if err := r.validate(); err != nil {
		enter(StateFailed)
		return nil, err
	}
	addresses, err := r.wallets.Load(ctx)
	if err != nil {
		enter(StateFailed)
		return nil, ConfigurationError("load locked wallets", err)
	}
	monitor.LockedWallets.Set(float64(len(addresses)))

	enter(StateFetchingTotal)
	counters.AddRPCCall()
	supply, err := r.client.GetTotalSupply(ctx, r.opts.TokenMint)
	if err != nil {
		enter(StateFailed)
		return nil, TransientFetchError("fetch total supply", err)
	}
	if supply.Amount == nil || supply.Amount.Sign() < 0 {
		enter(StateFailed)
		return nil, TransientFetchError("fetch total supply", errors.New("invalid total supply amount"))
	}
	r.decimals.Set(r.opts.TokenMint, supply.Decimals)
	total := supply.Amount

	enter(StateFetchingBalances)
	fetcher := NewFetcher(r.resolver, r.client, r.opts.TokenMint, r.opts.Retry, counters, tl)
	batches, err := RunBatches(ctx, addresses, r.opts.Batch, fetcher.Fetch)
	if err != nil {
		enter(StateFailed)
		return nil, err
	}
	tl.Info("locked balances fetched",
		zap.Int("wallets", batches.WalletsChecked),
		zap.Int("batches", batches.Batches),
		zap.Int64("rpc_calls", counters.RPCCalls()))

	enter(StateAggregating)
	circ := utils.Circulating(total, batches.Locked)
	ts := r.now()
	runLog := &model.RunLog{
		Ts:                ts,
		TotalSupply:       total.String(),
		LockedBalance:     batches.Locked.String(),
		CirculatingSupply: circ.String(),
		WalletsChecked:    batches.WalletsChecked,
	}
	if circ.Sign() < 0 {
		tl.Warn("locked balance exceeds total supply",
			zap.String("total", runLog.TotalSupply),
			zap.String("locked", runLog.LockedBalance))
	}

	enter(StatePersisting)
	if err := r.persist(ctx, ts, runLog, batches.Records); err != nil {
		enter(StateFailed)
		runLog.Status = model.RunStatusError
		runLog.RPCCalls = counters.RPCCalls()
		msg := err.Error()
		runLog.Error = &msg
		r.appendRunLog(ctx, tl, runLog)
		return nil, err
	}

	runLog.Status = model.RunStatusSuccess
	runLog.RPCCalls = counters.RPCCalls()
	r.appendRunLog(ctx, tl, runLog)
	enter(StateSuccess)

	result := &RunResult{
		Timestamp:      ts,
		Total:          total,
		Locked:         batches.Locked,
		Circulating:    circ,
		Decimals:       supply.Decimals,
		WalletsChecked: batches.WalletsChecked,
		RPCCalls:       counters.RPCCalls(),
		Duration:       time.Since(start),
	}
	tl.Info("circulating supply run ok",
		zap.String("total", utils.MustFormatUnits(runLog.TotalSupply, int(supply.Decimals))),
		zap.String("locked", utils.MustFormatUnits(runLog.LockedBalance, int(supply.Decimals))),
		zap.String("circulating", utils.MustFormatUnits(runLog.CirculatingSupply, int(supply.Decimals))),
		zap.Int("wallets_checked", result.WalletsChecked),
		zap.Int64("rpc_calls", result.RPCCalls),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (r *Runner) validate() error {
	return ValidateOptions(r.opts)
}

// ValidateOptions is the INIT check of a run. Drivers call it before
// opening any database or ledger connection.
func ValidateOptions(opts Options) error {
	if strings.TrimSpace(opts.RPCURL) == "" {
		return ConfigurationError("init", errors.New("missing RPC_URL"))
	}
	if strings.TrimSpace(opts.TokenMint) == "" {
		return ConfigurationError("init", errors.New("missing TOKEN_MINT"))
	}
	if _, err := solana.PublicKeyFromBase58(opts.TokenMint); err != nil {
		return ConfigurationError("init", err)
	}
	return nil
}

// persist 快照与钱包余额依次写入，非事务
func (r *Runner) persist(ctx context.Context, ts time.Time, runLog *model.RunLog, records []model.WalletBalance) error {
	snapshot := &model.SupplySnapshot{
		Ts:                ts,
		TotalSupply:       runLog.TotalSupply,
		LockedBalance:     runLog.LockedBalance,
		CirculatingSupply: runLog.CirculatingSupply,
	}
	if err := r.store.InsertSnapshot(ctx, snapshot); err != nil {
		return PersistenceError("insert snapshot", err)
	}
	if len(records) == 0 {
		return nil
	}
	if err := r.store.UpsertWalletBalances(ctx, records); err != nil {
		return PersistenceError("upsert wallet balances", err)
	}
	return nil
}

func (r *Runner) appendRunLog(ctx context.Context, tl *zap.Logger, runLog *model.RunLog) {
	if err := r.store.AppendRunLog(ctx, runLog); err != nil {
		tl.Error("append run log failed", zap.Error(LoggingError("append run log", err)))
	}
}
