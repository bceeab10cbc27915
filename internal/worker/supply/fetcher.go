package supply

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"circ-supply/internal/worker/monitor"

	"go.uber.org/zap"
)

// RetryPolicy 线性退避：min(attempt*BaseDelay, CapDelay)
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	CapDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 500 * time.Millisecond, CapDelay: 3 * time.Second}
}

func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * p.BaseDelay
	if p.CapDelay > 0 && d > p.CapDelay {
		return p.CapDelay
	}
	return d
}

// Counters is shared by all fetches of one run.
type Counters struct {
	rpcCalls atomic.Int64
}

func (c *Counters) AddRPCCall() {
	c.rpcCalls.Add(1)
	monitor.RPCCalls.Inc()
}

func (c *Counters) RPCCalls() int64 {
	return c.rpcCalls.Load()
}

// Fetcher wraps the resolver with bounded retries. It never returns an error:
// an address that keeps failing contributes zero.
type Fetcher struct {
	resolver *Resolver
	client   LedgerClient
	mint     string
	policy   RetryPolicy
	counters *Counters
	tl       *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewFetcher(resolver *Resolver, client LedgerClient, mint string, policy RetryPolicy, counters *Counters, tl *zap.Logger) *Fetcher {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Fetcher{
		resolver: resolver,
		client:   client,
		mint:     mint,
		policy:   policy,
		counters: counters,
		tl:       tl,
		sleep:    sleepCtx,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, address string) *big.Int {
	var lastErr error
	for attempt := 0; attempt <= f.policy.MaxRetries; attempt++ {
		f.counters.AddRPCCall()
		bal, err := f.resolver.Resolve(ctx, f.client, f.mint, address)
		if err == nil {
			return bal
		}
		lastErr = err
		f.tl.Debug("balance fetch attempt failed",
			zap.String("address", address),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == f.policy.MaxRetries {
			break
		}
		if err := f.sleep(ctx, f.policy.Backoff(attempt+1)); err != nil {
			lastErr = err
			break
		}
	}

	monitor.FetchFailures.Inc()
	f.tl.Error("retries exhausted, counting balance as zero",
		zap.String("address", address),
		zap.Int("max_retries", f.policy.MaxRetries),
		zap.Error(lastErr))
	return new(big.Int)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
