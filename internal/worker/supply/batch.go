package supply

import (
	"context"
	"math/big"
	"time"

	"circ-supply/internal/worker/model"
	"circ-supply/internal/worker/monitor"

	"github.com/sourcegraph/conc/pool"
)

const DefaultBatchSize = 5

type BatchOptions struct {
	Size  int
	Delay time.Duration
}

type FetchFunc func(ctx context.Context, address string) *big.Int

type BatchResult struct {
	Locked         *big.Int
	Records        []model.WalletBalance
	WalletsChecked int
	Batches        int
}

// RunBatches fetches addresses in consecutive batches of opts.Size. Fetches
// within a batch run concurrently; batches run one after another with
// opts.Delay in between. Batch size and delay never change the sum.
// The only error returned is ctx's, checked between batches.
func RunBatches(ctx context.Context, addresses []string, opts BatchOptions, fetch FetchFunc) (BatchResult, error) {
	size := opts.Size
	if size <= 0 {
		size = DefaultBatchSize
	}

	res := BatchResult{
		Locked:  new(big.Int),
		Records: make([]model.WalletBalance, 0, len(addresses)),
	}

	for start := 0; start < len(addresses); start += size {
		end := min(start+size, len(addresses))
		batch := addresses[start:end]
		balances := make([]*big.Int, len(batch))

		batchStart := time.Now()
		p := pool.New().WithMaxGoroutines(len(batch))
		for i, addr := range batch {
			p.Go(func() {
				balances[i] = fetch(ctx, addr)
			})
		}
		p.Wait()
		monitor.BatchDuration.Observe(time.Since(batchStart).Seconds())

		// 汇总只在当前 goroutine 中进行，无需加锁
		now := time.Now().UTC()
		for i, addr := range batch {
			bal := balances[i]
			if bal == nil {
				bal = new(big.Int)
			}
			res.Locked.Add(res.Locked, bal)
			res.Records = append(res.Records, model.WalletBalance{
				Wallet:      addr,
				Balance:     bal.String(),
				LastUpdated: now,
			})
		}
		res.WalletsChecked += len(batch)
		res.Batches++

		if err := ctx.Err(); err != nil {
			return res, err
		}
		if end < len(addresses) {
			if err := sleepCtx(ctx, opts.Delay); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}
