package supply

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestFetcher(ledger LedgerClient, policy RetryPolicy, counters *Counters) (*Fetcher, *[]time.Duration) {
	f := NewFetcher(NewResolver(), ledger, testMint, policy, counters, zap.NewNop())
	waits := &[]time.Duration{}
	f.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return f, waits
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 500*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 1500*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 3*time.Second, p.Backoff(6))
	assert.Equal(t, 3*time.Second, p.Backoff(10))
}

func TestFetch_SuccessFirstAttempt(t *testing.T) {
	ledger := newFakeLedger()
	ledger.accounts["acc"] = tokenAccount(testMint, 11)
	counters := &Counters{}

	f, waits := newTestFetcher(ledger, DefaultRetryPolicy(), counters)
	bal := f.Fetch(context.Background(), "acc")

	assert.Equal(t, int64(11), bal.Int64())
	assert.Equal(t, int64(1), counters.RPCCalls())
	assert.Empty(t, *waits)
}

func TestFetch_ExhaustedRetriesYieldZero(t *testing.T) {
	ledger := newFakeLedger()
	ledger.accountErr["bad"] = errRPC
	ledger.parsedErr["bad"] = errRPC
	ledger.ownedErr["bad"] = errRPC
	counters := &Counters{}

	policy := RetryPolicy{MaxRetries: 3, BaseDelay: 500 * time.Millisecond, CapDelay: time.Second}
	f, waits := newTestFetcher(ledger, policy, counters)
	bal := f.Fetch(context.Background(), "bad")

	assert.Equal(t, 0, bal.Sign())
	assert.Equal(t, int64(4), counters.RPCCalls())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, time.Second}, *waits)
}

func TestFetch_ZeroRetries(t *testing.T) {
	ledger := newFakeLedger()
	ledger.ownedErr["bad"] = errRPC
	counters := &Counters{}

	f, waits := newTestFetcher(ledger, RetryPolicy{MaxRetries: 0}, counters)
	bal := f.Fetch(context.Background(), "bad")

	assert.Equal(t, 0, bal.Sign())
	assert.Equal(t, int64(1), counters.RPCCalls())
	assert.Empty(t, *waits)
}

type flakyLedger struct {
	*fakeLedger
	failures int
}

func (f *flakyLedger) GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]string, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errRPC
	}
	return f.fakeLedger.GetTokenAccountsByOwner(ctx, owner, mint)
}

func TestFetch_RecoversAfterTransientFailure(t *testing.T) {
	base := newFakeLedger()
	base.owned["owner"] = []string{"a1"}
	base.balances["a1"] = big.NewInt(9)
	ledger := &flakyLedger{fakeLedger: base, failures: 2}
	counters := &Counters{}

	f, waits := newTestFetcher(ledger, DefaultRetryPolicy(), counters)
	bal := f.Fetch(context.Background(), "owner")

	assert.Equal(t, int64(9), bal.Int64())
	assert.Equal(t, int64(3), counters.RPCCalls())
	assert.Len(t, *waits, 2)
}

func TestFetch_CancelledContextStopsRetrying(t *testing.T) {
	ledger := newFakeLedger()
	ledger.ownedErr["bad"] = errRPC
	counters := &Counters{}

	f := NewFetcher(NewResolver(), ledger, testMint, RetryPolicy{MaxRetries: 5, BaseDelay: time.Hour}, counters, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bal := f.Fetch(ctx, "bad")
	assert.Equal(t, 0, bal.Sign())
	assert.Equal(t, int64(1), counters.RPCCalls())
}
