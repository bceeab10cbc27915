package supply

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"circ-supply/internal/worker/model"
)

const testMint = "So11111111111111111111111111111111111111112"

var errRPC = errors.New("rpc: connection reset")

type fakeLedger struct {
	mu sync.Mutex

	total      TokenAmount
	totalErr   error
	accounts   map[string]*ParsedAccount
	accountErr map[string]error
	parsed     map[string][]TokenAccount
	parsedErr  map[string]error
	owned      map[string][]string
	ownedErr   map[string]error
	balances   map[string]*big.Int

	calls map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		total:      TokenAmount{Amount: big.NewInt(1_000_000), Decimals: 6},
		accounts:   map[string]*ParsedAccount{},
		accountErr: map[string]error{},
		parsed:     map[string][]TokenAccount{},
		parsedErr:  map[string]error{},
		owned:      map[string][]string{},
		ownedErr:   map[string]error{},
		balances:   map[string]*big.Int{},
		calls:      map[string]int{},
	}
}

func (f *fakeLedger) hit(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *fakeLedger) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeLedger) GetTotalSupply(_ context.Context, _ string) (TokenAmount, error) {
	f.hit("getTokenSupply")
	return f.total, f.totalErr
}

func (f *fakeLedger) GetParsedAccountInfo(_ context.Context, address string) (*ParsedAccount, error) {
	f.hit("getParsedAccountInfo")
	if err := f.accountErr[address]; err != nil {
		return nil, err
	}
	return f.accounts[address], nil
}

func (f *fakeLedger) GetParsedTokenAccountsByOwner(_ context.Context, owner, _ string) ([]TokenAccount, error) {
	f.hit("getParsedTokenAccountsByOwner")
	if err := f.parsedErr[owner]; err != nil {
		return nil, err
	}
	return f.parsed[owner], nil
}

func (f *fakeLedger) GetTokenAccountsByOwner(_ context.Context, owner, _ string) ([]string, error) {
	f.hit("getTokenAccountsByOwner")
	if err := f.ownedErr[owner]; err != nil {
		return nil, err
	}
	return f.owned[owner], nil
}

func (f *fakeLedger) GetTokenAccountBalance(_ context.Context, account string) (*big.Int, error) {
	f.hit("getTokenAccountBalance")
	bal, ok := f.balances[account]
	if !ok {
		return nil, errRPC
	}
	return bal, nil
}

// tokenAccount 构造一个直接持有 mint 的 token account
func tokenAccount(mint string, amount int64) *ParsedAccount {
	return &ParsedAccount{
		Program: ProgramSPLToken,
		Type:    "account",
		Mint:    mint,
		Amount:  big.NewInt(amount),
	}
}

type staticWallets struct {
	addresses []string
	err       error
}

func (s staticWallets) Load(context.Context) ([]string, error) {
	return s.addresses, s.err
}

type memStore struct {
	mu sync.Mutex

	snapshots []model.SupplySnapshot
	balances  map[string]model.WalletBalance
	runLogs   []model.RunLog

	snapshotErr error
	balanceErr  error
	runLogErr   error
}

func newMemStore() *memStore {
	return &memStore{balances: map[string]model.WalletBalance{}}
}

func (m *memStore) InsertSnapshot(_ context.Context, s *model.SupplySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshotErr != nil {
		return m.snapshotErr
	}
	m.snapshots = append(m.snapshots, *s)
	return nil
}

func (m *memStore) UpsertWalletBalances(_ context.Context, balances []model.WalletBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balanceErr != nil {
		return m.balanceErr
	}
	for _, b := range balances {
		m.balances[b.Wallet] = b
	}
	return nil
}

func (m *memStore) AppendRunLog(_ context.Context, l *model.RunLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runLogErr != nil {
		return m.runLogErr
	}
	m.runLogs = append(m.runLogs, *l)
	return nil
}
