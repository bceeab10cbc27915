package supply

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// StrategyFunc returns ErrNotApplicable when the address is not of the kind
// the strategy handles; any other error is a transport or parse failure.
type StrategyFunc func(ctx context.Context, client LedgerClient, mint, address string) (*big.Int, error)

type Strategy struct {
	Name    string
	Resolve StrategyFunc
}

// DefaultStrategies 直接账户 -> owner 聚合查询 -> owner 枚举逐个查询
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "direct_account", Resolve: directAccount},
		{Name: "owner_aggregate", Resolve: ownerAggregate},
		{Name: "owner_enumerate", Resolve: ownerEnumerate},
	}
}

// Resolver classifies one address against one mint by trying its
// strategies in order; the first one that succeeds wins.
type Resolver struct {
	strategies []Strategy
}

func NewResolver(strategies ...Strategy) *Resolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Resolver{strategies: strategies}
}

func (r *Resolver) Resolve(ctx context.Context, client LedgerClient, mint, address string) (*big.Int, error) {
	var lastErr error
	for _, s := range r.strategies {
		amount, err := s.Resolve(ctx, client, mint, address)
		if err == nil {
			if amount == nil || amount.Sign() < 0 {
				lastErr = fmt.Errorf("%s: invalid amount %v", s.Name, amount)
				continue
			}
			return amount, nil
		}
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, TransientFetchError("resolve "+address, ctxErr)
		}
		lastErr = fmt.Errorf("%s: %w", s.Name, err)
	}
	if lastErr == nil {
		lastErr = ErrUnresolved
	}
	return nil, TransientFetchError("resolve "+address, lastErr)
}

func directAccount(ctx context.Context, client LedgerClient, mint, address string) (*big.Int, error) {
	acc, err := client.GetParsedAccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Amount == nil {
		return nil, ErrNotApplicable
	}
	if acc.Program != ProgramSPLToken && acc.Program != ProgramSPLToken2022 {
		return nil, ErrNotApplicable
	}
	if acc.Type != "account" || acc.Mint != mint {
		return nil, ErrNotApplicable
	}
	return new(big.Int).Set(acc.Amount), nil
}

// ownerAggregate 一个 owner 可能持有同一 mint 的多个 token account，全部求和
func ownerAggregate(ctx context.Context, client LedgerClient, mint, address string) (*big.Int, error) {
	accounts, err := client.GetParsedTokenAccountsByOwner(ctx, address, mint)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNotApplicable
	}
	total := new(big.Int)
	for _, acc := range accounts {
		if acc.Amount != nil {
			total.Add(total, acc.Amount)
		}
	}
	return total, nil
}

// ownerEnumerate is the most expensive path: one request per token account.
func ownerEnumerate(ctx context.Context, client LedgerClient, mint, address string) (*big.Int, error) {
	accounts, err := client.GetTokenAccountsByOwner(ctx, address, mint)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, acc := range accounts {
		bal, err := client.GetTokenAccountBalance(ctx, acc)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", acc, err)
		}
		if bal == nil {
			return nil, fmt.Errorf("balance of %s: empty response", acc)
		}
		total.Add(total, bal)
	}
	return total, nil
}
