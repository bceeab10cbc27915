package supply

import (
	"context"
	"math/big"
)

const (
	ProgramSPLToken     = "spl-token"
	ProgramSPLToken2022 = "spl-token-2022"
)

// TokenAmount 总供应量及精度
type TokenAmount struct {
	Amount   *big.Int
	Decimals uint8
}

// ParsedAccount is the jsonParsed view of an arbitrary account. Mint and
// Amount are only set for token-holding accounts.
type ParsedAccount struct {
	Program string
	Type    string
	Mint    string
	Owner   string
	Amount  *big.Int
}

// TokenAccount Amount 为 nil 表示未解析出余额
type TokenAccount struct {
	Address string
	Amount  *big.Int
}

// LedgerClient is the remote ledger surface the resolver cascade needs.
// Every call is a separate remote request and may fail transiently.
type LedgerClient interface {
	GetTotalSupply(ctx context.Context, mint string) (TokenAmount, error)
	// GetParsedAccountInfo returns nil, nil when the account does not exist.
	GetParsedAccountInfo(ctx context.Context, address string) (*ParsedAccount, error)
	GetParsedTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error)
	GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]string, error)
	GetTokenAccountBalance(ctx context.Context, account string) (*big.Int, error)
}
