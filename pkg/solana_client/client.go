package solana_client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"circ-supply/internal/worker/supply"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// Init solana client
func Init(rawUrl string) *rpc.Client {
	client := rpc.New(rawUrl)
	return client
}

// Ledger adapts the solana-go RPC client to supply.LedgerClient.
type Ledger struct {
	rpc        *rpc.Client
	limiter    *rate.Limiter
	commitment rpc.CommitmentType
	timeout    time.Duration
}

var _ supply.LedgerClient = (*Ledger)(nil)

// NewLedger ratePerSecond <= 0 表示不限速
func NewLedger(client *rpc.Client, ratePerSecond int) *Ledger {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond)
	}
	return &Ledger{
		rpc:        client,
		limiter:    limiter,
		commitment: rpc.CommitmentConfirmed,
	}
}

// WithTimeout bounds every request, limiter wait included. 0 disables it.
func (l *Ledger) WithTimeout(d time.Duration) *Ledger {
	l.timeout = d
	return l
}

func (l *Ledger) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if l.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
	}
	if err := l.limiter.Wait(ctx); err != nil {
		cancel()
		return ctx, nil, err
	}
	return ctx, cancel, nil
}

func (l *Ledger) GetTotalSupply(ctx context.Context, mint string) (supply.TokenAmount, error) {
	mintPk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return supply.TokenAmount{}, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	ctx, cancel, err := l.begin(ctx)
	if err != nil {
		return supply.TokenAmount{}, err
	}
	defer cancel()
	out, err := l.rpc.GetTokenSupply(ctx, mintPk, l.commitment)
	if err != nil {
		return supply.TokenAmount{}, err
	}
	if out == nil || out.Value == nil {
		return supply.TokenAmount{}, errors.New("getTokenSupply: empty response")
	}
	amount, err := parseAmount(out.Value.Amount)
	if err != nil {
		return supply.TokenAmount{}, err
	}
	return supply.TokenAmount{Amount: amount, Decimals: out.Value.Decimals}, nil
}

func (l *Ledger) GetParsedAccountInfo(ctx context.Context, address string) (*supply.ParsedAccount, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	ctx, cancel, err := l.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	out, err := l.rpc.GetAccountInfoWithOpts(ctx, pk, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingJSONParsed,
		Commitment: l.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}

	acc := &supply.ParsedAccount{Owner: out.Value.Owner.String()}
	if out.Value.Data == nil {
		return acc, nil
	}
	data, ok := decodeParsed(out.Value.Data.GetRawJSON())
	if !ok {
		// 非 jsonParsed 数据（例如系统账户），不是 token account
		return acc, nil
	}
	return data.toParsedAccount(), nil
}

func (l *Ledger) GetParsedTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]supply.TokenAccount, error) {
	result, err := l.tokenAccountsByOwner(ctx, owner, mint, solana.EncodingJSONParsed)
	if err != nil {
		return nil, err
	}
	accounts := make([]supply.TokenAccount, 0, len(result))
	for _, ta := range result {
		if ta == nil {
			continue
		}
		item := supply.TokenAccount{Address: ta.Pubkey.String()}
		if ta.Account.Data != nil {
			if data, ok := decodeParsed(ta.Account.Data.GetRawJSON()); ok {
				item.Amount = data.amount()
			}
		}
		accounts = append(accounts, item)
	}
	return accounts, nil
}

func (l *Ledger) GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]string, error) {
	result, err := l.tokenAccountsByOwner(ctx, owner, mint, solana.EncodingBase64)
	if err != nil {
		return nil, err
	}
	accounts := make([]string, 0, len(result))
	for _, ta := range result {
		if ta != nil {
			accounts = append(accounts, ta.Pubkey.String())
		}
	}
	return accounts, nil
}

func (l *Ledger) GetTokenAccountBalance(ctx context.Context, account string) (*big.Int, error) {
	pk, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return nil, fmt.Errorf("invalid token account %q: %w", account, err)
	}
	ctx, cancel, err := l.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	out, err := l.rpc.GetTokenAccountBalance(ctx, pk, l.commitment)
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, errors.New("getTokenAccountBalance: empty response")
	}
	return parseAmount(out.Value.Amount)
}

func (l *Ledger) tokenAccountsByOwner(ctx context.Context, owner, mint string, encoding solana.EncodingType) ([]*rpc.TokenAccount, error) {
	ownerPk, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner %q: %w", owner, err)
	}
	mintPk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	ctx, cancel, err := l.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	out, err := l.rpc.GetTokenAccountsByOwner(
		ctx,
		ownerPk,
		&rpc.GetTokenAccountsConfig{
			Mint: &mintPk,
		},
		&rpc.GetTokenAccountsOpts{
			Commitment: l.commitment,
			Encoding:   encoding,
		},
	)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return out.Value, nil
}

// parsedAccountData jsonParsed 编码下的账户数据
type parsedAccountData struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string `json:"type"`
		Info struct {
			Mint        string `json:"mint"`
			Owner       string `json:"owner"`
			TokenAmount *struct {
				Amount   string `json:"amount"`
				Decimals uint8  `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

func decodeParsed(raw []byte) (*parsedAccountData, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var data parsedAccountData
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, false
	}
	return &data, true
}

func (d *parsedAccountData) amount() *big.Int {
	if d.Parsed.Info.TokenAmount == nil {
		return nil
	}
	v, err := parseAmount(d.Parsed.Info.TokenAmount.Amount)
	if err != nil {
		return nil
	}
	return v
}

func (d *parsedAccountData) toParsedAccount() *supply.ParsedAccount {
	return &supply.ParsedAccount{
		Program: d.Program,
		Type:    d.Parsed.Type,
		Mint:    d.Parsed.Info.Mint,
		Owner:   d.Parsed.Info.Owner,
		Amount:  d.amount(),
	}
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid token amount %q", s)
	}
	return v, nil
}
