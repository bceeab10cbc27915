package wallet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"circ-supply/pkg/httpclient"
	walletutils "circ-supply/pkg/utils/wallet_utils"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// ErrMalformedWalletList 锁仓地址列表不是 JSON 字符串数组
var ErrMalformedWalletList = errors.New("locked wallet list must be a JSON array of strings")

// Source loads the locked wallet list from a file path or an http(s) URL.
type Source struct {
	location string
	http     *httpclient.HTTPClient
	tl       *zap.Logger
}

func NewSource(location string, timeout time.Duration, tl *zap.Logger) *Source {
	s := &Source{location: strings.TrimSpace(location), tl: tl}
	if isURL(s.location) {
		s.http = httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
			Timeout:    timeout,
			MaxRetries: 2,
			UserAgent:  "circ-supply/1.0",
		}, tl)
	}
	return s
}

func (s *Source) Location() string {
	return s.location
}

func (s *Source) Load(ctx context.Context) ([]string, error) {
	if s.location == "" {
		return nil, errors.New("locked wallet source is empty")
	}

	var (
		raw []byte
		err error
	)
	if s.http != nil {
		raw, err = s.http.GetBytes(ctx, s.location, map[string]string{"Accept": "application/json"})
	} else {
		raw, err = os.ReadFile(s.location)
	}
	if err != nil {
		return nil, fmt.Errorf("read locked wallets from %s: %w", s.location, err)
	}

	addresses, err := Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.location, err)
	}
	s.tl.Info("locked wallets loaded", zap.String("source", s.location), zap.Int("count", len(addresses)))
	return addresses, nil
}

// Validate parses raw as a JSON array of strings and returns the trimmed,
// non-empty, de-duplicated addresses in first-seen order.
func Validate(raw []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedWalletList
	}
	var list []string
	if err := sonic.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWalletList, err)
	}
	return walletutils.DeduplicateAddresses(list), nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
