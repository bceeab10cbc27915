package walletutils

import (
	"strings"

	"circ-supply/internal/worker/model"
)

// DeduplicateAddresses 去空白、去空串、去重，保持首次出现的顺序
func DeduplicateAddresses(addresses []string) []string {
	deduplicated := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; !ok {
			seen[addr] = struct{}{}
			deduplicated = append(deduplicated, addr)
		}
	}
	return deduplicated
}

// DeduplicateBalances 按 wallet 去重，后出现的记录覆盖先前的（last write wins）
func DeduplicateBalances(balances []model.WalletBalance) []model.WalletBalance {
	index := make(map[string]int, len(balances))
	deduplicated := make([]model.WalletBalance, 0, len(balances))
	for _, b := range balances {
		if i, ok := index[b.Wallet]; ok {
			deduplicated[i] = b
			continue
		}
		index[b.Wallet] = len(deduplicated)
		deduplicated = append(deduplicated, b)
	}
	return deduplicated
}
