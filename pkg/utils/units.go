package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var tenThousand = big.NewInt(10000)

// ParseAmount 解析十进制整数字符串（base units）
func ParseAmount(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer amount: %q", raw)
	}
	return v, nil
}

// Circulating returns total - locked. The result is negative when locked exceeds total.
func Circulating(total, locked *big.Int) *big.Int {
	return new(big.Int).Sub(orZero(total), orZero(locked))
}

// FormatUnits renders a base-unit integer string at the given decimal scale,
// trimming trailing fractional zeros: ("1500000000", 9) -> "1.5".
func FormatUnits(raw string, decimals int) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "0", nil
	}
	if decimals < 0 {
		return "", fmt.Errorf("negative decimals: %d", decimals)
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return "", err
	}
	if decimals == 0 {
		return raw, nil
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String(), nil
}

// MustFormatUnits 用于已校验过的数据，解析失败时返回原始字符串
func MustFormatUnits(raw string, decimals int) string {
	s, err := FormatUnits(raw, decimals)
	if err != nil {
		return raw
	}
	return s
}

// PctLocked returns locked/total as a percentage with two fractional digits,
// or nil when total is zero. The division itself is integer-only.
func PctLocked(locked, total *big.Int) *decimal.Decimal {
	if total == nil || total.Sign() == 0 {
		return nil
	}
	q := new(big.Int).Mul(orZero(locked), tenThousand)
	q.Quo(q, total)
	pct := decimal.NewFromBigInt(q, -2)
	return &pct
}

// PctLockedFloat 供 JSON 输出使用
func PctLockedFloat(locked, total *big.Int) *float64 {
	pct := PctLocked(locked, total)
	if pct == nil {
		return nil
	}
	f := pct.InexactFloat64()
	return &f
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
