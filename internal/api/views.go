package api

import (
	"math/big"
	"time"

	"circ-supply/internal/worker/model"
	"circ-supply/pkg/utils"
)

// snapshotView raw base-unit strings plus human readable renderings
type snapshotView struct {
	Ts                time.Time `json:"ts"`
	TotalSupply       string    `json:"total_supply"`
	LockedBalance     string    `json:"locked_balance"`
	CirculatingSupply string    `json:"circulating_supply"`
	TotalFormatted    string    `json:"totalFormatted"`
	LockedFormatted   string    `json:"lockedFormatted"`
	CircFormatted     string    `json:"circFormatted"`
	PctLocked         *float64  `json:"pctLocked"`
}

type historyResponse struct {
	Count int            `json:"count"`
	Data  []snapshotView `json:"data"`
}

type averageView struct {
	TotalSupply       string   `json:"total_supply"`
	LockedBalance     string   `json:"locked_balance"`
	CirculatingSupply string   `json:"circulating_supply"`
	TotalFormatted    string   `json:"totalFormatted"`
	LockedFormatted   string   `json:"lockedFormatted"`
	CircFormatted     string   `json:"circFormatted"`
	PctLocked         *float64 `json:"pctLocked"`
}

type extremeView struct {
	CirculatingSupply string `json:"circulating_supply"`
	CircFormatted     string `json:"circFormatted"`
}

type summaryResponse struct {
	Count   int         `json:"count"`
	Average averageView `json:"average"`
	Min     extremeView `json:"min"`
	Max     extremeView `json:"max"`
}

type amounts struct {
	total, locked, circ *big.Int
}

func parseAmounts(s *model.SupplySnapshot) (amounts, error) {
	total, err := utils.ParseAmount(s.TotalSupply)
	if err != nil {
		return amounts{}, err
	}
	locked, err := utils.ParseAmount(s.LockedBalance)
	if err != nil {
		return amounts{}, err
	}
	circ, err := utils.ParseAmount(s.CirculatingSupply)
	if err != nil {
		return amounts{}, err
	}
	return amounts{total: total, locked: locked, circ: circ}, nil
}

func newSnapshotView(s *model.SupplySnapshot, decimals int) (snapshotView, error) {
	a, err := parseAmounts(s)
	if err != nil {
		return snapshotView{}, err
	}
	return snapshotView{
		Ts:                s.Ts,
		TotalSupply:       a.total.String(),
		LockedBalance:     a.locked.String(),
		CirculatingSupply: a.circ.String(),
		TotalFormatted:    utils.MustFormatUnits(a.total.String(), decimals),
		LockedFormatted:   utils.MustFormatUnits(a.locked.String(), decimals),
		CircFormatted:     utils.MustFormatUnits(a.circ.String(), decimals),
		PctLocked:         utils.PctLockedFloat(a.locked, a.total),
	}, nil
}

// summarize averages use integer division, matching the stored precision
func summarize(rows []*model.SupplySnapshot, decimals int) (summaryResponse, error) {
	totalSum, lockedSum, circSum := new(big.Int), new(big.Int), new(big.Int)
	var minCirc, maxCirc *big.Int

	for _, row := range rows {
		a, err := parseAmounts(row)
		if err != nil {
			return summaryResponse{}, err
		}
		totalSum.Add(totalSum, a.total)
		lockedSum.Add(lockedSum, a.locked)
		circSum.Add(circSum, a.circ)
		if minCirc == nil || a.circ.Cmp(minCirc) < 0 {
			minCirc = a.circ
		}
		if maxCirc == nil || a.circ.Cmp(maxCirc) > 0 {
			maxCirc = a.circ
		}
	}

	n := big.NewInt(int64(len(rows)))
	avgTotal := new(big.Int).Quo(totalSum, n)
	avgLocked := new(big.Int).Quo(lockedSum, n)
	avgCirc := new(big.Int).Quo(circSum, n)

	return summaryResponse{
		Count: len(rows),
		Average: averageView{
			TotalSupply:       avgTotal.String(),
			LockedBalance:     avgLocked.String(),
			CirculatingSupply: avgCirc.String(),
			TotalFormatted:    utils.MustFormatUnits(avgTotal.String(), decimals),
			LockedFormatted:   utils.MustFormatUnits(avgLocked.String(), decimals),
			CircFormatted:     utils.MustFormatUnits(avgCirc.String(), decimals),
			PctLocked:         utils.PctLockedFloat(avgLocked, avgTotal),
		},
		Min: extremeView{
			CirculatingSupply: minCirc.String(),
			CircFormatted:     utils.MustFormatUnits(minCirc.String(), decimals),
		},
		Max: extremeView{
			CirculatingSupply: maxCirc.String(),
			CircFormatted:     utils.MustFormatUnits(maxCirc.String(), decimals),
		},
	}, nil
}
