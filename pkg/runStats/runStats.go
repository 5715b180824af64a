// Package runStats computes the per-transaction name resolution statistics and keeps
// the run-wide counters shared by every worker.
package runStats

import (
	"github.com/shopspring/decimal"
)

// TransactionStats is written to stats/<hash>_stat.json.
type TransactionStats struct {
	TotalNodes       int     `json:"total_nodes"`
	TotalNameMatches int     `json:"total_name_matches"`
	TotalMissing     int     `json:"total_missing"`
	MissingRate      float64 `json:"missing_rate"`
	TotalIgnored     int     `json:"total_ignored"`
	IgnoreRate       float64 `json:"ignore_rate"`
}

func NewTransactionStats(totalNodes int, nameMatches int, ignored int) *TransactionStats {
	missing := totalNodes - nameMatches
	return &TransactionStats{
		TotalNodes:       totalNodes,
		TotalNameMatches: nameMatches,
		TotalMissing:     missing,
		MissingRate:      Percentage(missing, totalNodes),
		TotalIgnored:     ignored,
		IgnoreRate:       Percentage(ignored, totalNodes),
	}
}

// Percentage returns part/total*100 rounded to two decimals, or 0 when total is 0.
func Percentage(part int, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2)
	return rate.InexactFloat64()
}

// InputLengths summarizes the raw word counts of every node of an action tree.
type InputLengths struct {
	LengthArray   []int   `json:"length_array"`
	TotalNodes    int     `json:"total_nodes"`
	AverageLength float64 `json:"average_length"`
}

func NewInputLengths(lengths []int) *InputLengths {
	if lengths == nil {
		lengths = []int{}
	}
	il := &InputLengths{
		LengthArray: lengths,
		TotalNodes:  len(lengths),
	}
	if len(lengths) == 0 {
		return il
	}
	sum := decimal.Zero
	for _, l := range lengths {
		sum = sum.Add(decimal.NewFromInt(int64(l)))
	}
	il.AverageLength = sum.Div(decimal.NewFromInt(int64(len(lengths)))).InexactFloat64()
	return il
}
