package review

import "github.com/shopspring/decimal"

// MinTradeCount is the weekly-frequency floor: more than 26 trades per quarter.
const MinTradeCount = 26

// EvaluateSI applies the systematic internaliser test to one (instrument, period).
//
// Returns 1 when tradeCount > MinTradeCount, tradeCount > threshold and no
// auction trade was seen; 0 otherwise. All comparisons are strict.
func EvaluateSI(tradeCount int, threshold decimal.Decimal, auctions int) int {
	if tradeCount <= MinTradeCount || auctions != 0 {
		return 0
	}
	if !decimal.NewFromInt(int64(tradeCount)).GreaterThan(threshold) {
		return 0
	}
	return 1
}
