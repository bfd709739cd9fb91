package calculator

import "gonum.org/v1/gonum/stat"

// DailyReturns converts closes into day-over-day fractional changes.
// Days following a zero close are skipped.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	return returns
}

// Volatility is the sample standard deviation of daily returns.
// At least two returns (three closes) are needed for a sample deviation.
func Volatility(closes []float64) (float64, error) {
	returns := DailyReturns(closes)
	if len(returns) < 2 {
		return 0, ErrInsufficientData
	}
	return stat.StdDev(returns, nil), nil
}
