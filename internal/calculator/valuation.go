package calculator

// PriceToEarnings divides the latest close by earnings per share.
func PriceToEarnings(latestClose, eps float64) (float64, error) {
	return ratio(latestClose, eps)
}

// PriceToSales divides market capitalization by total revenue.
func PriceToSales(marketCap, revenue float64) (float64, error) {
	return ratio(marketCap, revenue)
}

// EquityRatio divides total equity by total assets.
func EquityRatio(equity, assets float64) (float64, error) {
	return ratio(equity, assets)
}

func ratio(numerator, denominator float64) (float64, error) {
	if denominator == 0 {
		return 0, ErrZeroDivisor
	}
	return numerator / denominator, nil
}
