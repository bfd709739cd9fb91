package model

import "time"

// Bar is one daily aggregate as returned by the provider.
type Bar struct {
	Time  time.Time
	Close float64
}

// Closes extracts closing prices in bar order.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Fundamentals holds the figures of the most recent quarterly filing.
type Fundamentals struct {
	CompanyName  string
	FiscalPeriod string
	FiscalYear   string
	EPS          float64
	TotalRevenue float64
	TotalAssets  float64
	TotalEquity  float64
}

// TickerDetails is the reference metadata for a symbol.
type TickerDetails struct {
	Name      string
	MarketCap float64
}
