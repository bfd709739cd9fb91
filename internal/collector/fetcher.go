package collector

import "StockAnalyser/internal/model"

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	model.MarketData
	Name() string
}

var (
	_ Fetcher = (*PolygonClient)(nil)
	_ Fetcher = (*MockFetcher)(nil)
)
