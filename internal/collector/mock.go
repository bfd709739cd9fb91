package collector

import (
	"context"
	"time"

	"StockAnalyser/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without explicit bars get a generated series around Price.
type MockFetcher struct {
	Price       float64
	Bars        map[string][]model.Bar
	Fundamental map[string]*model.Fundamentals
	Details     map[string]*model.TickerDetails
	Err         error
	Calls       int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) DailyBars(_ context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, from, to), nil
}

func (m *MockFetcher) Fundamentals(_ context.Context, symbol string) (*model.Fundamentals, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if f, ok := m.Fundamental[symbol]; ok {
		return f, nil
	}
	return &model.Fundamentals{
		CompanyName:  symbol + " Inc.",
		EPS:          m.Price / 20,
		TotalRevenue: 1e9,
		TotalAssets:  5e9,
		TotalEquity:  2e9,
	}, nil
}

func (m *MockFetcher) CompanyName(_ context.Context, symbol string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if f, ok := m.Fundamental[symbol]; ok {
		return f.CompanyName, nil
	}
	return symbol + " Inc.", nil
}

func (m *MockFetcher) TickerDetails(_ context.Context, symbol string) (*model.TickerDetails, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if d, ok := m.Details[symbol]; ok {
		return d, nil
	}
	return &model.TickerDetails{Name: symbol + " Inc.", MarketCap: 8e9}, nil
}

func generateMockBars(basePrice float64, from, to time.Time) []model.Bar {
	var bars []model.Bar
	i := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		bars = append(bars, model.Bar{Time: d, Close: basePrice * (1 + float64(i)*0.001)})
		i++
	}
	return bars
}
