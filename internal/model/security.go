package model

import (
	"context"
	"fmt"
	"slices"
	"time"

	"StockAnalyser/internal/calculator"
)

// Kind distinguishes ordinary equities from the reference index.
type Kind int

const (
	KindGeneric Kind = iota
	KindIndex
)

// MarketData is the provider surface a Security fetches through.
type MarketData interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
	Fundamentals(ctx context.Context, symbol string) (*Fundamentals, error)
	CompanyName(ctx context.Context, symbol string) (string, error)
	TickerDetails(ctx context.Context, symbol string) (*TickerDetails, error)
}

// Calendar supplies the sampling window for price series.
type Calendar interface {
	LastBusinessDay() time.Time
	BusinessDayOneMonthAgo() time.Time
}

// Security holds identity, cached closes and derived metrics for one ticker.
// Every optional metric is paired with a Has flag; zero is a valid value for all of them.
type Security struct {
	Symbol string
	Kind   Kind

	CompanyName    string
	HasCompanyName bool

	ClosingPrices []float64

	StockReturn    float64
	HasStockReturn bool

	HighestPrice float64
	LowestPrice  float64
	HasExtremes  bool

	DailyVolatility float64
	HasVolatility   bool

	BetaValue float64
	HasBeta   bool

	PEValue         float64
	PSValue         float64
	EquityRatio     float64
	HasFundamentals bool

	UpdatedAt time.Time
}

// NewSecurity creates an empty generic security.
func NewSecurity(symbol string) *Security {
	return &Security{Symbol: symbol, Kind: KindGeneric}
}

// NewIndex creates an empty reference index. Indices never carry a company name.
func NewIndex(symbol string) *Security {
	return &Security{Symbol: symbol, Kind: KindIndex}
}

// Clone returns a deep copy.
func (s *Security) Clone() *Security {
	c := *s
	c.ClosingPrices = slices.Clone(s.ClosingPrices)
	return &c
}

// DisplayName is the company name when known, the symbol otherwise.
func (s *Security) DisplayName() string {
	if s.HasCompanyName && s.CompanyName != "" {
		return s.CompanyName
	}
	return s.Symbol
}

// LatestClose returns the most recent close.
func (s *Security) LatestClose() (float64, error) {
	if len(s.ClosingPrices) == 0 {
		return 0, ErrNoClosingPrices
	}
	return s.ClosingPrices[len(s.ClosingPrices)-1], nil
}

// FetchPriceSeries loads roughly one trading month of closes and replaces the cached series.
// On error the cached series is left as it was.
func (s *Security) FetchPriceSeries(ctx context.Context, src MarketData, cal Calendar) error {
	from, to := cal.BusinessDayOneMonthAgo(), cal.LastBusinessDay()
	bars, err := src.DailyBars(ctx, s.Symbol, from, to)
	if err != nil {
		return fmt.Errorf("fetch closing prices for %s: %w", s.Symbol, err)
	}
	s.ClosingPrices = Closes(bars)
	s.UpdatedAt = time.Now()
	return nil
}

// ComputeReturnAndExtremes derives the window return and price extremes from the cached closes.
// Volatility is filled in as well when the series is long enough for it.
func (s *Security) ComputeReturnAndExtremes() error {
	ret, err := calculator.Return(s.ClosingPrices)
	if err != nil {
		return fmt.Errorf("stock return for %s: %w", s.Symbol, err)
	}
	high, low, err := calculator.Extremes(s.ClosingPrices)
	if err != nil {
		return fmt.Errorf("price extremes for %s: %w", s.Symbol, err)
	}

	s.StockReturn, s.HasStockReturn = ret, true
	s.HighestPrice, s.LowestPrice, s.HasExtremes = high, low, true
	// A beta belongs to the return it was computed from.
	s.BetaValue, s.HasBeta = 0, false

	if vol, err := calculator.Volatility(s.ClosingPrices); err == nil {
		s.DailyVolatility, s.HasVolatility = vol, true
	} else {
		s.DailyVolatility, s.HasVolatility = 0, false
	}
	s.UpdatedAt = time.Now()
	return nil
}

// ComputeBeta sets the beta against a reference index return.
func (s *Security) ComputeBeta(referenceReturn float64) error {
	if !s.HasStockReturn {
		return fmt.Errorf("beta for %s: %w", s.Symbol, ErrMissingReturn)
	}
	beta, err := calculator.Beta(s.StockReturn, referenceReturn)
	if err != nil {
		return fmt.Errorf("beta for %s: %w", s.Symbol, ErrZeroReferenceReturn)
	}
	s.BetaValue, s.HasBeta = beta, true
	s.UpdatedAt = time.Now()
	return nil
}

// FetchFundamentalsAndCompute loads the latest quarterly filing and market capitalization and
// derives P/E, P/S and the equity ratio. The three ratios are set together or not at all.
func (s *Security) FetchFundamentalsAndCompute(ctx context.Context, src MarketData, cal Calendar) error {
	f, err := src.Fundamentals(ctx, s.Symbol)
	if err != nil {
		return fmt.Errorf("fetch fundamentals for %s: %w", s.Symbol, err)
	}
	details, err := src.TickerDetails(ctx, s.Symbol)
	if err != nil {
		return fmt.Errorf("fetch ticker details for %s: %w", s.Symbol, err)
	}

	if len(s.ClosingPrices) == 0 {
		if err := s.FetchPriceSeries(ctx, src, cal); err != nil {
			return err
		}
	}
	latest, err := s.LatestClose()
	if err != nil {
		return fmt.Errorf("fundamentals for %s: %w", s.Symbol, err)
	}

	pe, err := calculator.PriceToEarnings(latest, f.EPS)
	if err != nil {
		return fmt.Errorf("p/e for %s: %w", s.Symbol, err)
	}
	ps, err := calculator.PriceToSales(details.MarketCap, f.TotalRevenue)
	if err != nil {
		return fmt.Errorf("p/s for %s: %w", s.Symbol, err)
	}
	er, err := calculator.EquityRatio(f.TotalEquity, f.TotalAssets)
	if err != nil {
		return fmt.Errorf("equity ratio for %s: %w", s.Symbol, err)
	}

	s.PEValue, s.PSValue, s.EquityRatio, s.HasFundamentals = pe, ps, er, true
	if s.Kind == KindGeneric && f.CompanyName != "" {
		s.CompanyName, s.HasCompanyName = f.CompanyName, true
	}
	s.UpdatedAt = time.Now()
	return nil
}

// ResolveCompanyName looks up the display name of a generic security.
// For an index this is a no-op and the name stays absent.
func (s *Security) ResolveCompanyName(ctx context.Context, src MarketData) error {
	if s.Kind == KindIndex {
		return nil
	}
	name, err := src.CompanyName(ctx, s.Symbol)
	if err != nil {
		return fmt.Errorf("resolve company name for %s: %w", s.Symbol, err)
	}
	if name != "" {
		s.CompanyName, s.HasCompanyName = name, true
	}
	return nil
}
