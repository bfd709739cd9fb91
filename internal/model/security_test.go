package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyser/internal/calculator"
)

type stubSource struct {
	bars         []Bar
	barsErr      error
	fundamentals *Fundamentals
	fundErr      error
	details      *TickerDetails
	detailsErr   error
	name         string
	nameErr      error

	barCalls  int
	fundCalls int
	nameCalls int
	from, to  time.Time
}

func (s *stubSource) DailyBars(_ context.Context, _ string, from, to time.Time) ([]Bar, error) {
	s.barCalls++
	s.from, s.to = from, to
	return s.bars, s.barsErr
}

func (s *stubSource) Fundamentals(_ context.Context, _ string) (*Fundamentals, error) {
	s.fundCalls++
	return s.fundamentals, s.fundErr
}

func (s *stubSource) CompanyName(_ context.Context, _ string) (string, error) {
	s.nameCalls++
	return s.name, s.nameErr
}

func (s *stubSource) TickerDetails(_ context.Context, _ string) (*TickerDetails, error) {
	return s.details, s.detailsErr
}

type fixedCalendar struct{ from, to time.Time }

func (c fixedCalendar) LastBusinessDay() time.Time        { return c.to }
func (c fixedCalendar) BusinessDayOneMonthAgo() time.Time { return c.from }

var testCal = fixedCalendar{
	from: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	to:   time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
}

func barsOf(closes ...float64) []Bar {
	bars := make([]Bar, len(closes))
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = Bar{Time: start.AddDate(0, 0, i), Close: c}
	}
	return bars
}

func TestFetchPriceSeries_ReplacesSeries(t *testing.T) {
	src := &stubSource{bars: barsOf(100, 90, 80, 95, 110)}
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{1, 2, 3}

	require.NoError(t, sec.FetchPriceSeries(context.Background(), src, testCal))
	assert.Equal(t, []float64{100, 90, 80, 95, 110}, sec.ClosingPrices)
	assert.Equal(t, testCal.from, src.from)
	assert.Equal(t, testCal.to, src.to)
}

func TestFetchPriceSeries_ErrorKeepsState(t *testing.T) {
	src := &stubSource{barsErr: &RateLimitError{Remaining: time.Minute}}
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{1, 2, 3}
	sec.StockReturn, sec.HasStockReturn = 3, true

	err := sec.FetchPriceSeries(context.Background(), src, testCal)
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, []float64{1, 2, 3}, sec.ClosingPrices)
	assert.True(t, sec.HasStockReturn)
	assert.Equal(t, 3.0, sec.StockReturn)
}

func TestComputeReturnAndExtremes_Scenario(t *testing.T) {
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{100, 90, 80, 95, 110}

	require.NoError(t, sec.ComputeReturnAndExtremes())
	assert.True(t, sec.HasStockReturn)
	assert.Equal(t, 1.10, sec.StockReturn)
	assert.True(t, sec.HasExtremes)
	assert.Equal(t, 110.0, sec.HighestPrice)
	assert.Equal(t, 80.0, sec.LowestPrice)
	assert.True(t, sec.HasVolatility)
	assert.Greater(t, sec.DailyVolatility, 0.0)
	assert.Equal(t, []float64{100, 90, 80, 95, 110}, sec.ClosingPrices)
}

func TestComputeReturnAndExtremes_DropsStaleBeta(t *testing.T) {
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{100, 110}
	require.NoError(t, sec.ComputeReturnAndExtremes())
	require.NoError(t, sec.ComputeBeta(1.05))
	require.True(t, sec.HasBeta)

	sec.ClosingPrices = []float64{100, 50}
	require.NoError(t, sec.ComputeReturnAndExtremes())
	assert.Equal(t, 0.5, sec.StockReturn)
	assert.False(t, sec.HasBeta)
	assert.Zero(t, sec.BetaValue)

	require.NoError(t, sec.ComputeBeta(0.25))
	assert.Equal(t, 2.0, sec.BetaValue)
}

func TestComputeReturnAndExtremes_FailureKeepsBeta(t *testing.T) {
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{100}
	sec.BetaValue, sec.HasBeta = 1.2, true

	assert.Error(t, sec.ComputeReturnAndExtremes())
	assert.True(t, sec.HasBeta)
}

func TestComputeReturnAndExtremes_TooShort(t *testing.T) {
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{100}

	err := sec.ComputeReturnAndExtremes()
	assert.ErrorIs(t, err, calculator.ErrInsufficientData)
	assert.False(t, sec.HasStockReturn)
	assert.False(t, sec.HasExtremes)
}

func TestComputeBeta(t *testing.T) {
	sec := NewSecurity("AAPL")

	err := sec.ComputeBeta(0.05)
	assert.ErrorIs(t, err, ErrMissingReturn)
	assert.False(t, sec.HasBeta)

	sec.StockReturn, sec.HasStockReturn = 0.10, true
	err = sec.ComputeBeta(0)
	assert.ErrorIs(t, err, ErrZeroReferenceReturn)
	assert.False(t, sec.HasBeta)

	require.NoError(t, sec.ComputeBeta(0.05))
	assert.True(t, sec.HasBeta)
	assert.Equal(t, 2.0, sec.BetaValue)
}

func TestComputeBeta_ZeroIsPresent(t *testing.T) {
	sec := NewSecurity("AAPL")
	sec.StockReturn, sec.HasStockReturn = 0, true

	require.NoError(t, sec.ComputeBeta(1.02))
	assert.True(t, sec.HasBeta)
	assert.Equal(t, 0.0, sec.BetaValue)
}

func TestFetchFundamentalsAndCompute_Scenario(t *testing.T) {
	src := &stubSource{
		bars: barsOf(40, 45, 50),
		fundamentals: &Fundamentals{
			CompanyName:  "Apple Inc.",
			EPS:          5,
			TotalRevenue: 1000,
			TotalAssets:  500,
			TotalEquity:  200,
		},
		details: &TickerDetails{MarketCap: 8000},
	}
	sec := NewSecurity("AAPL")

	require.NoError(t, sec.FetchFundamentalsAndCompute(context.Background(), src, testCal))
	assert.Equal(t, 1, src.barCalls, "empty series triggers one price fetch")
	assert.True(t, sec.HasFundamentals)
	assert.Equal(t, 10.0, sec.PEValue)
	assert.Equal(t, 8.0, sec.PSValue)
	assert.Equal(t, 0.4, sec.EquityRatio)
	assert.Equal(t, "Apple Inc.", sec.CompanyName)
	assert.True(t, sec.HasCompanyName)
}

func TestFetchFundamentalsAndCompute_UsesCachedCloses(t *testing.T) {
	src := &stubSource{
		fundamentals: &Fundamentals{EPS: 5, TotalRevenue: 1000, TotalAssets: 500, TotalEquity: 200},
		details:      &TickerDetails{MarketCap: 8000},
	}
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{48, 50}

	require.NoError(t, sec.FetchFundamentalsAndCompute(context.Background(), src, testCal))
	assert.Equal(t, 0, src.barCalls)
	assert.Equal(t, 10.0, sec.PEValue)
}

func TestFetchFundamentalsAndCompute_ShapeErrorLeavesFieldsUnset(t *testing.T) {
	src := &stubSource{
		fundErr: &DataShapeError{Field: "results[0].financials.balance_sheet.equity.value", Endpoint: "/vX/reference/financials"},
	}
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{48, 50}

	err := sec.FetchFundamentalsAndCompute(context.Background(), src, testCal)
	var ds *DataShapeError
	require.ErrorAs(t, err, &ds)
	assert.Contains(t, ds.Field, "equity")
	assert.False(t, sec.HasFundamentals)
	assert.Zero(t, sec.PEValue)
	assert.Zero(t, sec.PSValue)
	assert.Zero(t, sec.EquityRatio)
}

func TestFetchFundamentalsAndCompute_ZeroEPSSetsNothing(t *testing.T) {
	src := &stubSource{
		fundamentals: &Fundamentals{EPS: 0, TotalRevenue: 1000, TotalAssets: 500, TotalEquity: 200},
		details:      &TickerDetails{MarketCap: 8000},
	}
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{50}

	err := sec.FetchFundamentalsAndCompute(context.Background(), src, testCal)
	assert.ErrorIs(t, err, calculator.ErrZeroDivisor)
	assert.False(t, sec.HasFundamentals)
}

func TestFetchFundamentalsAndCompute_EmptySeriesAfterFetch(t *testing.T) {
	src := &stubSource{
		fundamentals: &Fundamentals{EPS: 5, TotalRevenue: 1000, TotalAssets: 500, TotalEquity: 200},
		details:      &TickerDetails{MarketCap: 8000},
	}
	sec := NewSecurity("AAPL")

	err := sec.FetchFundamentalsAndCompute(context.Background(), src, testCal)
	assert.ErrorIs(t, err, ErrNoClosingPrices)
	assert.False(t, sec.HasFundamentals)
}

func TestResolveCompanyName(t *testing.T) {
	src := &stubSource{name: "Apple Inc."}

	sec := NewSecurity("AAPL")
	require.NoError(t, sec.ResolveCompanyName(context.Background(), src))
	assert.Equal(t, "Apple Inc.", sec.DisplayName())

	idx := NewIndex("SPY")
	require.NoError(t, idx.ResolveCompanyName(context.Background(), src))
	assert.False(t, idx.HasCompanyName)
	assert.Equal(t, "SPY", idx.DisplayName())
	assert.Equal(t, 1, src.nameCalls, "index must not hit the provider")
	assert.Zero(t, src.fundCalls, "name lookup does not need the financial figures")
}

func TestResolveCompanyName_Error(t *testing.T) {
	src := &stubSource{nameErr: &DataShapeError{Field: "results[0].company_name", Endpoint: "/vX/reference/financials"}}

	sec := NewSecurity("AAPL")
	err := sec.ResolveCompanyName(context.Background(), src)
	var ds *DataShapeError
	require.ErrorAs(t, err, &ds)
	assert.False(t, sec.HasCompanyName)
}

func TestClone_IsDeep(t *testing.T) {
	sec := NewSecurity("AAPL")
	sec.ClosingPrices = []float64{1, 2}
	c := sec.Clone()
	c.ClosingPrices[0] = 99
	c.BetaValue, c.HasBeta = 1.5, true

	assert.Equal(t, 1.0, sec.ClosingPrices[0])
	assert.False(t, sec.HasBeta)
}

func TestErrorKind(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), &TransportError{StatusCode: 500})
	assert.Equal(t, "transport", ErrorKind(wrapped))
	assert.Equal(t, "rate_limit", ErrorKind(&RateLimitError{}))
	assert.Equal(t, "data_shape", ErrorKind(&DataShapeError{}))
	assert.Equal(t, "validation", ErrorKind(&ValidationError{}))
	assert.Equal(t, "", ErrorKind(errors.New("plain")))
}

func TestRateLimitError_RemainingSeconds(t *testing.T) {
	err := &RateLimitError{Remaining: 12*time.Second + 500*time.Millisecond}
	assert.Equal(t, 12.5, err.RemainingSeconds())
	assert.Contains(t, err.Error(), "12.50")
}
