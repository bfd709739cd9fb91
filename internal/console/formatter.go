package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"StockAnalyser/internal/calculator"
	"StockAnalyser/internal/collector"
	"StockAnalyser/internal/model"
	"StockAnalyser/internal/registry"
)

// percentChange renders a latest/oldest ratio as a percentage change rounded to two places.
func percentChange(ratio float64) string {
	return decimal.NewFromFloat(ratio).Mul(decimal.NewFromInt(100)).Sub(decimal.NewFromInt(100)).Round(2).String()
}

func round(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

func price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatTechnical renders the result of a technical analysis.
func FormatTechnical(res *collector.TechnicalResult) string {
	sec := res.Security
	var b strings.Builder

	fmt.Fprintf(&b, "Technical analysis for %s\n", sec.DisplayName())
	fmt.Fprintf(&b, "The beta value is %s\n", round(sec.BetaValue, 3))
	fmt.Fprintf(&b, "The stock return is %s%%\n", percentChange(sec.StockReturn))
	fmt.Fprintf(&b, "The lowest price is %s\n", price(sec.LowestPrice))
	fmt.Fprintf(&b, "The highest price is %s\n", price(sec.HighestPrice))
	if sec.HasVolatility {
		fmt.Fprintf(&b, "The daily volatility is %s%%\n", round(sec.DailyVolatility*100, 2))
	}
	fmt.Fprintf(&b, "Benchmark %s returned %s%% over %d trading days\n",
		res.IndexSymbol, percentChange(res.IndexReturn), res.IndexCloses)
	return b.String()
}

// FormatFundamental renders the valuation ratios of a security.
func FormatFundamental(sec *model.Security) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fundamental analysis for %s\n", sec.DisplayName())
	fmt.Fprintf(&b, "The equity ratio is %s\n", round(sec.EquityRatio, 2))
	fmt.Fprintf(&b, "The p/e value is %s\n", round(sec.PEValue, 2))
	fmt.Fprintf(&b, "The p/s value is %s\n", round(sec.PSValue, 2))
	return b.String()
}

// FormatRanking renders securities in the order given, numbered from 1.
func FormatRanking(ranked []*model.Security) string {
	var b strings.Builder
	for i, sec := range ranked {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, sec.DisplayName(), round(sec.BetaValue, 3))
	}
	return b.String()
}

// FormatList renders analysed symbols on one line.
func FormatList(symbols []string) string {
	if len(symbols) == 0 {
		return "No stocks analysed yet"
	}
	return fmt.Sprintf("Analysed (%d): %s", len(symbols), strings.Join(symbols, ", "))
}

// FormatError turns an analysis error into a message for the user.
func FormatError(err error) string {
	var (
		rl *model.RateLimitError
		tr *model.TransportError
		ds *model.DataShapeError
		va *model.ValidationError
	)
	switch {
	case errors.As(err, &rl):
		return fmt.Sprintf("You load data too often; wait %s seconds", round(rl.RemainingSeconds(), 2))
	case errors.As(err, &tr):
		if tr.StatusCode == 0 {
			return fmt.Sprintf("There was an error when gathering the data; %v", tr.Err)
		}
		return fmt.Sprintf("Failed to retrieve data. Status code: %d", tr.StatusCode)
	case errors.As(err, &ds):
		return fmt.Sprintf("There was an error when gathering the data; %s did not include %s", ds.Endpoint, ds.Field)
	case errors.As(err, &va):
		return capitalize(va.Reason)
	case errors.Is(err, registry.ErrNoEligible):
		return "No stocks have a beta value yet; run a technical analysis first"
	case errors.Is(err, calculator.ErrInsufficientData):
		return "Not enough closing prices to analyse this stock"
	case errors.Is(err, calculator.ErrZeroDivisor), errors.Is(err, model.ErrZeroReferenceReturn):
		return fmt.Sprintf("The data cannot be analysed; %v", err)
	}
	return fmt.Sprintf("Error: %v", err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
