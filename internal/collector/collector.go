package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"StockAnalyser/internal/membership"
	"StockAnalyser/internal/model"
	"StockAnalyser/internal/recorder"
	"StockAnalyser/internal/registry"
)

// DefaultIndexSymbol is the benchmark used for beta.
const DefaultIndexSymbol = "SPY"

// Validator accepts or rejects a ticker before any request is made.
type Validator interface {
	Validate(symbol string) error
}

type formatOnly struct{}

func (formatOnly) Validate(symbol string) error { return membership.ValidateFormat(symbol) }

// Options wires a Collector. Only Source and Calendar are required.
type Options struct {
	Source      Fetcher
	Gate        *RateGate
	Calendar    model.Calendar
	Members     Validator
	Registry    *registry.Registry
	Recorder    recorder.Recorder
	IndexSymbol string
	Logger      zerolog.Logger
}

// TechnicalResult is the outcome of one technical analysis.
type TechnicalResult struct {
	Security    *model.Security
	IndexSymbol string
	IndexReturn float64
	IndexCloses int
}

// Collector runs analyses end to end, one at a time.
type Collector struct {
	mu          sync.Mutex
	source      Fetcher
	gate        *RateGate
	calendar    model.Calendar
	members     Validator
	registry    *registry.Registry
	recorder    recorder.Recorder
	indexSymbol string
	logger      zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(opts Options) *Collector {
	c := &Collector{
		source:      opts.Source,
		gate:        opts.Gate,
		calendar:    opts.Calendar,
		members:     opts.Members,
		registry:    opts.Registry,
		recorder:    opts.Recorder,
		indexSymbol: opts.IndexSymbol,
		logger:      opts.Logger.With().Str("component", "collector").Logger(),
	}
	if c.gate == nil {
		c.gate = NewRateGate()
	}
	if c.members == nil {
		c.members = formatOnly{}
	}
	if c.registry == nil {
		c.registry = registry.New()
	}
	if c.recorder == nil {
		c.recorder = recorder.NewNoopRecorder()
	}
	if c.indexSymbol == "" {
		c.indexSymbol = DefaultIndexSymbol
	}
	return c
}

// Registry returns the registry analyses are stored in.
func (c *Collector) Registry() *registry.Registry { return c.registry }

// IndexSymbol returns the benchmark ticker.
func (c *Collector) IndexSymbol() string { return c.indexSymbol }

// RunTechnical fetches a month of closes for symbol and the index, then stores the return,
// extremes, volatility and beta. The registry is only touched when every step succeeds.
func (c *Collector) RunTechnical(ctx context.Context, symbol string) (*TechnicalResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.runTechnical(ctx, symbol)
	if err != nil {
		c.recordFailure(symbol, recorder.AnalysisTechnical, err)
		return nil, err
	}

	if err := c.recorder.RecordTechnical(res.Security, res.IndexSymbol, res.IndexReturn); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to record technical analysis")
	}
	c.logger.Info().
		Str("symbol", symbol).
		Float64("return", res.Security.StockReturn).
		Float64("beta", res.Security.BetaValue).
		Msg("technical analysis complete")
	return res, nil
}

func (c *Collector) runTechnical(ctx context.Context, symbol string) (*TechnicalResult, error) {
	if err := c.precheck(symbol); err != nil {
		return nil, err
	}

	index := model.NewIndex(c.indexSymbol)
	if err := index.FetchPriceSeries(ctx, c.source, c.calendar); err != nil {
		return nil, err
	}
	if err := index.ComputeReturnAndExtremes(); err != nil {
		return nil, err
	}

	sec, err := c.lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := sec.FetchPriceSeries(ctx, c.source, c.calendar); err != nil {
		return nil, err
	}
	if err := sec.ComputeReturnAndExtremes(); err != nil {
		return nil, err
	}
	if err := sec.ComputeBeta(index.StockReturn); err != nil {
		return nil, err
	}

	c.registry.Upsert(symbol, sec)
	return &TechnicalResult{
		Security:    sec,
		IndexSymbol: index.Symbol,
		IndexReturn: index.StockReturn,
		IndexCloses: len(index.ClosingPrices),
	}, nil
}

// RunFundamental fetches the latest quarterly filing and market cap for symbol and stores
// P/E, P/S and the equity ratio.
func (c *Collector) RunFundamental(ctx context.Context, symbol string) (*model.Security, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sec, err := c.runFundamental(ctx, symbol)
	if err != nil {
		c.recordFailure(symbol, recorder.AnalysisFundamental, err)
		return nil, err
	}

	if err := c.recorder.RecordFundamental(sec); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to record fundamental analysis")
	}
	c.logger.Info().
		Str("symbol", symbol).
		Float64("pe", sec.PEValue).
		Float64("ps", sec.PSValue).
		Float64("equity_ratio", sec.EquityRatio).
		Msg("fundamental analysis complete")
	return sec, nil
}

func (c *Collector) runFundamental(ctx context.Context, symbol string) (*model.Security, error) {
	if err := c.precheck(symbol); err != nil {
		return nil, err
	}

	sec, ok := c.registry.Get(symbol)
	if !ok {
		sec = model.NewSecurity(symbol)
	}
	if err := sec.FetchFundamentalsAndCompute(ctx, c.source, c.calendar); err != nil {
		return nil, err
	}

	c.registry.Upsert(symbol, sec)
	return sec, nil
}

// Rank returns analysed securities by beta, highest first.
func (c *Collector) Rank() ([]*model.Security, error) {
	return c.registry.RankByBeta()
}

// Analysed returns the symbols analysed so far, in first-analysed order.
func (c *Collector) Analysed() []string {
	return c.registry.Symbols()
}

func (c *Collector) precheck(symbol string) error {
	if err := c.members.Validate(symbol); err != nil {
		return err
	}
	if ok, remaining := c.gate.CheckAvailable(); !ok {
		return &model.RateLimitError{Remaining: remaining}
	}
	return nil
}

// lookup returns a working copy of the registered security, or a new one with its company
// name resolved.
func (c *Collector) lookup(ctx context.Context, symbol string) (*model.Security, error) {
	if sec, ok := c.registry.Get(symbol); ok {
		return sec, nil
	}
	sec := model.NewSecurity(symbol)
	if err := sec.ResolveCompanyName(ctx, c.source); err != nil {
		return nil, err
	}
	return sec, nil
}

func (c *Collector) recordFailure(symbol string, analysis recorder.Analysis, err error) {
	evt := c.logger.Warn()
	var rl *model.RateLimitError
	if errors.As(err, &rl) {
		evt = evt.Float64("wait_seconds", rl.RemainingSeconds())
	}
	evt.Err(err).Str("symbol", symbol).Str("analysis", string(analysis)).Msg("analysis failed")

	rerr := c.recorder.RecordFailure(&recorder.FailureEvent{
		Symbol:    symbol,
		Analysis:  analysis,
		ErrorKind: model.ErrorKind(err),
		Message:   err.Error(),
	})
	if rerr != nil {
		c.logger.Warn().Err(rerr).Msg("failed to record analysis failure")
	}
}

// String describes the collector for startup logs.
func (c *Collector) String() string {
	return fmt.Sprintf("collector(source=%s, index=%s)", c.source.Name(), c.indexSymbol)
}
