package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"StockAnalyser/internal/model"
)

const (
	DefaultBaseURL = "https://api.polygon.io"
	dateLayout     = "2006-01-02"
)

// PolygonClient implements Fetcher against the polygon.io REST API.
// Every request consults the RateGate first; a 429 trips it. Nothing is retried.
type PolygonClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	gate       *RateGate
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*PolygonClient)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *PolygonClient) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *PolygonClient) {
		c.logger = logger.With().Str("client", "polygon").Logger()
	}
}

// WithGate shares a RateGate with other components.
func WithGate(gate *RateGate) ClientOption {
	return func(c *PolygonClient) {
		c.gate = gate
	}
}

// WithRateLimit paces requests to at most perMinute per minute. Zero disables pacing.
func WithRateLimit(perMinute int) ClientOption {
	return func(c *PolygonClient) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

// WithTimeout sets the HTTP timeout. Zero leaves the http.Client default.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *PolygonClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithProxy routes requests through an HTTP proxy.
func WithProxy(proxyURL string) ClientOption {
	return func(c *PolygonClient) {
		if proxyURL == "" {
			return
		}
		if u, err := url.Parse(proxyURL); err == nil {
			c.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}
}

// NewPolygonClient creates a client authenticating with a static API key.
func NewPolygonClient(apiKey string, opts ...ClientOption) *PolygonClient {
	c := &PolygonClient{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gate == nil {
		c.gate = NewRateGate()
	}
	return c
}

func (c *PolygonClient) Name() string { return "polygon" }

// Gate returns the gate guarding this client.
func (c *PolygonClient) Gate() *RateGate { return c.gate }

// get performs one gated GET request and decodes a 200 body into result.
func (c *PolygonClient) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if ok, remaining := c.gate.CheckAvailable(); !ok {
		return &model.RateLimitError{Remaining: remaining}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("path", path).Msg("polygon request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &model.TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		c.gate.Trip()
		c.logger.Warn().Str("path", path).Dur("cooldown", c.gate.Cooldown()).Msg("polygon rate limit hit")
		return &model.RateLimitError{Remaining: c.gate.Cooldown()}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &model.TransportError{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			Err:        errors.New(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("polygon response not decodable")
		return &model.DataShapeError{Field: "(body)", Endpoint: path}
	}
	return nil
}

// aggsResponse is the shape of /v2/aggs. Pointers distinguish absent from zero.
type aggsResponse struct {
	ResultsCount *int      `json:"resultsCount"`
	Results      *[]aggBar `json:"results"`
}

type aggBar struct {
	Timestamp *int64   `json:"t"`
	Close     *float64 `json:"c"`
}

// DailyBars returns daily aggregates between from and to inclusive, oldest first.
// An empty window is not an error.
func (c *PolygonClient) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		url.PathEscape(symbol), from.Format(dateLayout), to.Format(dateLayout))
	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("sort", "asc")

	var resp aggsResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.Results == nil {
		if resp.ResultsCount != nil && *resp.ResultsCount == 0 {
			return []model.Bar{}, nil
		}
		return nil, &model.DataShapeError{Field: "results", Endpoint: path}
	}

	bars := make([]model.Bar, 0, len(*resp.Results))
	for i, b := range *resp.Results {
		if b.Close == nil {
			return nil, &model.DataShapeError{Field: fmt.Sprintf("results[%d].c", i), Endpoint: path}
		}
		bar := model.Bar{Close: *b.Close}
		if b.Timestamp != nil {
			bar.Time = time.UnixMilli(*b.Timestamp).UTC()
		}
		bars = append(bars, bar)
	}

	// Ensure chronological order
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

type financialValue struct {
	Value *float64 `json:"value"`
}

const financialsPath = "/vX/reference/financials"

// financialsResponse is the shape of /vX/reference/financials.
type financialsResponse struct {
	Results []filing `json:"results"`
}

type filing struct {
	CompanyName  *string `json:"company_name"`
	FiscalPeriod string  `json:"fiscal_period"`
	FiscalYear   string  `json:"fiscal_year"`
	Financials   *struct {
		IncomeStatement map[string]financialValue `json:"income_statement"`
		BalanceSheet    map[string]financialValue `json:"balance_sheet"`
	} `json:"financials"`
}

// latestFiling fetches the most recent quarterly filing and checks only that it names its company.
func (c *PolygonClient) latestFiling(ctx context.Context, symbol string) (*filing, error) {
	params := url.Values{}
	params.Set("ticker", symbol)
	params.Set("timeframe", "quarterly")
	params.Set("order", "desc")
	params.Set("sort", "filing_date")
	params.Set("limit", "1")

	var resp financialsResponse
	if err := c.get(ctx, financialsPath, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &model.DataShapeError{Field: "results[0]", Endpoint: financialsPath}
	}
	latest := &resp.Results[0]
	if latest.CompanyName == nil {
		return nil, &model.DataShapeError{Field: "results[0].company_name", Endpoint: financialsPath}
	}
	return latest, nil
}

// CompanyName returns the company name of the most recent filing. The financial figures of the
// filing are not required.
func (c *PolygonClient) CompanyName(ctx context.Context, symbol string) (string, error) {
	latest, err := c.latestFiling(ctx, symbol)
	if err != nil {
		return "", err
	}
	return *latest.CompanyName, nil
}

// Fundamentals returns figures from the most recent quarterly filing.
func (c *PolygonClient) Fundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error) {
	latest, err := c.latestFiling(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if latest.Financials == nil {
		return nil, &model.DataShapeError{Field: "results[0].financials", Endpoint: financialsPath}
	}

	lookup := func(section string, values map[string]financialValue, key string) (float64, error) {
		v, ok := values[key]
		if !ok || v.Value == nil {
			return 0, &model.DataShapeError{
				Field:    fmt.Sprintf("results[0].financials.%s.%s.value", section, key),
				Endpoint: financialsPath,
			}
		}
		return *v.Value, nil
	}

	f := &model.Fundamentals{
		CompanyName:  *latest.CompanyName,
		FiscalPeriod: latest.FiscalPeriod,
		FiscalYear:   latest.FiscalYear,
	}
	income, balance := latest.Financials.IncomeStatement, latest.Financials.BalanceSheet
	if f.EPS, err = lookup("income_statement", income, "basic_earnings_per_share"); err != nil {
		return nil, err
	}
	if f.TotalRevenue, err = lookup("income_statement", income, "revenues"); err != nil {
		return nil, err
	}
	if f.TotalAssets, err = lookup("balance_sheet", balance, "assets"); err != nil {
		return nil, err
	}
	if f.TotalEquity, err = lookup("balance_sheet", balance, "equity"); err != nil {
		return nil, err
	}
	return f, nil
}

// tickerResponse is the shape of /v3/reference/tickers/{ticker}.
type tickerResponse struct {
	Results *struct {
		Name      string   `json:"name"`
		MarketCap *float64 `json:"market_cap"`
	} `json:"results"`
}

// TickerDetails returns the market capitalization and name for a symbol.
func (c *PolygonClient) TickerDetails(ctx context.Context, symbol string) (*model.TickerDetails, error) {
	path := fmt.Sprintf("/v3/reference/tickers/%s", url.PathEscape(symbol))

	var resp tickerResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, &model.DataShapeError{Field: "results", Endpoint: path}
	}
	if resp.Results.MarketCap == nil {
		return nil, &model.DataShapeError{Field: "results.market_cap", Endpoint: path}
	}
	return &model.TickerDetails{
		Name:      resp.Results.Name,
		MarketCap: *resp.Results.MarketCap,
	}, nil
}
