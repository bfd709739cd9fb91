// Package membership holds the set of tickers eligible for analysis.
package membership

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode"

	"StockAnalyser/internal/model"
)

// Set is an immutable collection of valid ticker symbols.
type Set struct {
	symbols map[string]struct{}
}

// FromSymbols builds a Set from literal symbols. Symbols are upper-cased.
func FromSymbols(symbols ...string) *Set {
	s := &Set{symbols: make(map[string]struct{}, len(symbols))}
	for _, sym := range symbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			s.symbols[sym] = struct{}{}
		}
	}
	return s
}

// Load reads a constituents list from an http(s) URL or a local file path.
func Load(ctx context.Context, client *http.Client, source string) (*Set, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return LoadURL(ctx, client, source)
	}
	return LoadFile(source)
}

// LoadFile reads a constituents CSV from disk.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open membership file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// LoadURL downloads a constituents CSV.
func LoadURL(ctx context.Context, client *http.Client, url string) (*Set, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch membership list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch membership list: status %d", resp.StatusCode)
	}
	return Parse(resp.Body)
}

// Parse reads CSV rows and takes symbols from the "Symbol" (or "Ticker") column.
// Without such a header the first column is used and the first row is kept as data.
func Parse(r io.Reader) (*Set, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse membership csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("membership list is empty")
	}

	col, start := 0, 0
	for i, name := range rows[0] {
		if n := strings.ToLower(strings.TrimSpace(name)); n == "symbol" || n == "ticker" {
			col, start = i, 1
			break
		}
	}

	symbols := make([]string, 0, len(rows))
	for _, row := range rows[start:] {
		if col < len(row) {
			symbols = append(symbols, row[col])
		}
	}
	set := FromSymbols(symbols...)
	if set.Len() == 0 {
		return nil, errors.New("membership list has no symbols")
	}
	return set, nil
}

// Len returns the number of symbols.
func (s *Set) Len() int { return len(s.symbols) }

// Contains reports whether symbol is a member.
func (s *Set) Contains(symbol string) bool {
	_, ok := s.symbols[symbol]
	return ok
}

// Validate rejects malformed symbols and symbols outside the set.
func (s *Set) Validate(symbol string) error {
	if err := ValidateFormat(symbol); err != nil {
		return err
	}
	if !s.Contains(symbol) {
		return &model.ValidationError{Symbol: symbol, Reason: "this ticker is not in the S&P 500"}
	}
	return nil
}

// ValidateFormat accepts non-empty strings of uppercase letters only.
func ValidateFormat(symbol string) error {
	if symbol == "" {
		return &model.ValidationError{Symbol: symbol, Reason: "a stock ticker cannot be empty"}
	}
	for _, r := range symbol {
		if !unicode.IsUpper(r) || r > unicode.MaxASCII {
			return &model.ValidationError{Symbol: symbol, Reason: "a stock ticker consists only of capital letters"}
		}
	}
	return nil
}
