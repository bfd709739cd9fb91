package membership

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyser/internal/model"
)

const constituents = `Symbol,Security,GICS Sector
AAPL,Apple Inc.,Information Technology
MSFT,Microsoft,Information Technology
BRK.B,Berkshire Hathaway,Financials
`

func TestParse_HeaderColumn(t *testing.T) {
	set, err := Parse(strings.NewReader(constituents))
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains("AAPL"))
	assert.True(t, set.Contains("BRK.B"))
	assert.False(t, set.Contains("Symbol"))
}

func TestParse_TickerColumnNotFirst(t *testing.T) {
	set, err := Parse(strings.NewReader("Name,Ticker\nApple,aapl\n"))
	require.NoError(t, err)
	assert.True(t, set.Contains("AAPL"))
}

func TestParse_NoHeader(t *testing.T) {
	set, err := Parse(strings.NewReader("AAPL\nMSFT\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.Error(t, err)
	_, err = Parse(strings.NewReader("Symbol\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	set := FromSymbols("AAPL", "MSFT")

	tests := []struct {
		symbol string
		valid  bool
		reason string
	}{
		{"AAPL", true, ""},
		{"", false, "empty"},
		{"AAPL1", false, "capital letters"},
		{"aapl", false, "capital letters"},
		{"BRK.B", false, "capital letters"},
		{"TSLA", false, "S&P 500"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			err := set.Validate(tt.symbol)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.symbol, ve.Symbol)
			assert.Contains(t, ve.Reason, tt.reason)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sp500.csv")
	require.NoError(t, os.WriteFile(path, []byte(constituents), 0o644))

	set, err := Load(context.Background(), nil, path)
	require.NoError(t, err)
	assert.True(t, set.Contains("MSFT"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/constituents.csv" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(constituents))
	}))
	defer srv.Close()

	set, err := Load(context.Background(), srv.Client(), srv.URL+"/constituents.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())

	_, err = LoadURL(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")
}
