package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"StockAnalyser/internal/model"
)

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS technical_snapshots (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			company_name     TEXT,
			closes           INTEGER,
			latest_close     REAL,
			stock_return     REAL,
			highest_price    REAL,
			lowest_price     REAL,
			daily_volatility REAL,
			beta             REAL,
			index_symbol     TEXT,
			index_return     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_technical_symbol_ts ON technical_snapshots(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS fundamental_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			company_name TEXT,
			latest_close REAL,
			pe_value     REAL,
			ps_value     REAL,
			equity_ratio REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fundamental_symbol_ts ON fundamental_snapshots(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS analysis_failures (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT,
			analysis   TEXT,
			error_kind TEXT,
			message    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON analysis_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTechnical(sec *model.Security, indexSymbol string, indexReturn float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	latest, lerr := sec.LatestClose()
	_, err := r.db.Exec(`INSERT INTO technical_snapshots
		(timestamp, symbol, company_name, closes, latest_close, stock_return,
		 highest_price, lowest_price, daily_volatility, beta, index_symbol, index_return)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		analysedAt(sec), sec.Symbol, nullString(sec.CompanyName, sec.HasCompanyName),
		len(sec.ClosingPrices), nullFloat(latest, lerr == nil),
		nullFloat(sec.StockReturn, sec.HasStockReturn),
		nullFloat(sec.HighestPrice, sec.HasExtremes),
		nullFloat(sec.LowestPrice, sec.HasExtremes),
		nullFloat(sec.DailyVolatility, sec.HasVolatility),
		nullFloat(sec.BetaValue, sec.HasBeta),
		indexSymbol, indexReturn,
	)
	return err
}

func (r *SQLiteRecorder) RecordFundamental(sec *model.Security) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	latest, lerr := sec.LatestClose()
	_, err := r.db.Exec(`INSERT INTO fundamental_snapshots
		(timestamp, symbol, company_name, latest_close, pe_value, ps_value, equity_ratio)
		VALUES (?,?,?,?,?,?,?)`,
		analysedAt(sec), sec.Symbol, nullString(sec.CompanyName, sec.HasCompanyName), nullFloat(latest, lerr == nil),
		nullFloat(sec.PEValue, sec.HasFundamentals),
		nullFloat(sec.PSValue, sec.HasFundamentals),
		nullFloat(sec.EquityRatio, sec.HasFundamentals),
	)
	return err
}

func (r *SQLiteRecorder) RecordFailure(evt *FailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO analysis_failures
		(timestamp, symbol, analysis, error_kind, message)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, string(evt.Analysis), evt.ErrorKind, evt.Message,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

// analysedAt is the time the security was last computed, or now when it never was.
func analysedAt(sec *model.Security) int64 {
	if sec.UpdatedAt.IsZero() {
		return time.Now().Unix()
	}
	return sec.UpdatedAt.Unix()
}

func nullFloat(v float64, valid bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}

func nullString(v string, valid bool) sql.NullString {
	return sql.NullString{String: v, Valid: valid}
}
