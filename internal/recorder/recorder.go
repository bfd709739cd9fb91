package recorder

import "StockAnalyser/internal/model"

// Analysis names the kind of run being recorded.
type Analysis string

const (
	AnalysisTechnical   Analysis = "TECHNICAL"
	AnalysisFundamental Analysis = "FUNDAMENTAL"
)

// FailureEvent records an analysis that stopped at a classified error.
type FailureEvent struct {
	Symbol    string
	Analysis  Analysis
	ErrorKind string // "rate_limit", "transport", "data_shape", "validation" or ""
	Message   string
}

// Recorder keeps an append-only history of analyses. It is never read back into the registry.
type Recorder interface {
	RecordTechnical(sec *model.Security, indexSymbol string, indexReturn float64) error
	RecordFundamental(sec *model.Security) error
	RecordFailure(evt *FailureEvent) error
	Close() error
}
