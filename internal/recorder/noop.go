package recorder

import "StockAnalyser/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTechnical(_ *model.Security, _ string, _ float64) error { return nil }
func (n *NoopRecorder) RecordFundamental(_ *model.Security) error                   { return nil }
func (n *NoopRecorder) RecordFailure(_ *FailureEvent) error                          { return nil }
func (n *NoopRecorder) Close() error                                                 { return nil }
