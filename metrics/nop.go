package metrics

// NopMetrics discards everything. Used in tests and CLI commands.
type NopMetrics struct{}

var _ Collector = (*NopMetrics)(nil)

func NewNop() *NopMetrics {
	return &NopMetrics{}
}

func (n *NopMetrics) RecordMatchRun(_ string, _ int) {}

func (n *NopMetrics) ObserveShuffleTrials(_ int) {}

func (n *NopMetrics) ObserveHTTPRequest(_, _ string, _ int, _ float64) {}
