// Package metrics records matching runs and HTTP traffic.
package metrics

// Исходы жеребьёвки для метки result.
const (
	ResultSuccess        = "success"
	ResultAlreadyMatched = "already_matched"
	ResultInsufficient   = "insufficient_participants"
	ResultInvalidInput   = "invalid_input"
	ResultError          = "error"
)

// Collector is implemented by PrometheusCollector and NopMetrics.
type Collector interface {
	// RecordMatchRun counts one matching request by outcome.
	RecordMatchRun(result string, participants int)
	// ObserveShuffleTrials records how many shuffles a successful run needed.
	ObserveShuffleTrials(trials int)
	ObserveHTTPRequest(method, route string, status int, seconds float64)
}
