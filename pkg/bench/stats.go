package bench

import (
	"sort"
	"time"

	"github.com/surf-cli/surf/pkg/client"
)

// LatencyStats is computed over successful outcomes only.
type LatencyStats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
}

type StatusCount struct {
	Code    int
	Count   int
	Percent float64 // of successful outcomes
}

type Stats struct {
	Total     int
	Successes int
	Failures  int
	TotalTime time.Duration
	// RequestsPerSecond counts every request, failed or not.
	RequestsPerSecond float64
	BytesRead         int64

	// Latency is nil when no request succeeded.
	Latency     *LatencyStats
	StatusCodes []StatusCount // ascending by code
	ErrorKinds  map[client.ErrorKind]int
}

// Aggregate derives run statistics from outcomes.
func Aggregate(outcomes []Outcome, totalTime time.Duration) Stats {
	stats := Stats{
		Total:      len(outcomes),
		TotalTime:  totalTime,
		ErrorKinds: map[client.ErrorKind]int{},
	}
	if totalTime > 0 {
		stats.RequestsPerSecond = float64(len(outcomes)) / totalTime.Seconds()
	}

	latencies := make([]time.Duration, 0, len(outcomes))
	codes := map[int]int{}
	for _, o := range outcomes {
		stats.BytesRead += o.Bytes
		if !o.Success() {
			stats.Failures++
			stats.ErrorKinds[o.ErrorKind]++
			continue
		}
		stats.Successes++
		latencies = append(latencies, o.Latency)
		codes[o.StatusCode]++
	}

	for code, count := range codes {
		stats.StatusCodes = append(stats.StatusCodes, StatusCount{
			Code:    code,
			Count:   count,
			Percent: float64(count) / float64(stats.Successes) * 100,
		})
	}
	sort.Slice(stats.StatusCodes, func(i, j int) bool {
		return stats.StatusCodes[i].Code < stats.StatusCodes[j].Code
	})

	if len(latencies) == 0 {
		return stats
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	stats.Latency = &LatencyStats{
		Min:  latencies[0],
		Max:  latencies[len(latencies)-1],
		Mean: sum / time.Duration(len(latencies)),
		P50:  Percentile(latencies, 50),
		P95:  Percentile(latencies, 95),
		P99:  Percentile(latencies, 99),
	}
	return stats
}

// Percentile returns the element at index ceil(pct% * len) - 1 of sorted,
// clamped to the slice bounds. sorted must be ascending and non-empty.
func Percentile(sorted []time.Duration, pct int) time.Duration {
	n := len(sorted)
	idx := (pct*n+99)/100 - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}
