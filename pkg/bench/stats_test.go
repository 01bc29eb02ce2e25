package bench

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surf-cli/surf/pkg/client"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestAggregateFixedLatency(t *testing.T) {
	const latency = 20 * time.Millisecond
	outcomes := make([]Outcome, 100)
	for i := range outcomes {
		outcomes[i] = Outcome{StatusCode: 200, Latency: latency, Bytes: 10}
	}

	stats := Aggregate(outcomes, 200*time.Millisecond)
	require.NotNil(t, stats.Latency)
	assert.Equal(t, latency, stats.Latency.P50)
	assert.Equal(t, latency, stats.Latency.P95)
	assert.Equal(t, latency, stats.Latency.P99)
	assert.Equal(t, latency, stats.Latency.Min)
	assert.Equal(t, latency, stats.Latency.Max)
	assert.Equal(t, latency, stats.Latency.Mean)
	assert.InDelta(t, 500.0, stats.RequestsPerSecond, 0.001)
	assert.Equal(t, int64(1000), stats.BytesRead)
	assert.Equal(t, []StatusCount{{Code: 200, Count: 100, Percent: 100}}, stats.StatusCodes)
	assert.Empty(t, stats.ErrorKinds)
}

func TestAggregateNoSuccesses(t *testing.T) {
	outcomes := []Outcome{
		{Err: errors.New("dial"), ErrorKind: client.ErrorKindConnect},
		{Err: errors.New("slow"), ErrorKind: client.ErrorKindTimeout},
		{Err: errors.New("slow"), ErrorKind: client.ErrorKindTimeout},
	}
	stats := Aggregate(outcomes, time.Second)

	assert.Nil(t, stats.Latency)
	assert.Empty(t, stats.StatusCodes)
	assert.Equal(t, 0, stats.Successes)
	assert.Equal(t, 3, stats.Failures)
	assert.InDelta(t, 3.0, stats.RequestsPerSecond, 0.001)
	assert.Equal(t, map[client.ErrorKind]int{
		client.ErrorKindConnect: 1,
		client.ErrorKindTimeout: 2,
	}, stats.ErrorKinds)
}

func TestAggregateMixed(t *testing.T) {
	outcomes := []Outcome{
		{StatusCode: 200, Latency: ms(30)},
		{StatusCode: 503, Latency: ms(10)},
		{StatusCode: 200, Latency: ms(20)},
		{StatusCode: 200, Latency: ms(40)},
		{Err: errors.New("boom"), ErrorKind: client.ErrorKindOther, Latency: ms(1)},
	}
	stats := Aggregate(outcomes, 0)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Successes)
	assert.Zero(t, stats.RequestsPerSecond)
	require.NotNil(t, stats.Latency)
	assert.Equal(t, ms(10), stats.Latency.Min)
	assert.Equal(t, ms(40), stats.Latency.Max)
	assert.Equal(t, ms(25), stats.Latency.Mean)
	assert.Equal(t, ms(20), stats.Latency.P50)
	assert.Equal(t, ms(40), stats.Latency.P95)
	assert.Equal(t, []StatusCount{
		{Code: 200, Count: 3, Percent: 75},
		{Code: 503, Count: 1, Percent: 25},
	}, stats.StatusCodes)
}

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = ms(i + 1)
	}
	tests := []struct {
		pct  int
		want time.Duration
	}{
		{0, ms(1)},
		{1, ms(1)},
		{50, ms(50)},
		{95, ms(95)},
		{99, ms(99)},
		{100, ms(100)},
		{150, ms(100)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentile(sorted, tt.pct), "p%d", tt.pct)
	}

	assert.Equal(t, ms(7), Percentile([]time.Duration{ms(7)}, 99))
	// ceil(0.5 * 3) - 1 = 1
	assert.Equal(t, ms(2), Percentile([]time.Duration{ms(1), ms(2), ms(3)}, 50))
}
