package bench

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/surf-cli/surf/pkg/client"
)

// WriteReport prints stats for a run against url.
func WriteReport(w io.Writer, url string, s Stats) {
	fmt.Fprintf(w, "Benchmark: %s\n", url)
	fmt.Fprintf(w, "  Requests:      %d (%d succeeded, %d failed)\n", s.Total, s.Successes, s.Failures)
	fmt.Fprintf(w, "  Total time:    %s\n", round(s.TotalTime))
	fmt.Fprintf(w, "  Requests/sec:  %.2f\n", s.RequestsPerSecond)
	fmt.Fprintf(w, "  Bytes read:    %s\n", humanize.Bytes(uint64(s.BytesRead)))

	if s.Latency == nil {
		fmt.Fprintln(w, "  Latency:       unavailable (no successful requests)")
	} else {
		l := s.Latency
		fmt.Fprintln(w, "  Latency:")
		fmt.Fprintf(w, "    min %s  mean %s  max %s\n", round(l.Min), round(l.Mean), round(l.Max))
		fmt.Fprintf(w, "    p50 %s  p95 %s  p99 %s\n", round(l.P50), round(l.P95), round(l.P99))
	}

	if len(s.StatusCodes) > 0 {
		fmt.Fprintln(w, "  Status codes:")
		for _, sc := range s.StatusCodes {
			fmt.Fprintf(w, "    %d: %d (%.1f%%)\n", sc.Code, sc.Count, sc.Percent)
		}
	}

	if len(s.ErrorKinds) > 0 {
		kinds := make([]string, 0, len(s.ErrorKinds))
		for k := range s.ErrorKinds {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		fmt.Fprintln(w, "  Errors:")
		for _, k := range kinds {
			fmt.Fprintf(w, "    %s: %d\n", k, s.ErrorKinds[client.ErrorKind(k)])
		}
	}
}

func round(d time.Duration) time.Duration {
	if d < time.Millisecond {
		return d.Round(time.Microsecond)
	}
	return d.Round(10 * time.Microsecond)
}
