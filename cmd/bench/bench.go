package bench

import (
	"github.com/spf13/cobra"

	"github.com/surf-cli/surf/pkg/bench"
	"github.com/surf-cli/surf/pkg/cache"
	"github.com/surf-cli/surf/pkg/cli"
	"github.com/surf-cli/surf/pkg/client"
	"github.com/surf-cli/surf/pkg/optname"
)

const longDesc = `
'bench' sends --requests requests to a URL from exactly --concurrency workers and reports latency percentiles,
status code distribution and throughput. Failed requests are counted, never retried.
`

const benchExamples = `
  surf bench https://example.com/health

  surf bench -n 1000 -c 50 --rate 200 https://example.com/health

  surf bench -X POST -H "Authorization: Bearer $TOKEN" https://example.com/api
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bench [flags] <url>",
		Short:   "benchmark a URL with concurrent requests",
		Long:    longDesc,
		Args:    cobra.ExactArgs(1),
		RunE:    runBenchCMD,
		Example: benchExamples,
	}
	cmd.Flags().IntP(optname.Requests, "n", bench.DefaultRequests, "Total number of requests")
	cmd.Flags().IntP(optname.Concurrency, "c", bench.DefaultConcurrency, "Number of concurrent workers")
	cmd.Flags().Duration(optname.ConnTimeout, bench.DefaultConnectTimeout, "Timeout for establishing a connection, format is <number><unit>, e.g. 5s")
	cmd.Flags().Int(optname.Rate, 0, "Maximum requests per second across all workers (0 is unlimited)")
	cmd.Flags().StringP(optname.Method, "X", bench.DefaultMethod, "HTTP method")
	cmd.Flags().StringArrayP(optname.Header, "H", nil, "Request header \"Key: Value\" (repeatable)")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd
}

func runBenchCMD(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	urlString := args[0]

	reconciler, err := cli.NewReconciler()
	if err != nil {
		return err
	}
	cfg, err := cli.ResolveFlags(cmd, cache.KindBench, reconciler)
	if err != nil {
		return err
	}

	opts := bench.Options{
		Requests:    cfg.Int(optname.Requests),
		Concurrency: cfg.Int(optname.Concurrency),
		Method:      cfg.String(optname.Method),
		Rate:        cfg.Int(optname.Rate),
		Client: client.Options{
			ConnectTimeout: cfg.Duration(optname.ConnTimeout),
			Headers:        cfg.Strings(optname.Header),
		},
	}
	logger := cli.RunLogger(cfg)
	runner, err := bench.NewRunner(opts, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("url", urlString).
		Int("requests", opts.Requests).
		Int("concurrency", opts.Concurrency).
		Msg("Initiating")

	result, err := runner.Run(cmd.Context(), urlString)
	if err != nil {
		return err
	}
	stats := bench.Aggregate(result.Outcomes, result.TotalTime)
	bench.WriteReport(cmd.OutOrStdout(), urlString, stats)

	cli.Persist(reconciler, cfg)
	return nil
}
