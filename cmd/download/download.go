package download

import (
	"fmt"
	"net/url"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/surf-cli/surf/pkg/cache"
	"github.com/surf-cli/surf/pkg/cli"
	"github.com/surf-cli/surf/pkg/client"
	"github.com/surf-cli/surf/pkg/download"
	"github.com/surf-cli/surf/pkg/optname"
)

const longDesc = `
'download' fetches a URL into a file using up to --parallel concurrent ranged requests. Servers that do not
support ranges, or do not report a size, are downloaded with a single request.

Progress is recorded next to the destination in <dest>.surf-progress while the download runs. If the download
fails or is interrupted, run the same command with --continue-download to fetch only the missing bytes.
`

const downloadExamples = `
  surf download https://example.com/model.tar model.tar

  surf download -p 16 --idle-timeout 1m https://example.com/model.tar

  surf download -c https://example.com/model.tar model.tar
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "download [flags] <url> [dest]",
		Short:   "download a file with parallel, resumable ranged requests",
		Long:    longDesc,
		Args:    cobra.RangeArgs(1, 2),
		RunE:    runDownloadCMD,
		Example: downloadExamples,
	}
	cmd.Flags().IntP(optname.Parallel, "p", download.DefaultParallelism, "Maximum number of chunks and concurrent connections")
	cmd.Flags().BoolP(optname.ContinueDownload, "c", false, "Resume from the progress recorded by an earlier run")
	cmd.Flags().Duration(optname.IdleTimeout, download.DefaultIdleTimeout, "Fail a chunk that receives no data for this long, e.g. 30s")
	cmd.Flags().Duration(optname.ConnTimeout, download.DefaultConnectTimeout, "Timeout for establishing a connection, format is <number><unit>, e.g. 10s")
	cmd.Flags().IntP(optname.Retries, "r", download.DefaultMaxChunkRetries, "Number of retries of a failed chunk")
	cmd.Flags().StringArrayP(optname.Header, "H", nil, "Request header \"Key: Value\" (repeatable)")
	cmd.Flags().BoolP(optname.Force, "f", false, "Overwrite an existing destination instead of failing")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd
}

func runDownloadCMD(cmd *cobra.Command, args []string) error {
	// After we run through the PreRun functions we want to silence usage from being printed
	// on all errors
	cmd.SilenceUsage = true

	urlString := args[0]
	dest, err := destinationFor(urlString, args[1:])
	if err != nil {
		return err
	}

	reconciler, err := cli.NewReconciler()
	if err != nil {
		return err
	}
	cfg, err := cli.ResolveFlags(cmd, cache.KindDownload, reconciler)
	if err != nil {
		return err
	}

	resume := cfg.Bool(optname.ContinueDownload)
	if err := cli.EnsureDestinationNotExist(dest, viper.GetBool(optname.Force), resume); err != nil {
		return err
	}

	opts := download.Options{
		Parallelism:     cfg.Int(optname.Parallel),
		Resume:          resume,
		IdleTimeout:     cfg.Duration(optname.IdleTimeout),
		MaxChunkRetries: cfg.Int(optname.Retries),
		Client: client.Options{
			ConnectTimeout: cfg.Duration(optname.ConnTimeout),
			Headers:        cfg.Strings(optname.Header),
		},
		Progress: cmd.ErrOrStderr(),
	}
	logger := cli.RunLogger(cfg)
	downloader, err := download.New(opts, logger)
	if err != nil {
		return err
	}

	lock, err := cli.NewDestinationLock(dest)
	if err != nil {
		return err
	}
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release destination lock")
		}
	}()

	logger.Info().
		Str("url", urlString).
		Str("dest", dest).
		Int("parallel", opts.Parallelism).
		Bool("continue", resume).
		Msg("Initiating")

	summary, err := downloader.Download(cmd.Context(), urlString, dest)
	if err != nil {
		return err
	}
	logger.Info().
		Str("dest", summary.Dest).
		Str("size", humanize.Bytes(uint64(summary.TotalBytes))).
		Str("transferred", humanize.Bytes(uint64(summary.Transferred))).
		Dur("elapsed", summary.Elapsed).
		Bool("resumed", summary.Resumed).
		Msg("Complete")
	fmt.Fprintln(cmd.OutOrStdout(), summary)

	cli.Persist(reconciler, cfg)
	return nil
}

// destinationFor returns the explicit destination, or the last path element
// of the URL.
func destinationFor(rawURL string, rest []string) (string, error) {
	if len(rest) > 0 {
		return rest[0], nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "index.html", nil
	}
	return name, nil
}
