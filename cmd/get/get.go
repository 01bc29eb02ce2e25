package get

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/surf-cli/surf/pkg/cache"
	"github.com/surf-cli/surf/pkg/cli"
	"github.com/surf-cli/surf/pkg/client"
	"github.com/surf-cli/surf/pkg/config"
	"github.com/surf-cli/surf/pkg/optname"
	"github.com/surf-cli/surf/pkg/validate"
)

const getExamples = `
  surf get https://example.com

  surf get -i -L https://example.com/redirect

  surf get -H "Accept: application/json" -o out.json https://example.com/api
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get [flags] <url>",
		Short:   "send a single GET request and print the response",
		Args:    cobra.ExactArgs(1),
		RunE:    runGetCMD,
		Example: getExamples,
	}
	cmd.Flags().BoolP(optname.Include, "i", false, "Print the status line and response headers")
	cmd.Flags().BoolP(optname.Location, "L", false, "Follow redirects")
	cmd.Flags().DurationP(optname.ConnTimeout, "t", config.GetConnectTimeout, "Timeout for establishing a connection, format is <number><unit>, e.g. 10s")
	cmd.Flags().StringArrayP(optname.Header, "H", nil, "Request header \"Key: Value\" (repeatable)")
	cmd.Flags().StringP(optname.Output, "o", "", "Write the body to a file instead of stdout")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd
}

func runGetCMD(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	reconciler, err := cli.NewReconciler()
	if err != nil {
		return err
	}
	cfg, err := cli.ResolveFlags(cmd, cache.KindGet, reconciler)
	if err != nil {
		return err
	}
	opts := client.Options{
		ConnectTimeout:  cfg.Duration(optname.ConnTimeout),
		FollowRedirects: cfg.Bool(optname.Location),
		Headers:         cfg.Strings(optname.Header),
	}
	logger := cli.RunLogger(cfg)
	logger.Debug().Str("url", args[0]).Msg("Initiating")

	out := cmd.OutOrStdout()
	body := out
	if output := viper.GetString(optname.Output); output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		body = f
	}
	if err := fetch(cmd.Context(), args[0], opts, cfg.Bool(optname.Include), out, body); err != nil {
		return err
	}
	cli.Persist(reconciler, cfg)
	return nil
}

// fetch sends one GET to url. The status line and headers go to out when
// include is set; the body goes to body.
func fetch(ctx context.Context, url string, opts client.Options, include bool, out, body io.Writer) error {
	c, err := client.NewClient(opts)
	if err != nil {
		return fmt.Errorf("%w: %w", validate.ErrInvalidParameter, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: url: %w", validate.ErrInvalidParameter, err)
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if include {
		fmt.Fprintf(out, "%s %s\n", resp.Proto, resp.Status)
		keys := make([]string, 0, len(resp.Header))
		for k := range resp.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, v := range resp.Header[k] {
				fmt.Fprintf(out, "%s: %s\n", k, v)
			}
		}
		fmt.Fprintln(out)
	}
	if _, err := io.Copy(body, resp.Body); err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	return nil
}
