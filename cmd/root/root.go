package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/surf-cli/surf/pkg/cli"
	"github.com/surf-cli/surf/pkg/config"
)

const rootLongDesc = `
surf

surf is an HTTP command-line client. It fetches single requests, downloads large files with parallel
ranged requests that can be resumed after an interruption, and benchmarks endpoints with a fixed pool of
concurrent workers.

Every command remembers the configuration of its last successful run. Pass -x/--use-cache to reuse it:
options given on the command line are checked against the cached ones and any disagreement is reported
before a single request is made. Header lists are merged instead.
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surf",
		Short: "surf",
		Long:  rootLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.PersistentStartupProcessFlags(cmd)
		},
		SilenceErrors: true,
		Example: `  surf get -i https://example.com
  surf download -p 8 https://example.com/file.tar.gz file.tar.gz
  surf bench -n 1000 -c 50 https://example.com/health`,
	}
	cmd.SetUsageTemplate(cli.UsageTemplate)
	err := config.AddRootPersistentFlags(cmd)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return cmd
}
