package cmd

import (
	"github.com/spf13/cobra"

	"github.com/surf-cli/surf/cmd/bench"
	"github.com/surf-cli/surf/cmd/cachecmd"
	"github.com/surf-cli/surf/cmd/download"
	"github.com/surf-cli/surf/cmd/get"
	"github.com/surf-cli/surf/cmd/root"
	"github.com/surf-cli/surf/cmd/version"
)

func GetRootCommand() *cobra.Command {
	rootCMD := root.GetCommand()
	rootCMD.AddCommand(get.GetCommand())
	rootCMD.AddCommand(download.GetCommand())
	rootCMD.AddCommand(bench.GetCommand())
	rootCMD.AddCommand(cachecmd.GetCommand())
	rootCMD.AddCommand(version.VersionCMD)
	return rootCMD
}
