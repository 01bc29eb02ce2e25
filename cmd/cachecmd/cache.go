package cachecmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/surf-cli/surf/pkg/cache"
	"github.com/surf-cli/surf/pkg/cli"
)

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "inspect or clear the cached configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show [kind]",
		Short: "print the cached configuration of every command, or of one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShowCMD,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "remove the cached configuration",
		Args:  cobra.NoArgs,
		RunE:  runClearCMD,
	})
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd
}

func runShowCMD(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	reconciler, err := cli.NewReconciler()
	if err != nil {
		return err
	}
	snapshots, err := reconciler.Store.Load()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		kind := cache.Kind(args[0])
		snap, ok := snapshots[kind]
		if !ok {
			return fmt.Errorf("%w for %s", cache.ErrNoCachedConfig, kind)
		}
		snapshots = map[cache.Kind]cache.Snapshot{kind: snap}
	}
	writeSnapshots(cmd.OutOrStdout(), snapshots)
	return nil
}

func writeSnapshots(w io.Writer, snapshots map[cache.Kind]cache.Snapshot) {
	if len(snapshots) == 0 {
		fmt.Fprintln(w, "no cached configuration")
		return
	}
	for i, kind := range cache.Kinds(snapshots) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s]\n", kind)
		snap := snapshots[kind]
		for _, name := range snap.Names() {
			fmt.Fprintf(w, "  %s = %s\n", name, snap[name])
		}
	}
}

func runClearCMD(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	reconciler, err := cli.NewReconciler()
	if err != nil {
		return err
	}
	if err := reconciler.Store.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", reconciler.Store.Path())
	return nil
}
