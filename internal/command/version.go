package command

import (
	"fmt"

	"github.com/spf13/cobra"

	appversion "github.com/sakha1370/openray/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := appversion.BuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "openray %s (%s, built %s) %s %s/%s\n",
				info.Version, info.Commit, info.Date, info.Go, info.OS, info.Arch)
			return nil
		},
	}
}
