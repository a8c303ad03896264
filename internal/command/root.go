// Package command wires the pipeline Coordinator to a cobra CLI.
package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sakha1370/openray/internal/pkg/openrayio"
	"github.com/sakha1370/openray/internal/pkg/styles"
)

// NewRootCommand builds the "openray" root cobra command with the run,
// completion, and version subcommands attached.
func NewRootCommand(dataDir string) *cobra.Command {
	root := &cobra.Command{
		Use:           "openray",
		Short:         "OpenRay proxy harvester and validator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if !openrayio.StdoutIsTTY() {
			restore := disableStylesTemporarily()
			defer restore()
		}
		fmt.Fprintln(openrayio.Stdout, rootHelpText(cmd))
	})

	bindGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		newRunCommand(dataDir),
		newCompletionCommand(),
		newVersionCommand(),
	)
	return root
}

// bindGlobalFlags declares the persistent flags viper.AutomaticEnv and
// config.New's defaults layer underneath.
func bindGlobalFlags(flags *pflag.FlagSet) {
	flags.Bool("debug", false, "print parameter snapshot and debug logs at startup")
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
}

func disableStylesTemporarily() func() {
	styles.DisableStyles()
	return styles.EnableStyles
}

func rootHelpText(cmd *cobra.Command) string {
	var b strings.Builder
	b.WriteString(styles.GlobalStyles.Info.Render("openray") + " - harvests, validates, and ranks public proxy subscription links\n\n")
	if cmd.HasAvailableSubCommands() {
		b.WriteString("Available Commands:\n")
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				name := fmt.Sprintf("%-*s", cmd.NamePadding(), c.Name())
				fmt.Fprintf(&b, "  %s %s\n", name, styles.GlobalStyles.Comment.Render(c.Short))
			}
		}
		b.WriteRune('\n')
	}
	fmt.Fprintf(&b, "Run \"%s [command] --help\" for help with a specific command.\n", cmd.CommandPath())
	return b.String()
}
