package command

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakha1370/openray/internal/app/pipeline"
	"github.com/sakha1370/openray/internal/config"
	"github.com/sakha1370/openray/internal/openrayerrors"
	"github.com/sakha1370/openray/internal/openraylog"
	"github.com/sakha1370/openray/internal/pkg/openrayio"
)

func newRunCommand(dataDir string) *cobra.Command {
	var (
		noSpinner bool
		top100    bool
		noTop100  bool
	)

	cmd := &cobra.Command{
		Use:   "run [sources-file]",
		Short: "Harvest, validate, and rank proxy subscription links",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cerr := config.New(dataDir)
			if cerr != nil {
				return cerr
			}
			cfg.DataDir = dataDir
			if len(args) == 1 {
				if abs, err := filepath.Abs(args[0]); err == nil {
					cfg.Sources = abs
				}
			}
			if top100 {
				cfg.TopListEnabled = true
			}
			if noTop100 {
				cfg.TopListEnabled = false
			}

			logger := openraylog.New(cfg.Debug, openrayio.Stderr)
			logger.Debug("parameters", "config", cfg)

			coordinator, err := pipeline.New(cfg, logger)
			if err != nil {
				return openrayerrors.New(err)
			}
			defer coordinator.Close()

			ctx, stop := startProgress(cmd.Context(), logger, noSpinner || !openrayio.StderrIsTTY(), "starting")
			defer stop(nil)

			summary, rerr := coordinator.Run(ctx)
			if rerr != nil {
				return rerr
			}

			fmt.Fprintf(openrayio.Stdout, "sources fetched: %d, new uris: %d, stage1: %d, stage2: %d, stage3: %d, available: %d\n",
				summary.SourcesFetched, summary.NewURIs, summary.Stage1Passed, summary.Stage2Passed,
				summary.Stage3Validated, summary.AvailableAppended)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSpinner, "no-spinner", false, "disable the interactive progress spinner")
	cmd.Flags().BoolVar(&top100, "top100", false, "force-enable output/top100.txt")
	cmd.Flags().BoolVar(&noTop100, "no-top100", false, "disable output/top100.txt")

	return cmd
}
