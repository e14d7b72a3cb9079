package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ghalamif/telegraph/pkg/telegraph"
)

var runAuto bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the runtime: dispatcher, automatic generation and metrics server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flow, err := telegraph.Conf(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cmd.Flags().Changed("auto") {
			flow.Config().Auto.Enabled = runAuto
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := flow.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runAuto, "auto", false, "generate messages from the automatic emitter")
}
