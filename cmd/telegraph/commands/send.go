package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghalamif/telegraph/pkg/telegraph"
)

var (
	sendFrom    string
	sendTo      string
	sendEmitter int
	sendEncoder string
	sendJSON    bool
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one message down the configured line and print the report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := telegraph.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if sendEncoder != "" {
			cfg.Encoder = sendEncoder
		}
		cfg.Metrics.Addr = ""
		cfg.Auto.Enabled = false

		rt, err := telegraph.NewRuntime(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		defer func() {
			if err := rt.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
			}
		}()

		rep := rt.Send(ctx, strings.Join(args, " "), sendFrom, sendTo, sendEmitter)
		if sendJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		printReport(rep)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendFrom, "from", "Operator", "sender name")
	sendCmd.Flags().StringVar(&sendTo, "to", "Station", "recipient name")
	sendCmd.Flags().IntVarP(&sendEmitter, "emitter", "e", 0, "index of the emitter to key the message on")
	sendCmd.Flags().StringVar(&sendEncoder, "encoder", "", "override the configured encoder (morse, baudot, binary)")
	sendCmd.Flags().BoolVar(&sendJSON, "json", false, "print the report as JSON")
}

func printReport(rep telegraph.SendReport) {
	status := "delivered"
	if !rep.Outcome.Succeeded {
		status = fmt.Sprintf("failed [%s] %s", rep.Outcome.ErrorCode, rep.Outcome.ErrorMessage)
	}
	fmt.Printf("%s %s -> %s via %s (%s): %s\n", rep.MessageID, rep.Sender, rep.Recipient, rep.Emitter.Name, rep.EncoderID, status)
	if rep.FailedComponent != "" {
		fmt.Printf("  failed at: %s\n", rep.FailedComponent)
	}
	fmt.Printf("  latency: %.1f ms, receivers: %d", rep.Outcome.Latency(), rep.Received)
	if rep.Decoded != "" {
		fmt.Printf(", decoded: %q", rep.Decoded)
	}
	fmt.Println()
}
