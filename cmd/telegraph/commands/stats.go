package commands

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	statsURL      string
	statsInterval time.Duration
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Poll the Prometheus metrics endpoint and print live counters",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()

		fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", statsURL)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := printMetricsSnapshot(statsURL); err != nil {
					fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
				}
			}
		}
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsURL, "url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	statsCmd.Flags().DurationVar(&statsInterval, "interval", 2*time.Second, "refresh interval")
}

var statsTargets = []string{
	"telegraph_transmissions_total",
	"telegraph_transmission_failures_total",
	"telegraph_messages_received_total",
	"telegraph_queue_length",
	"telegraph_outbox_size_bytes",
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values := make(map[string]float64, len(statsTargets))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statsTargets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					values[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] sent=%.0f failed=%.0f received=%.0f queue=%.0f outbox_bytes=%.0f\n",
		time.Now().Format(time.RFC3339),
		values["telegraph_transmissions_total"],
		values["telegraph_transmission_failures_total"],
		values["telegraph_messages_received_total"],
		values["telegraph_queue_length"],
		values["telegraph_outbox_size_bytes"],
	)
	return nil
}
