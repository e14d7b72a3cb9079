package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/telegraph/pkg/telegraph"
)

// The config's line needs a receiver of kind "stdout" for the callback to be used.
func main() {
	flow, err := telegraph.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(batch []telegraph.Message) error {
		for _, m := range batch {
			fmt.Printf("%s from=%s to=%s %q\n",
				m.CreatedAt.Format(time.RFC3339Nano),
				m.Sender,
				m.Recipient,
				m.Content,
			)
		}
		return nil
	}

	if err := flow.Run(ctx, telegraph.OutboundCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
