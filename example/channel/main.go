package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ghalamif/telegraph"
)

func main() {
	cfg := telegraph.DefaultConfig()
	cfg.Metrics.Addr = ""
	cfg.Outbox.Dir = "./data/example-outbox"
	cfg.Line.Receivers = []telegraph.ReceiverConfig{{Kind: "tap"}}

	sink, messages, closeMessages := telegraph.NewChannelSink("tap", 32)
	defer closeMessages()

	rt, err := telegraph.NewRuntime(cfg, telegraph.WithSink("tap", sink))
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}
	if err := rt.Start(); err != nil {
		log.Fatalf("start runtime: %v", err)
	}

	go tap("desk", messages)

	for _, text := range []string{"SOS", "WHAT HATH GOD WROUGHT", "STOP"} {
		if _, err := rt.Submit(text, "Operator", "Desk", 0); err != nil {
			log.Printf("submit %q: %v", text, err)
		}
	}
	time.Sleep(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}

func tap(name string, batches <-chan []telegraph.Message) {
	for batch := range batches {
		for _, m := range batch {
			fmt.Printf("[%s] %s: %s\n", name, m.Sender, m.Content)
		}
	}
}
