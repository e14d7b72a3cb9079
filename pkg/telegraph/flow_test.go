package telegraph

import (
	"context"
	"testing"
)

func TestConfFromConfigAndBuilder(t *testing.T) {
	cfg := testConfig(t, "    - kind: hook\n")

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	ob := &stubOutbox{}
	sink := &stubSink{}

	rt, err := flow.
		Options(WithRand(fixedRand)).
		Inbound(
			InboundOutbox(ob),
			InboundObservability(&stubObservability{}),
		).
		Outbound(
			OutboundSink("hook", sink),
			OutboundObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("Outbound returned error: %v", err)
	}
	if rt.outbox != ob {
		t.Fatalf("expected custom outbox to be wired")
	}
	if rt.Line().Receivers()[0].Output() != sink {
		t.Fatalf("expected custom sink to be wired")
	}
}

func TestFlowRunStopsOnCancelledContext(t *testing.T) {
	cfg := testConfig(t, "    - kind: hook\n")

	flow, err := ConfFromConfig(cfg, WithFlowOptions(WithRand(fixedRand)))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := flow.Inbound(
		InboundObservability(&stubObservability{}),
	).Run(ctx,
		OutboundCallback("hook", func([]Message) error { return nil }),
	); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}
