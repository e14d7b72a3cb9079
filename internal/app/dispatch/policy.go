package dispatch

import (
	"fmt"
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

func waitForOutboxCapacity(ob ports.Outbox, pol ports.Policy, obs ports.Observability) bool {
	if pol.MaxOutboxSizeBytes <= 0 {
		return true
	}
	sleep := pol.IdleSleep
	if sleep <= 0 {
		sleep = defaultIdle
	}

	for {
		stats := ob.Stats()
		if stats.SizeBytes < pol.MaxOutboxSizeBytes {
			return true
		}

		switch pol.OnOutboxFull {
		case "block":
			time.Sleep(sleep)
		case "drop":
			obs.LogError("outbox full, request dropped", fmt.Errorf("size=%d limit=%d", stats.SizeBytes, pol.MaxOutboxSizeBytes))
			return false
		default:
			obs.LogError("invalid outbox policy", fmt.Errorf("policy=%s", pol.OnOutboxFull))
			return false
		}
	}
}

func enqueueWithPolicy(q ports.RequestQueue, id ports.OutboxEntryID, r *domain.Request, pol ports.Policy, obs ports.Observability) bool {
	sleep := pol.IdleSleep
	if sleep <= 0 {
		sleep = defaultIdle
	}

	for {
		if q.Enqueue(id, r) {
			return true
		}

		switch pol.OnQueueFull {
		case "block":
			time.Sleep(sleep)
		case "drop", "reject":
			obs.LogError("queue full, request dropped", fmt.Errorf("queue length exceeded capacity %d", pol.MaxQueueLen))
			return false
		default:
			obs.LogError("invalid queue policy", fmt.Errorf("policy=%s", pol.OnQueueFull))
			return false
		}
	}
}

func replayOutbox(ob ports.Outbox, q ports.RequestQueue, pol ports.Policy, obs ports.Observability) (int, error) {
	stats := ob.Stats()
	if stats.LatestAppended == 0 {
		return 0, nil
	}
	start := stats.OldestUncommitted
	if start == 0 || start > stats.LatestAppended {
		return 0, nil
	}

	sleep := pol.IdleSleep
	if sleep <= 0 {
		sleep = defaultIdle
	}

	var replayed int
	err := ob.Iterate(start, func(id ports.OutboxEntryID, r *domain.Request) error {
		for {
			if q.Enqueue(id, r) {
				replayed++
				return nil
			}
			switch pol.OnQueueFull {
			case "drop", "reject":
				return fmt.Errorf("queue full during outbox replay")
			default:
				time.Sleep(sleep)
			}
		}
	})
	if err != nil {
		return replayed, err
	}
	if replayed > 0 {
		obs.LogInfo("outbox replay complete",
			ports.Field{Key: "requests", Value: replayed},
			ports.Field{Key: "from_id", Value: start})
	}
	return replayed, nil
}
