package ports

import "time"

type Policy struct {
	MaxOutboxSizeBytes int64         `yaml:"max_outbox_size_bytes"`
	MaxQueueLen        int           `yaml:"max_queue_len"`
	MaxBatchSize       int           `yaml:"max_batch_size"`
	IdleSleep          time.Duration `yaml:"idle_sleep"`

	OnOutboxFull string `yaml:"on_outbox_full"` // "block", "drop"
	OnQueueFull  string `yaml:"on_queue_full"`  // "reject", "block", "drop"
}
