package receiver

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Detail selects how much of each message the console prints.
type Detail string

const (
	DetailMinimal Detail = "MINIMAL"
	DetailNormal  Detail = "NORMAL"
	DetailFull    Detail = "FULL"
)

const (
	consoleRule    = "======================================"
	consoleDivider = "--------------------------------------"
	previewLen     = 30
)

// Console prints decoded messages to a writer.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	detail   Detail
	prefix   string
	received []*domain.Message
}

// NewConsole writes to w, or to stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w, detail: DetailNormal, prefix: "[telegraph]"}
}

func (c *Console) Name() string { return "console" }

func (c *Console) WriteBatch(messages []*domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range messages {
		if _, err := io.WriteString(c.w, c.format(m)); err != nil {
			return fmt.Errorf("console write: %w", err)
		}
		c.received = append(c.received, m)
	}
	return nil
}

func (c *Console) format(m *domain.Message) string {
	ts := m.CreatedAt.Format("15:04:05")
	var b strings.Builder
	switch c.detail {
	case DetailMinimal:
		fmt.Fprintf(&b, "%s %s\n", c.prefix, m.Content)
	case DetailFull:
		fmt.Fprintf(&b, "\n%s %s\n", c.prefix, consoleRule)
		b.WriteString("   MESSAGE RECEIVED\n")
		fmt.Fprintf(&b, "   %s\n", consoleDivider)
		fmt.Fprintf(&b, "   ID: %s\n", m.ID)
		fmt.Fprintf(&b, "   Time: %s\n", ts)
		fmt.Fprintf(&b, "   From: %s\n", m.Sender)
		fmt.Fprintf(&b, "   To: %s\n", m.Recipient)
		fmt.Fprintf(&b, "   Priority: %d\n", m.Priority)
		fmt.Fprintf(&b, "   %s\n", consoleDivider)
		fmt.Fprintf(&b, "   %s\n", m.Content)
		fmt.Fprintf(&b, "%s\n\n", consoleRule)
	default:
		fmt.Fprintf(&b, "\n%s %s\n", c.prefix, consoleRule)
		fmt.Fprintf(&b, "   Received: %s\n", ts)
		fmt.Fprintf(&b, "   Content: %s\n", m.Content)
		fmt.Fprintf(&b, "%s\n\n", consoleRule)
	}
	return b.String()
}

// Summary lists every message printed so far with a short preview.
func (c *Console) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var b strings.Builder
	fmt.Fprintf(&b, "Received messages: %d\n", len(c.received))
	for i, m := range c.received {
		preview := m.Content
		if r := []rune(preview); len(r) > previewLen {
			preview = string(r[:previewLen]) + "..."
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, m.CreatedAt.Format("15:04:05"), preview)
	}
	return b.String()
}

// SetDetail ignores unknown levels.
func (c *Console) SetDetail(d Detail) {
	switch d {
	case DetailMinimal, DetailNormal, DetailFull:
		c.mu.Lock()
		c.detail = d
		c.mu.Unlock()
	}
}

func (c *Console) SetPrefix(p string) {
	c.mu.Lock()
	c.prefix = p
	c.mu.Unlock()
}

func (c *Console) Clear() {
	c.mu.Lock()
	c.received = nil
	c.mu.Unlock()
}

var _ ports.Sink = (*Console)(nil)
