package emitter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ghalamif/telegraph/internal/chain"
	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
	"github.com/ghalamif/telegraph/internal/random"
)

const (
	// MinInterval is the shortest pause between generated messages.
	MinInterval     = 500 * time.Millisecond
	DefaultInterval = 3 * time.Second

	// AutoSender and AutoRecipient address generated messages.
	AutoSender    = "system-auto"
	AutoRecipient = "receiver"
)

var cannedMessages = []string{
	"SOS", "HELLO WORLD", "URGENT MESSAGE", "CONFIRM RECEIPT", "TRANSMISSION OK",
	"END OF MESSAGE", "AWAITING REPLY", "RECEIVED", "UNDERSTOOD", "REPEAT MESSAGE",
	"READY TO RECEIVE", "START TRANSMISSION", "LINE TEST", "ALL CLEAR", "HELP",
	"EMERGENCY", "STOP", "CONTINUE", "WAIT", "GO AHEAD",
}

var phraseWords = []string{
	"ALFA", "BRAVO", "CHARLIE", "DELTA", "ECHO", "FOXTROT", "GOLF", "HOTEL",
	"INDIA", "JULIET", "KILO", "LIMA", "MIKE", "NOVEMBER", "OSCAR", "PAPA",
	"QUEBEC", "ROMEO", "SIERRA", "TANGO", "UNIFORM", "VICTOR", "WHISKEY",
	"XRAY", "YANKEE", "ZULU", "NORTH", "SOUTH", "EAST", "WEST", "HIGH",
	"LOW", "FAST", "SLOW", "GOOD", "BAD", "BIG", "SMALL", "FIRST", "LAST",
	"TODAY", "TOMORROW", "YESTERDAY", "NOW", "SOON", "LATE", "NEVER",
	"ALWAYS", "HERE", "THERE", "NEAR", "FAR",
}

// AutomaticConfig sets the generation interval.
type AutomaticConfig struct {
	Config
	Interval time.Duration
}

func DefaultAutomaticConfig() AutomaticConfig {
	return AutomaticConfig{
		Config:   Config{ID: "emitter-auto", Name: "Automatic emitter"},
		Interval: DefaultInterval,
	}
}

// Automatic keys without operator errors, buffers signals for batch sending
// and can generate random traffic in the encoder's own notation.
type Automatic struct {
	*base

	mu        sync.Mutex
	rnd       ports.Rand
	charset   []rune
	pending   []domain.Signal
	interval  time.Duration
	generated int
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewAutomatic(cfg AutomaticConfig, enc ports.Encoder, rnd ports.Rand) *Automatic {
	if rnd == nil {
		rnd = random.New(0)
	}
	a := &Automatic{rnd: rnd}
	a.base = newBase(cfg.Config, "emitter-auto", "Automatic emitter", enc, a)
	a.charset = plainCharset(enc)
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	a.SetInterval(cfg.Interval)
	return a
}

func (a *Automatic) send(domain.Signal) *domain.TransmissionError { return nil }

// SetEncoder also switches the character set used for generated text.
func (a *Automatic) SetEncoder(enc ports.Encoder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.encoder = enc
	a.charset = plainCharset(enc)
}

// plainCharset keeps the letters, digits and space the encoder supports.
func plainCharset(enc ports.Encoder) []rune {
	var out []rune
	for _, r := range enc.Alphabet() {
		if r == ' ' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		}
	}
	return out
}

// Enqueue adds sig to the pending queue.
func (a *Automatic) Enqueue(sig domain.Signal) {
	a.mu.Lock()
	a.pending = append(a.pending, sig.Clone())
	a.mu.Unlock()
}

func (a *Automatic) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

func (a *Automatic) ClearQueue() {
	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
}

// ProcessQueue sends every pending signal, oldest first, through the emitter
// followed by downstream. A switched off emitter leaves the queue untouched.
func (a *Automatic) ProcessQueue(downstream ...ports.Node) []domain.Outcome {
	if !a.on {
		return []domain.Outcome{a.fail(a.offError())}
	}
	a.mu.Lock()
	batch := a.pending
	a.pending = nil
	a.mu.Unlock()

	c := chain.New(a).Then(downstream...)
	outs := make([]domain.Outcome, 0, len(batch))
	for _, sig := range batch {
		outs = append(outs, c.Propagate(sig))
	}
	return outs
}

// GenerateText returns a random canned message, word phrase or character run
// restricted to what the encoder can carry.
func (a *Automatic) GenerateText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generateText()
}

func (a *Automatic) generateText() string {
	var text string
	switch r := a.rnd.Float64(); {
	case r < 0.4:
		text = a.fit(cannedMessages[a.intn(len(cannedMessages))])
	case r < 0.7:
		words := make([]string, 2+a.intn(3))
		for i := range words {
			words[i] = phraseWords[a.intn(len(phraseWords))]
		}
		text = a.fit(strings.Join(words, " "))
	default:
		var b strings.Builder
		if len(a.charset) > 0 {
			for n := 3 + a.intn(8); n > 0; n-- {
				b.WriteRune(a.charset[a.intn(len(a.charset))])
			}
		}
		text = strings.Join(strings.Fields(b.String()), " ")
	}
	if text == "" {
		return "SOS"
	}
	return text
}

func (a *Automatic) intn(n int) int {
	return min(n-1, int(a.rnd.Float64()*float64(n)))
}

// fit upper-cases text, drops what the charset lacks and collapses spaces.
func (a *Automatic) fit(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		for _, c := range a.charset {
			if r == c {
				b.WriteRune(r)
				break
			}
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NextMessage generates a message whose content is already written in the
// encoder's notation, e.g. "... --- ..." for Morse.
func (a *Automatic) NextMessage() *domain.Message {
	a.mu.Lock()
	text := a.generateText()
	content := a.encoder.Represent(text)
	a.generated++
	a.mu.Unlock()
	return domain.NewMessage(content, AutoSender, AutoRecipient)
}

// Generate encodes a fresh message and queues its signal.
func (a *Automatic) Generate() (*domain.Message, domain.Signal, error) {
	msg := a.NextMessage()
	sig, err := a.Encode(msg)
	if err != nil {
		return msg, domain.Signal{}, err
	}
	a.Enqueue(sig)
	return msg, sig, nil
}

// Start emits a generated message right away and then once per interval
// until Stop is called.
func (a *Automatic) Start(out chan<- *domain.Message) error {
	a.mu.Lock()
	if a.cancel != nil {
		a.mu.Unlock()
		return fmt.Errorf("emitter %s already generating", a.id.Name)
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.mu.Unlock()

	a.wg.Add(1)
	go a.generate(ctx, out)
	return nil
}

func (a *Automatic) generate(ctx context.Context, out chan<- *domain.Message) {
	defer a.wg.Done()

	current := a.Interval()
	ticker := time.NewTicker(current)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case out <- a.NextMessage():
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if d := a.Interval(); d != current {
			current = d
			ticker.Reset(d)
		}
	}
}

// Stop halts generation and waits for the generator to exit.
func (a *Automatic) Stop() error {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
	return nil
}

func (a *Automatic) Generating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// SetInterval applies from the next tick; values under MinInterval are raised to it.
func (a *Automatic) SetInterval(d time.Duration) {
	a.mu.Lock()
	a.interval = max(MinInterval, d)
	a.mu.Unlock()
}

func (a *Automatic) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interval
}

// Generated counts messages produced since the last reset.
func (a *Automatic) Generated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generated
}

func (a *Automatic) ResetCounter() {
	a.mu.Lock()
	a.generated = 0
	a.mu.Unlock()
}

var _ ports.Source = (*Automatic)(nil)
