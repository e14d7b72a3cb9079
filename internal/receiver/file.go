package receiver

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

// Format is the layout of entries appended to a File.
type Format string

const (
	FormatText Format = "TEXT"
	FormatCSV  Format = "CSV"
	FormatJSON Format = "JSON"
)

// DefaultFileName is used when a File is created without a name.
const DefaultFileName = "telegraph_messages.txt"

// Export is a snapshot of a File ready to be saved or downloaded.
type Export struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	MIMEType string `json:"mime_type"`
}

type fileRecord struct {
	Timestamp string `json:"timestamp"`
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Priority  int    `json:"priority"`
}

// File appends decoded messages to an in-memory log file.
type File struct {
	mu     sync.Mutex
	name   string
	format Format
	buf    bytes.Buffer
}

func NewFile(name string, format Format) *File {
	if name == "" {
		name = DefaultFileName
	}
	if format == "" {
		format = FormatText
	}
	f := &File{name: name, format: format}
	f.writeHeader()
	return f
}

func (f *File) Name() string { return "file" }

func (f *File) writeHeader() {
	f.buf.Reset()
	f.buf.WriteString("=== TELEGRAPH MESSAGE LOG ===\n")
	fmt.Fprintf(&f.buf, "Started: %s\n", time.Now().Format("2006-01-02"))
	f.buf.WriteString("=============================\n\n")
}

func (f *File) WriteBatch(messages []*domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range messages {
		if err := f.append(m); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) append(m *domain.Message) error {
	ts := m.CreatedAt.UTC().Format(time.RFC3339Nano)
	switch f.format {
	case FormatCSV:
		w := csv.NewWriter(&f.buf)
		if err := w.Write([]string{ts, m.Sender, m.Recipient, m.Content}); err != nil {
			return fmt.Errorf("file csv: %w", err)
		}
		w.Flush()
		return w.Error()
	case FormatJSON:
		b, err := json.Marshal(fileRecord{
			Timestamp: ts,
			ID:        m.ID,
			Sender:    m.Sender,
			Recipient: m.Recipient,
			Content:   m.Content,
			Priority:  m.Priority,
		})
		if err != nil {
			return fmt.Errorf("file json: %w", err)
		}
		f.buf.Write(b)
		f.buf.WriteByte('\n')
	default:
		fmt.Fprintf(&f.buf, "[%s]\nFrom: %s\nTo: %s\nMessage: %s\n---\n", ts, m.Sender, m.Recipient, m.Content)
	}
	return nil
}

// Contents returns the whole file, header included.
func (f *File) Contents() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

func (f *File) Export() Export {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Export{Name: f.name, Content: f.buf.String(), MIMEType: f.format.MIMEType()}
}

// Save writes the current contents to path.
func (f *File) Save(path string) error {
	exp := f.Export()
	if path == "" {
		path = exp.Name
	}
	if err := os.WriteFile(path, []byte(exp.Content), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Reset discards every entry and starts a fresh header.
func (f *File) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeHeader()
}

func (f *File) FileName() string { return f.name }
func (f *File) Format() Format   { return f.format }

// SetFormat changes the layout of entries written from now on.
func (f *File) SetFormat(format Format) {
	f.mu.Lock()
	f.format = format
	f.mu.Unlock()
}

func (fm Format) MIMEType() string {
	switch fm {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain"
	}
}

var _ ports.Sink = (*File)(nil)
