// Package archive stores decoded messages in a SQL table. Postgres is reached
// through lib/pq and local files through the pure Go SQLite driver.
package archive

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ghalamif/telegraph/internal/domain"
	"github.com/ghalamif/telegraph/internal/ports"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "telegraph_messages"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Archive struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// New wraps an open database. The table name must be a plain identifier.
func New(db *sql.DB, dialect Dialect, table string) (*Archive, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("archive: invalid table name %q", table)
	}
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("archive: unsupported dialect %q", dialect)
	}
	return &Archive{db: db, dialect: dialect, table: table}, nil
}

// DialectFor picks the dialect from a DSN: postgres URLs and key=value
// strings go to Postgres, anything else is treated as a SQLite path.
func DialectFor(dsn string) Dialect {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres
	case strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname="):
		return Postgres
	default:
		return SQLite
	}
}

// Open connects to dsn, checks the connection and creates the table.
func Open(dsn, table string) (*Archive, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("archive: dsn is required")
	}
	dialect := DialectFor(dsn)
	if dialect == SQLite {
		dsn = filepath.Clean(dsn) + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", dialect, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s archive: %w", dialect, err)
	}
	a, err := New(db, dialect, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := a.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) Name() string { return "archive" }

func (a *Archive) Dialect() Dialect { return a.dialect }

func (a *Archive) EnsureSchema() error {
	ts := "TIMESTAMPTZ"
	if a.dialect == SQLite {
		ts = "TIMESTAMP"
	}
	_, err := a.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	origin_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	recipient TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at %s NOT NULL,
	priority INTEGER NOT NULL
)`, a.table, ts))
	if err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

func (a *Archive) placeholder(n int) string {
	if a.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// WriteBatch inserts messages, ignoring ids already archived.
func (a *Archive) WriteBatch(messages []*domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(a.table)
	b.WriteString(" (id, origin_id, sender, recipient, content, created_at, priority) VALUES ")

	args := make([]any, 0, len(messages)*7)
	for i, m := range messages {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for j := 1; j <= 7; j++ {
			if j > 1 {
				b.WriteString(",")
			}
			b.WriteString(a.placeholder(len(args) + j))
		}
		b.WriteString(")")

		args = append(args,
			m.ID,
			m.OriginID,
			m.Sender,
			m.Recipient,
			m.Content,
			m.CreatedAt.UTC(),
			m.Priority,
		)
	}

	b.WriteString(" ON CONFLICT (id) DO NOTHING")

	_, err := a.db.Exec(b.String(), args...)
	return err
}

// Count returns how many messages the table holds.
func (a *Archive) Count() (int, error) {
	var n int
	err := a.db.QueryRow("SELECT COUNT(*) FROM " + a.table).Scan(&n)
	return n, err
}

func (a *Archive) Close() error { return a.db.Close() }

var _ ports.Sink = (*Archive)(nil)
