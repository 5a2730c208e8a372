package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Store hands out request-scoped sessions over a shared pool.
type Store struct {
	db     *sql.DB
	driver string
}

func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Session pins one pooled connection for the caller. The caller must Close it.
func (s *Store) Session(ctx context.Context) (*Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	return &Session{conn: conn, driver: s.driver}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return Close(s.db)
}

// Session is a single connection borrowed from the pool for one unit of work.
type Session struct {
	conn   *sql.Conn
	driver string
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, Rebind(s.driver, query), args...)
}

func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, Rebind(s.driver, query), args...)
}

func (s *Session) PingContext(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close returns the connection to the pool. Closing twice is harmless.
func (s *Session) Close() error {
	if err := s.conn.Close(); err != nil && err != sql.ErrConnDone {
		return err
	}
	return nil
}

// Rebind rewrites ? placeholders into $1, $2, ... for the pgx driver.
// Placeholders inside single-quoted literals are left alone.
func Rebind(driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
