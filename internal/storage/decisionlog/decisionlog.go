// Package decisionlog keeps an audit trail of validator decisions made by the
// CLI, in SQLite or PostgreSQL.
package decisionlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrInvalidDriver is returned for a driver other than sqlite or postgres
	ErrInvalidDriver = errors.New("invalid decision log driver")

	// ErrLogClosed is returned when writing to a closed log
	ErrLogClosed = errors.New("decision log is closed")
)

// Entry is one recorded decision.
type Entry struct {
	ID         uuid.UUID
	RunID      uuid.UUID
	RecordedAt time.Time
	// Source names what produced the decision, e.g. "evaluate" or "plan claim".
	Source    string
	EscrowRef string
	Action    string
	Result    string
	OracleRef string
	Feed      string
	Price     string
	// BreakerPrice is the integer the threshold was compared against.
	BreakerPrice string
}

// FromDecision fills an entry from a validator decision.
func FromDecision(source, escrowRef string, d validator.Decision) Entry {
	e := Entry{
		Source:    source,
		EscrowRef: escrowRef,
		Action:    d.Action.String(),
		Result:    d.Result.String(),
	}
	if d.OracleRef != nil {
		e.OracleRef = d.OracleRef.String()
	}
	if d.Observation != nil {
		e.Feed = d.Observation.Name()
		e.Price = d.Observation.Values[0].String()
	}
	if d.Price != nil {
		e.BreakerPrice = d.Price.String()
	}
	return e
}

// Log writes entries under one run id.
type Log struct {
	db     *sql.DB
	driver string
	runID  uuid.UUID
	now    func() time.Time
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string, maxOpenConns int) (*Log, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	l := &Log{db: db, driver: driver, runID: uuid.New(), now: time.Now}
	if err := l.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) initSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			recorded_at BIGINT NOT NULL,
			source TEXT NOT NULL,
			escrow_ref TEXT NOT NULL,
			action TEXT NOT NULL,
			result TEXT NOT NULL,
			oracle_ref TEXT NOT NULL DEFAULT '',
			feed TEXT NOT NULL DEFAULT '',
			price TEXT NOT NULL DEFAULT '',
			breaker_price TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS decisions_run_id ON decisions (run_id)`,
	}
	for _, stmt := range schema {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init decision log schema: %w", err)
		}
	}
	return nil
}

// RunID identifies the entries written through this Log.
func (l *Log) RunID() uuid.UUID {
	return l.runID
}

// Record stores e, assigning ID, RunID and RecordedAt.
func (l *Log) Record(ctx context.Context, e Entry) (Entry, error) {
	if l.db == nil {
		return e, ErrLogClosed
	}
	e.ID = uuid.New()
	e.RunID = l.runID
	e.RecordedAt = l.now().UTC().Truncate(time.Millisecond)

	query := rebind(l.driver, `INSERT INTO decisions
		(id, run_id, recorded_at, source, escrow_ref, action, result, oracle_ref, feed, price, breaker_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := l.db.ExecContext(ctx, query,
		e.ID.String(), e.RunID.String(), e.RecordedAt.UnixMilli(),
		e.Source, e.EscrowRef, e.Action, e.Result,
		e.OracleRef, e.Feed, e.Price, e.BreakerPrice,
	)
	if err != nil {
		return e, fmt.Errorf("record decision: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if l.db == nil {
		return nil, ErrLogClosed
	}
	query := rebind(l.driver, `SELECT id, run_id, recorded_at, source, escrow_ref, action, result,
		oracle_ref, feed, price, breaker_price
		FROM decisions ORDER BY recorded_at DESC, id DESC LIMIT ?`)
	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			id, runID  string
			recordedAt int64
		)
		if err := rows.Scan(&id, &runID, &recordedAt, &e.Source, &e.EscrowRef, &e.Action, &e.Result,
			&e.OracleRef, &e.Feed, &e.Price, &e.BreakerPrice); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("decision id %q: %w", id, err)
		}
		if e.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("decision run id %q: %w", runID, err)
		}
		e.RecordedAt = time.UnixMilli(recordedAt).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
