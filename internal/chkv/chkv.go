// Package chkv archives dumped scoring-core state as rows in
// ClickHouse, adapted from the teacher pipeline's ClickHouseWriter so a
// fleet of scoring engines can centralize calibration snapshots instead
// of writing them to local disk one host at a time.
package chkv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/flowsentry/edgescore/pkg/scoring"
)

const createScoringStateTable = `
CREATE TABLE IF NOT EXISTS scoring_state (
	Name    String,
	Variant String,
	SavedAt DateTime,
	Payload String
) ENGINE = MergeTree()
ORDER BY (Name, SavedAt);
`

// Config holds the connection parameters for a ClickHouse-backed Store.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// Store implements scoring.Store against a ClickHouse connection.
type Store struct {
	conn driver.Conn
}

// Open connects to ClickHouse and ensures the scoring_state table
// exists.
func Open(cfg Config) (*Store, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("chkv: connect: %w", err)
	}
	if err := conn.Exec(context.Background(), createScoringStateTable); err != nil {
		return nil, fmt.Errorf("chkv: create scoring_state table: %w", err)
	}
	log.Println("chkv: connected to ClickHouse and ensured scoring_state table exists")
	return &Store{conn: conn}, nil
}

func addrFor(cfg Config) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

func connect(cfg Config) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addrFor(cfg)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return conn, nil
}

type dumper interface {
	DumpTo(w io.Writer) error
}

func (s *Store) save(name, variant string, c dumper) error {
	var buf bytes.Buffer
	if err := c.DumpTo(&buf); err != nil {
		return fmt.Errorf("chkv: dump %s/%s: %w", variant, name, err)
	}
	err := s.conn.Exec(context.Background(),
		"INSERT INTO scoring_state (Name, Variant, SavedAt, Payload) VALUES (?, ?, ?, ?)",
		name, variant, time.Now().UTC(), buf.String())
	if err != nil {
		return fmt.Errorf("chkv: insert %s/%s: %w", variant, name, err)
	}
	return nil
}

func (s *Store) latestPayload(name, variant string) ([]byte, error) {
	row := s.conn.QueryRow(context.Background(),
		"SELECT Payload FROM scoring_state WHERE Name = ? AND Variant = ? ORDER BY SavedAt DESC LIMIT 1",
		name, variant)

	var payload string
	if err := row.Scan(&payload); err != nil {
		return nil, fmt.Errorf("chkv: load %s/%s: %w", variant, name, err)
	}
	return []byte(payload), nil
}

// SaveNormal archives c under name.
func (s *Store) SaveNormal(name string, c *scoring.NormalCore) error {
	return s.save(name, "normal", c)
}

// SaveRelational archives c under name.
func (s *Store) SaveRelational(name string, c *scoring.RelationalCore) error {
	return s.save(name, "relational", c)
}

// SaveFiltering archives c under name.
func (s *Store) SaveFiltering(name string, c *scoring.FilteringCore) error {
	return s.save(name, "filtering", c)
}

// LoadNormal fetches the most recently archived NormalCore for name.
func (s *Store) LoadNormal(name string) (*scoring.NormalCore, error) {
	payload, err := s.latestPayload(name, "normal")
	if err != nil {
		return nil, err
	}
	return scoring.LoadNormalCoreFrom(bytes.NewReader(payload))
}

// LoadRelational fetches the most recently archived RelationalCore for
// name.
func (s *Store) LoadRelational(name string) (*scoring.RelationalCore, error) {
	payload, err := s.latestPayload(name, "relational")
	if err != nil {
		return nil, err
	}
	return scoring.LoadRelationalCoreFrom(bytes.NewReader(payload))
}

// LoadFiltering fetches the most recently archived FilteringCore for
// name.
func (s *Store) LoadFiltering(name string) (*scoring.FilteringCore, error) {
	payload, err := s.latestPayload(name, "filtering")
	if err != nil {
		return nil, err
	}
	return scoring.LoadFilteringCoreFrom(bytes.NewReader(payload))
}
