package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	fotel "github.com/sdrasco/freedact/internal/otel"
)

var tracer = fotel.Tracer("github.com/sdrasco/freedact/internal/audit")

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("audit record not found")

// Store persists HMAC-signed audit records in SQLite.
type Store struct {
	db     *sql.DB
	signer *Signer
}

// NewStore opens (or creates) the audit database at dbPath.
func NewStore(dbPath, signingKey string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS audit_runs (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		doc_hash TEXT NOT NULL,
		entry_count INTEGER NOT NULL,
		unsafe_count INTEGER NOT NULL,
		record_json TEXT NOT NULL,
		signature TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_runs_timestamp ON audit_runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_runs_doc_hash ON audit_runs(doc_hash);
	`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		return nil, fmt.Errorf("creating audit schema: %w", err)
	}

	signer, err := NewSigner(signingKey)
	if err != nil {
		return nil, fmt.Errorf("creating signer: %w", err)
	}
	return &Store{db: db, signer: signer}, nil
}

// Close releases the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Save signs the record and persists it.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	ctx, span := tracer.Start(ctx, "audit.save",
		trace.WithAttributes(attribute.String("audit.id", rec.ID)))
	defer span.End()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling audit record: %w", err)
	}
	sig, err := s.signer.Sign(payload)
	if err != nil {
		return fmt.Errorf("signing audit record: %w", err)
	}
	rec.Signature = sig

	withSig, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling signed audit record: %w", err)
	}

	query := `INSERT INTO audit_runs (id, timestamp, doc_hash, entry_count, unsafe_count, record_json, signature)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Timestamp, rec.DocHash, len(rec.Entries), rec.UnsafeCount,
		string(withSig), sig); err != nil {
		return fmt.Errorf("storing audit record: %w", err)
	}
	return nil
}

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx, span := tracer.Start(ctx, "audit.get",
		trace.WithAttributes(attribute.String("audit.id", id)))
	defer span.End()

	var recordJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT record_json FROM audit_runs WHERE id = ?`, id).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying audit record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling audit record: %w", err)
	}
	return &rec, nil
}

// VerifySignature recomputes the HMAC for a stored record.
func (s *Store) VerifySignature(rec *Record) bool {
	sig := rec.Signature
	clone := *rec
	clone.Signature = ""
	payload, err := json.Marshal(&clone)
	if err != nil {
		return false
	}
	return s.signer.Verify(payload, sig)
}

// ListSummary is one row of the run index.
type ListSummary struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	DocHash     string    `json:"doc_hash"`
	EntryCount  int       `json:"entry_count"`
	UnsafeCount int       `json:"unsafe_count"`
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]ListSummary, error) {
	ctx, span := tracer.Start(ctx, "audit.list")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, doc_hash, entry_count, unsafe_count
		 FROM audit_runs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit runs: %w", err)
	}
	defer rows.Close()

	var out []ListSummary
	for rows.Next() {
		var s ListSummary
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.DocHash, &s.EntryCount, &s.UnsafeCount); err != nil {
			return nil, fmt.Errorf("scanning audit run: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
