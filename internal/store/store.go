// Package store provides durable trip storage.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarerhq/wayfarer/internal/plan"
)

// ErrNotFound is returned when no trip exists for the given id.
var ErrNotFound = errors.New("trip not found")

// TripStore persists travel documents in SQLite. The *sql.DB is injected
// so production can use the cgo driver while tests run in-memory on the
// pure-Go one.
type TripStore struct {
	db *sql.DB
}

// TripSummary is the listing view of a saved trip.
type TripSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Days      int       `json:"days"`
	TotalCost int       `json:"totalCost"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewTripStore creates the store and ensures the schema exists.
func NewTripStore(db *sql.DB) (*TripStore, error) {
	s := &TripStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate creates the database schema.
func (s *TripStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		days INTEGER NOT NULL,
		total_cost INTEGER NOT NULL,
		document TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trips_updated ON trips(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores a document and returns its new id.
func (s *TripStore) Save(doc *plan.TravelDocument) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", fmt.Errorf("refusing to save invalid document: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err = s.db.Exec(
		`INSERT INTO trips (id, title, days, total_cost, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, doc.Summary.Title, doc.Days(), doc.Summary.TotalEstimatedCost, string(data), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert trip: %w", err)
	}

	return id, nil
}

// Update replaces the stored document for id, typically after a Constrain
// or Recontextualize pass.
func (s *TripStore) Update(id string, doc *plan.TravelDocument) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid document: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := s.db.Exec(
		`UPDATE trips SET title = ?, days = ?, total_cost = ?, document = ?, updated_at = ? WHERE id = ?`,
		doc.Summary.Title, doc.Days(), doc.Summary.TotalEstimatedCost, string(data), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Load returns the document for id.
func (s *TripStore) Load(id string) (*plan.TravelDocument, error) {
	var data string
	err := s.db.QueryRow(`SELECT document FROM trips WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query trip: %w", err)
	}

	var doc plan.TravelDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decode stored document: %w", err)
	}
	return &doc, nil
}

// List returns summaries of all trips, most recently updated first.
func (s *TripStore) List() ([]TripSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, title, days, total_cost, created_at, updated_at
		 FROM trips ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	var out []TripSummary
	for rows.Next() {
		var t TripSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.Days, &t.TotalCost, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes a trip. Deleting a missing id returns ErrNotFound.
func (s *TripStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
