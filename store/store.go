// Package store provides access to the external missing-person record store
// and keeps the in-memory embedding index synchronized with it.
package store

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
)

// StatusLost is the record status that makes a person part of the live search.
const StatusLost = "Lost"

// Person is one missing-person record as stored externally.
type Person struct {
	// ID is the store's primary key, rendered as an opaque string.
	ID string
	// FullName is the person's display name.
	FullName string
	// Status is the case status; only StatusLost records are searched.
	Status string
	// Embeddings are the enrollment face embeddings.
	Embeddings [][]float32
}

// Driver is the record store backend.
type Driver interface {
	// ListLostPersons returns every person with status Lost and at least
	// one stored embedding.
	ListLostPersons(ctx context.Context) ([]*Person, error)
	// WatchInserts delivers newly inserted records (full documents) for
	// the process lifetime. The channel closes only when the feed ends.
	WatchInserts(ctx context.Context) (<-chan *Person, error)
	Close(ctx context.Context) error
}

// Store wraps a Driver and owns index synchronization.
type Store struct {
	driver Driver
}

// New creates a new instance of Store.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// LoadIndex bulk-loads the embedding index from the record store. Called at
// startup; a failure here is fatal to the process.
func (s *Store) LoadIndex(ctx context.Context, idx *facematch.Index) error {
	persons, err := s.driver.ListLostPersons(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load lost persons")
	}

	var records []facematch.Record
	for _, p := range persons {
		for _, vec := range p.Embeddings {
			records = append(records, facematch.Record{ID: p.ID, Name: p.FullName, Vector: vec})
		}
	}
	idx.BulkReplace(records)

	slog.Info("embedding index loaded",
		"persons", len(persons),
		"embeddings", len(records))
	return nil
}

// WatchLost consumes the insert feed and appends embeddings for new Lost
// records to the index. It blocks until the feed ends or ctx is done; this
// path never removes records — removal is driven only by operator action.
func (s *Store) WatchLost(ctx context.Context, idx *facematch.Index) error {
	inserts, err := s.driver.WatchInserts(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to open insert feed")
	}
	slog.Info("watching record store for new inserts")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-inserts:
			if !ok {
				return errors.New("insert feed ended")
			}
			if p.Status != StatusLost || len(p.Embeddings) == 0 {
				continue
			}
			idx.Append(p.ID, p.FullName, p.Embeddings)
			slog.Info("added new lost person to live search",
				"id", p.ID,
				"name", p.FullName,
				"embeddings", len(p.Embeddings))
		}
	}
}
