package store

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
)

// fakeDriver is an in-memory Driver implementation.
type fakeDriver struct {
	persons []*Person
	inserts chan *Person
	listErr error
}

func (f *fakeDriver) ListLostPersons(_ context.Context) ([]*Person, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.persons, nil
}

func (f *fakeDriver) WatchInserts(_ context.Context) (<-chan *Person, error) {
	return f.inserts, nil
}

func (f *fakeDriver) Close(_ context.Context) error { return nil }

func TestLoadIndex(t *testing.T) {
	driver := &fakeDriver{
		persons: []*Person{
			{ID: "p1", FullName: "Asha", Status: StatusLost, Embeddings: [][]float32{{1, 2}, {3, 4}}},
			{ID: "p2", FullName: "Ravi", Status: StatusLost, Embeddings: [][]float32{{5, 6}}},
		},
	}
	idx := facematch.NewIndex()

	require.NoError(t, New(driver).LoadIndex(context.Background(), idx))

	snap := idx.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "p1", snap[0].ID)
	assert.Equal(t, []float32{1, 2}, snap[0].Vector)
	assert.Equal(t, "Ravi", snap[2].Name)
}

func TestLoadIndexFailurePropagates(t *testing.T) {
	driver := &fakeDriver{listErr: errors.New("store unreachable")}
	err := New(driver).LoadIndex(context.Background(), facematch.NewIndex())
	assert.Error(t, err)
}

func TestWatchLostAppendsOnlyLostInserts(t *testing.T) {
	inserts := make(chan *Person, 3)
	inserts <- &Person{ID: "p3", FullName: "Meera", Status: StatusLost, Embeddings: [][]float32{{1}, {2}}}
	inserts <- &Person{ID: "p4", FullName: "Karan", Status: "Found", Embeddings: [][]float32{{3}}}
	inserts <- &Person{ID: "p5", FullName: "Divya", Status: StatusLost, Embeddings: nil}

	driver := &fakeDriver{inserts: inserts}
	idx := facematch.NewIndex()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(driver).WatchLost(ctx, idx) }()

	require.Eventually(t, func() bool {
		return idx.Len() == 2
	}, time.Second, 10*time.Millisecond)

	// Only the Lost insert with embeddings made it in.
	for _, rec := range idx.Snapshot() {
		assert.Equal(t, "p3", rec.ID)
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchLostStopsWhenFeedCloses(t *testing.T) {
	inserts := make(chan *Person)
	close(inserts)
	driver := &fakeDriver{inserts: inserts}

	err := New(driver).WatchLost(context.Background(), facematch.NewIndex())
	assert.Error(t, err)
}
