package facematch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{ID: "p1", Name: "Asha", Vector: []float32{0.1, 0.2, 0.3}},
		{ID: "p1", Name: "Asha", Vector: []float32{0.11, 0.19, 0.31}},
		{ID: "p2", Name: "Ravi", Vector: []float32{0.9, 0.8, 0.7}},
	}
}

func TestBulkReplaceSnapshotRoundTrip(t *testing.T) {
	idx := NewIndex()
	records := sampleRecords()
	idx.BulkReplace(records)

	snap := idx.Snapshot()
	require.Len(t, snap, len(records))
	// Vectors must survive bit-for-bit.
	for i, rec := range records {
		assert.Equal(t, rec.ID, snap[i].ID)
		assert.Equal(t, rec.Name, snap[i].Name)
		assert.Equal(t, rec.Vector, snap[i].Vector)
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	idx := NewIndex()
	idx.BulkReplace(sampleRecords())

	snap := idx.Snapshot()
	idx.RemoveIdentity("p1")

	// The earlier snapshot is unaffected by later mutation.
	assert.Len(t, snap, 3)
	assert.Equal(t, 1, idx.Len())
}

func TestAppendAddsOneRecordPerVector(t *testing.T) {
	idx := NewIndex()
	idx.Append("p3", "Meera", [][]float32{{1, 2}, {3, 4}, {5, 6}})

	snap := idx.Snapshot()
	require.Len(t, snap, 3)
	for _, rec := range snap {
		assert.Equal(t, "p3", rec.ID)
		assert.Equal(t, "Meera", rec.Name)
	}
}

func TestRemoveIdentityDropsAllRecords(t *testing.T) {
	idx := NewIndex()
	idx.BulkReplace(sampleRecords())
	idx.RemoveIdentity("p1")

	for _, rec := range idx.Snapshot() {
		assert.NotEqual(t, "p1", rec.ID)
	}
	assert.Equal(t, 1, idx.Len())
}

func TestTryMarkPendingClaimsOnce(t *testing.T) {
	idx := NewIndex()
	idx.BulkReplace(sampleRecords())

	require.True(t, idx.TryMarkPending("p1"))
	assert.False(t, idx.TryMarkPending("p1"))
	assert.True(t, idx.Excluded("p1"))
	assert.False(t, idx.Excluded("p2"))
}

func TestReleasePendingMakesSearchableAgain(t *testing.T) {
	idx := NewIndex()
	require.True(t, idx.TryMarkPending("p1"))

	idx.ReleasePending("p1")

	assert.False(t, idx.Excluded("p1"))
	assert.True(t, idx.TryMarkPending("p1"))
}

func TestResolvePurgesAndIsPermanent(t *testing.T) {
	idx := NewIndex()
	idx.BulkReplace(sampleRecords())
	require.True(t, idx.TryMarkPending("p1"))

	idx.Resolve("p1")

	for _, rec := range idx.Snapshot() {
		assert.NotEqual(t, "p1", rec.ID)
	}
	assert.True(t, idx.Excluded("p1"))
	// A resolved person can never be claimed again.
	assert.False(t, idx.TryMarkPending("p1"))
	// Research does not resurrect a resolved person.
	idx.Research("p1")
	assert.True(t, idx.Excluded("p1"))
}

func TestResearchIsIdempotent(t *testing.T) {
	idx := NewIndex()
	idx.BulkReplace(sampleRecords())

	// Not pending: no error, no state change.
	idx.Research("p1")
	assert.False(t, idx.Excluded("p1"))

	require.True(t, idx.TryMarkPending("p1"))
	idx.Research("p1")
	assert.False(t, idx.Excluded("p1"))
	idx.Research("p1")
	assert.False(t, idx.Excluded("p1"))
}

func TestBulkReplaceResetsResolvedSet(t *testing.T) {
	idx := NewIndex()
	idx.BulkReplace(sampleRecords())
	idx.Resolve("p1")

	idx.BulkReplace(sampleRecords())

	assert.False(t, idx.Excluded("p1"))
	assert.Equal(t, 3, idx.Len())
}

func TestConcurrentPendingClaims(t *testing.T) {
	idx := NewIndex()
	idx.BulkReplace(sampleRecords())

	const claimers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if idx.TryMarkPending("p1") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var n int
	for range wins {
		n++
	}
	// Exactly one pipeline may hold the in-flight claim.
	assert.Equal(t, 1, n)
}
