package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/vision"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/store"
)

type stubDriver struct {
	inserts chan *store.Person
}

func (d *stubDriver) ListLostPersons(_ context.Context) ([]*store.Person, error) { return nil, nil }
func (d *stubDriver) WatchInserts(_ context.Context) (<-chan *store.Person, error) {
	return d.inserts, nil
}
func (d *stubDriver) Close(_ context.Context) error { return nil }

func TestManagerRunsWatcherAndPipelines(t *testing.T) {
	inserts := make(chan *store.Person, 1)
	inserts <- &store.Person{
		ID:         "p9",
		FullName:   "Nisha",
		Status:     store.StatusLost,
		Embeddings: [][]float32{{0.5, 0.5}},
	}

	idx := facematch.NewIndex()
	pub := NewPublisher(CameraLabels([]string{"cam-a", "cam-b"}))
	src := &fakeSource{}
	factory := func(string) vision.Source { return src }

	mgr := NewManager(
		[]string{"cam-a", "cam-b"},
		factory,
		&fakeDetector{},
		&fakeAnalyzer{},
		idx,
		facematch.DefaultThresholds(),
		&fakeDispatcher{},
		pub,
		store.New(&stubDriver{inserts: inserts}),
		nil,
		10,
		5*time.Millisecond,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Run(ctx) }()

	// The watcher feeds the index while both pipelines publish frames.
	require.Eventually(t, func() bool { return idx.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok1 := pub.Latest("Camera C1")
		_, ok2 := pub.Latest("Camera C2")
		return ok1 && ok2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not stop")
	}
}
