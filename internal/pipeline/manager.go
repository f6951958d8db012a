package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/metrics"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/vision"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/store"
)

const indexGaugeInterval = 5 * time.Second

// CameraLabel returns the display label for the camera at the given
// zero-based position in the configured source list.
func CameraLabel(position int) string {
	return fmt.Sprintf("Camera C%d", position+1)
}

// CameraLabels returns the labels for a configured source list.
func CameraLabels(specs []string) []string {
	labels := make([]string, len(specs))
	for i := range specs {
		labels[i] = CameraLabel(i)
	}
	return labels
}

// Manager owns the process-lifetime background units: one pipeline per
// configured camera plus the record store insert watcher.
type Manager struct {
	pipelines []*Pipeline
	store     *store.Store
	index     *facematch.Index
	metrics   *metrics.Metrics
}

// NewManager builds one pipeline per camera spec.
func NewManager(specs []string, factory vision.SourceFactory,
	detector vision.PersonDetector, analyzer vision.FaceAnalyzer,
	index *facematch.Index, thresholds facematch.Thresholds,
	dispatcher Dispatcher, publisher *Publisher,
	st *store.Store, m *metrics.Metrics,
	detectionInterval int, reopenBackoff time.Duration,
) *Manager {
	pipelines := make([]*Pipeline, 0, len(specs))
	for i, spec := range specs {
		opts := Options{
			Camera:            CameraLabel(i),
			Spec:              spec,
			Factory:           factory,
			DetectionInterval: detectionInterval,
			ReopenBackoff:     reopenBackoff,
		}
		pipelines = append(pipelines, New(opts, detector, analyzer, index, thresholds, dispatcher, publisher, m))
	}
	return &Manager{
		pipelines: pipelines,
		store:     st,
		index:     index,
		metrics:   m,
	}
}

// Run starts every background unit and blocks until ctx is done or one of
// them fails. Pipelines run for the process lifetime; a degraded camera
// returns nil and does not bring the group down.
func (mgr *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mgr.store.WatchLost(ctx, mgr.index)
	})

	for _, p := range mgr.pipelines {
		p := p
		g.Go(func() error {
			return p.Run(ctx)
		})
	}

	if mgr.metrics != nil {
		g.Go(func() error {
			ticker := time.NewTicker(indexGaugeInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					mgr.metrics.SetIndexSize(mgr.index.Len())
				}
			}
		})
	}

	return g.Wait()
}
