// Package pipeline runs the per-camera capture, detection, and matching
// loops and publishes annotated frames for the streaming endpoint.
package pipeline

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/metrics"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/reporter"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/vision"
)

const (
	// defaults applied when options are zero-valued.
	defaultDetectionInterval = 10
	defaultReopenBackoff     = 2 * time.Second
)

// Dispatcher delivers a selected match downstream.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev reporter.MatchEvent) error
}

// Options configures a camera pipeline.
type Options struct {
	// Camera is the display label for this camera ("Camera C1", ...).
	Camera string
	// Spec is the configured source spec, handed to Factory on (re)open.
	Spec string
	// Factory builds the camera source.
	Factory vision.SourceFactory
	// DetectionInterval runs detect-and-match on every Nth frame.
	DetectionInterval int
	// ReopenBackoff is the wait before reopening after a mid-stream
	// read failure.
	ReopenBackoff time.Duration
}

// Pipeline is one independent camera processing unit.
type Pipeline struct {
	opts       Options
	detector   vision.PersonDetector
	analyzer   vision.FaceAnalyzer
	index      *facematch.Index
	thresholds facematch.Thresholds
	dispatcher Dispatcher
	publisher  *Publisher
	metrics    *metrics.Metrics
}

// New creates a pipeline. All collaborators are required except metrics,
// which may be nil in tests.
func New(opts Options, detector vision.PersonDetector, analyzer vision.FaceAnalyzer,
	index *facematch.Index, thresholds facematch.Thresholds,
	dispatcher Dispatcher, publisher *Publisher, m *metrics.Metrics,
) *Pipeline {
	if opts.DetectionInterval <= 0 {
		opts.DetectionInterval = defaultDetectionInterval
	}
	if opts.ReopenBackoff <= 0 {
		opts.ReopenBackoff = defaultReopenBackoff
	}
	return &Pipeline{
		opts:       opts,
		detector:   detector,
		analyzer:   analyzer,
		index:      index,
		thresholds: thresholds,
		dispatcher: dispatcher,
		publisher:  publisher,
		metrics:    m,
	}
}

// Run drives the capture loop until ctx is done. A camera that fails to
// open at startup is treated as permanently unavailable: the no-signal
// placeholder is published once and the pipeline stops without error.
// Mid-stream read failures, by contrast, are transient: the source is
// released and reopened after a fixed backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	src := p.opts.Factory(p.opts.Spec)
	if err := src.Open(); err != nil {
		slog.Error("camera failed to open, degrading to placeholder",
			"camera", p.opts.Camera, "err", err)
		p.publishNoSignal()
		return nil
	}
	defer func() { _ = src.Close() }()

	slog.Info("camera pipeline started", "camera", p.opts.Camera)

	frameCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := src.Read()
		if err != nil {
			slog.Warn("failed to capture frame, reopening camera",
				"camera", p.opts.Camera, "err", err)
			_ = src.Close()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.opts.ReopenBackoff):
			}
			src = p.opts.Factory(p.opts.Spec)
			if openErr := src.Open(); openErr != nil {
				slog.Warn("camera reopen failed, will retry",
					"camera", p.opts.Camera, "err", openErr)
			}
			if p.metrics != nil {
				p.metrics.CameraReopened(p.opts.Camera)
			}
			continue
		}

		frameCount++
		canvas := vision.Canvas(frame)

		if frameCount%p.opts.DetectionInterval == 0 && p.index.Len() > 0 {
			p.detectAndMatch(ctx, frame, canvas)
		}

		jpeg, err := vision.EncodeJPEG(canvas)
		if err != nil {
			slog.Warn("failed to encode frame", "camera", p.opts.Camera, "err", err)
			continue
		}
		p.publisher.Publish(p.opts.Camera, jpeg)
		if p.metrics != nil {
			p.metrics.FrameProcessed(p.opts.Camera)
		}
	}
}

// detectAndMatch runs one detection cycle: person boxes, a face per crop,
// best-of matching against a single index snapshot, and annotation. The
// snapshot is taken once per cycle; no index lock is held during inference
// or dispatch.
func (p *Pipeline) detectAndMatch(ctx context.Context, frame image.Image, canvas *image.NRGBA) {
	if p.metrics != nil {
		p.metrics.DetectionCycle(p.opts.Camera)
	}
	snapshot := p.index.Snapshot()

	persons, err := p.detector.DetectPersons(ctx, frame)
	if err != nil {
		slog.Warn("person detection failed", "camera", p.opts.Camera, "err", err)
		return
	}

	for _, box := range persons {
		crop, ok := vision.Crop(frame, box)
		if !ok {
			continue
		}
		faces, err := p.analyzer.DetectFaces(ctx, crop)
		if err != nil {
			slog.Warn("face detection failed", "camera", p.opts.Camera, "err", err)
			continue
		}
		if len(faces) == 0 {
			continue
		}
		if p.metrics != nil {
			p.metrics.FacesDetected(p.opts.Camera, len(faces))
		}

		probe := faces[0].Embedding
		rec, score, matched := facematch.BestMatch(probe, snapshot, p.thresholds.Match, p.index.Excluded)

		label := "Unknown"
		if matched {
			label = rec.Name
			p.report(ctx, rec, score, crop)
		}
		vision.DrawBox(canvas, box, label, matched)
	}
}

// report claims the pending state for the matched person and dispatches the
// match event synchronously. Any dispatch failure rolls the person back to
// searchable so a later detection can retry.
func (p *Pipeline) report(ctx context.Context, rec facematch.Record, score float32, crop image.Image) {
	if !p.index.TryMarkPending(rec.ID) {
		// Another pipeline claimed this person between snapshot and now.
		return
	}

	slog.Info("match detected",
		"camera", p.opts.Camera,
		"id", rec.ID,
		"name", rec.Name,
		"similarity", score)
	if p.metrics != nil {
		p.metrics.MatchSelected(p.opts.Camera)
	}

	snapshot, err := vision.EncodeJPEG(vision.Thumbnail(crop))
	if err != nil {
		slog.Warn("failed to encode match snapshot", "camera", p.opts.Camera, "err", err)
		p.index.ReleasePending(rec.ID)
		return
	}

	ev := reporter.MatchEvent{
		EventID:   uuid.NewString(),
		PersonID:  rec.ID,
		Name:      rec.Name,
		Camera:    p.opts.Camera,
		Snapshot:  snapshot,
		Timestamp: time.Now(),
	}
	if err := p.dispatcher.Dispatch(ctx, ev); err != nil {
		slog.Warn("failed to report match, person stays searchable",
			"camera", p.opts.Camera,
			"id", rec.ID,
			"err", err)
		p.index.ReleasePending(rec.ID)
		if p.metrics != nil {
			p.metrics.ReportFailed()
		}
		return
	}

	slog.Info("match reported", "camera", p.opts.Camera, "id", rec.ID, "event", ev.EventID)
	if p.metrics != nil {
		p.metrics.ReportDelivered()
	}
}

func (p *Pipeline) publishNoSignal() {
	jpeg, err := vision.EncodeJPEG(vision.NoSignalFrame())
	if err != nil {
		slog.Error("failed to encode no-signal frame", "camera", p.opts.Camera, "err", err)
		return
	}
	p.publisher.Publish(p.opts.Camera, jpeg)
}
