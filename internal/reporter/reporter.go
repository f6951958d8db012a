// Package reporter delivers match reports to the case-management endpoint.
// Delivery is best-effort: a failed dispatch is returned to the caller, who
// rolls back the pending claim so the next detection cycle retries naturally.
// There is no retry queue.
package reporter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// defaultTimeout bounds a single report request. Reports are rare relative
// to frame rate, so the pipeline blocks on dispatch within the frame step.
const defaultTimeout = 5 * time.Second

// MatchEvent is one detected match, constructed by a camera pipeline and
// consumed exactly once by the dispatcher. It is never persisted.
type MatchEvent struct {
	// EventID identifies this detection for logging.
	EventID string
	// PersonID is the record store's primary key for the matched person.
	PersonID string
	// Name is the person's display name.
	Name string
	// Camera labels the source camera.
	Camera string
	// Snapshot is the JPEG thumbnail of the matched face crop.
	Snapshot []byte
	// Timestamp is when the match was selected.
	Timestamp time.Time
}

type reportPayload struct {
	MongoID    string `json:"mongo_id"`
	Name       string `json:"name"`
	Snapshot   string `json:"snapshot"`
	CameraName string `json:"camera_name"`
}

// Dispatcher posts match events to the downstream report endpoint.
type Dispatcher struct {
	endpoint string
	client   *http.Client
}

// NewDispatcher creates a dispatcher for the given endpoint URL. A
// non-positive timeout falls back to the default.
func NewDispatcher(endpoint string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Dispatch posts the event. Any non-2xx status, timeout, or transport error
// is returned as a failure; the caller must roll the person back to
// searchable so the match stays reportable.
func (d *Dispatcher) Dispatch(ctx context.Context, ev MatchEvent) error {
	body, err := json.Marshal(reportPayload{
		MongoID:    ev.PersonID,
		Name:       ev.Name,
		Snapshot:   base64.StdEncoding.EncodeToString(ev.Snapshot),
		CameraName: ev.Camera,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to marshal match report for %s", ev.PersonID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrapf(err, "failed to construct match report to %s", d.endpoint)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post match report to %s", d.endpoint)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read report response from %s", d.endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("report endpoint %s returned status %d: %s", d.endpoint, resp.StatusCode, b)
	}
	return nil
}
