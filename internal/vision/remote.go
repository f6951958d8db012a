package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const defaultInferenceTimeout = 10 * time.Second

// RemoteAnalyzer talks to an external inference provider over HTTP. It
// implements both PersonDetector and FaceAnalyzer: the provider exposes
// `/detect_persons` and `/detect_faces`, each accepting a multipart JPEG
// upload and answering JSON.
type RemoteAnalyzer struct {
	baseURL string
	client  *http.Client
}

// NewRemoteAnalyzer creates an analyzer for the given provider base URL.
// A non-positive timeout falls back to the default.
func NewRemoteAnalyzer(baseURL string, timeout time.Duration) *RemoteAnalyzer {
	if timeout <= 0 {
		timeout = defaultInferenceTimeout
	}
	return &RemoteAnalyzer{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type faceResponse struct {
	Faces []struct {
		Box       [4]int    `json:"box"`
		Embedding []float32 `json:"embedding"`
	} `json:"faces"`
}

type personResponse struct {
	Boxes [][4]int `json:"boxes"`
}

// DetectFaces sends the image to the provider and returns the detected
// faces with their embeddings.
func (a *RemoteAnalyzer) DetectFaces(ctx context.Context, img image.Image) ([]Face, error) {
	body, err := a.post(ctx, "/detect_faces", img)
	if err != nil {
		return nil, err
	}
	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode face detection response")
	}
	faces := make([]Face, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		faces = append(faces, Face{
			Box:       image.Rect(f.Box[0], f.Box[1], f.Box[2], f.Box[3]),
			Embedding: f.Embedding,
		})
	}
	return faces, nil
}

// DetectPersons sends the frame to the provider and returns person
// bounding boxes.
func (a *RemoteAnalyzer) DetectPersons(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	body, err := a.post(ctx, "/detect_persons", img)
	if err != nil {
		return nil, err
	}
	var resp personResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode person detection response")
	}
	boxes := make([]image.Rectangle, 0, len(resp.Boxes))
	for _, b := range resp.Boxes {
		boxes = append(boxes, image.Rect(b[0], b[1], b[2], b[3]))
	}
	return boxes, nil
}

func (a *RemoteAnalyzer) post(ctx context.Context, path string, img image.Image) ([]byte, error) {
	jpeg, err := EncodeJPEG(img)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create multipart field")
	}
	if _, err := part.Write(jpeg); err != nil {
		return nil, errors.Wrap(err, "failed to write image part")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, &buf)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build inference request %s", path)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "inference request %s failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read inference response from %s", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("inference %s returned status %d: %s", path, resp.StatusCode, body)
	}
	return body, nil
}
