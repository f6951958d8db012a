package vision

import (
	"image"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"
)

// MJPEGSource reads frames from a network camera publishing an MJPEG
// stream (multipart/x-mixed-replace, one JPEG per part).
type MJPEGSource struct {
	url    string
	client *http.Client
	body   io.ReadCloser
	reader *multipart.Reader
}

// NewMJPEGSource creates a source for the given stream URL. The connection
// is not established until Open.
func NewMJPEGSource(url string) *MJPEGSource {
	// No client timeout: the stream is intentionally endless. Stalled
	// connections surface as Read errors and trigger a reopen upstream.
	return &MJPEGSource{url: url, client: &http.Client{}}
}

// Open connects to the camera and prepares the multipart reader.
func (s *MJPEGSource) Open() error {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to camera %s", s.url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return errors.Errorf("camera %s returned status %d", s.url, resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || params["boundary"] == "" {
		resp.Body.Close()
		return errors.Errorf("camera %s sent unusable content type %q", s.url, mediaType)
	}

	s.body = resp.Body
	s.reader = multipart.NewReader(resp.Body, params["boundary"])
	return nil
}

// Read returns the next decoded frame from the stream.
func (s *MJPEGSource) Read() (image.Image, error) {
	if s.reader == nil {
		return nil, errors.New("camera stream is not open")
	}
	part, err := s.reader.NextPart()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read frame from %s", s.url)
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read frame body from %s", s.url)
	}
	return DecodeImage(data)
}

// Close releases the stream connection. Safe to call when not open.
func (s *MJPEGSource) Close() error {
	s.reader = nil
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

// DefaultSourceFactory builds MJPEG sources from configured camera URLs.
func DefaultSourceFactory(spec string) Source {
	return NewMJPEGSource(spec)
}
