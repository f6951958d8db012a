package vision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteAnalyzerDetectFaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect_faces", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("image")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"faces":[{"box":[1,2,30,40],"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer(srv.URL, time.Second)
	faces, err := a.DetectFaces(context.Background(), testImage(64, 64))
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, 1, faces[0].Box.Min.X)
	assert.Equal(t, 40, faces[0].Box.Max.Y)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, faces[0].Embedding)
}

func TestRemoteAnalyzerDetectPersons(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect_persons", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"boxes":[[0,0,10,20],[5,5,15,25]]}`))
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer(srv.URL, time.Second)
	boxes, err := a.DetectPersons(context.Background(), testImage(64, 64))
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, 10, boxes[0].Max.X)
}

func TestRemoteAnalyzerNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer(srv.URL, time.Second)
	_, err := a.DetectFaces(context.Background(), testImage(8, 8))
	assert.Error(t, err)
}

func TestRemoteAnalyzerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"faces":[]}`))
	}))
	defer srv.Close()

	a := NewRemoteAnalyzer(srv.URL, 20*time.Millisecond)
	_, err := a.DetectFaces(context.Background(), testImage(8, 8))
	assert.Error(t, err)
}
