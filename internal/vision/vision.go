// Package vision defines the contracts for the external vision capabilities
// the service consumes (camera sources, person detection, face embedding)
// and the image plumbing shared by the pipelines and the HTTP handlers.
//
// Detection and embedding are opaque capability providers: given an image
// region they return zero or more faces, each with a fixed-length embedding.
// The service never looks inside them.
package vision

import (
	"context"
	"image"
)

// Face is one detected face within an image, with its embedding.
type Face struct {
	// Box is the face bounding box in the coordinates of the analyzed image.
	Box image.Rectangle
	// Embedding is the fixed-length face embedding vector.
	Embedding []float32
}

// FaceAnalyzer detects faces and computes their embeddings.
type FaceAnalyzer interface {
	DetectFaces(ctx context.Context, img image.Image) ([]Face, error)
}

// PersonDetector finds person bounding boxes in a full frame.
type PersonDetector interface {
	DetectPersons(ctx context.Context, img image.Image) ([]image.Rectangle, error)
}

// Source is a single camera stream. Open may fail permanently (camera absent
// at startup); Read failures mid-stream are transient and the caller reopens.
type Source interface {
	Open() error
	Read() (image.Image, error)
	Close() error
}

// SourceFactory builds a Source from a configured camera spec, letting the
// pipeline construct a fresh source when it reopens after a read failure.
type SourceFactory func(spec string) Source
