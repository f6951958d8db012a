package server

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/vision"
)

const (
	minFacesetImages = 3
	maxFacesetImages = 7
)

type facesetResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Embeddings [][]float32 `json:"embeddings"`
}

type resolveResponse struct {
	Match   bool   `json:"match"`
	Message string `json:"message"`
}

/// verifyFaceset runs the full enrollment verification: image count, exactly
// one face per image, all faces the same person as the first, and no
// duplicate of an already-enrolled person.
func (s *Server) verifyFaceset(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected a multipart form with image files")
	}
	files := form.File["images"]
	if len(files) < minFacesetImages || len(files) > maxFacesetImages {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Invalid number of images. Expected %d-%d, got %d.", minFacesetImages, maxFacesetImages, len(files)))
	}

	ctx := c.Request().Context()
	embeddings := make([][]float32, 0, len(files))
	for idx, fh := range files {
		img, err := s.readUpload(fh)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("Could not decode image %d (%s).", idx+1, fh.Filename))
		}

		faces, err := s.analyzer.DetectFaces(ctx, img)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError,
				fmt.Sprintf("Error processing image %d: %v", idx+1, err))
		}
		if len(faces) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("No face detected in image %d (%s).", idx+1, fh.Filename))
		}
		if len(faces) > 1 {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("More than one face detected in image %d (%s).", idx+1, fh.Filename))
		}
		embeddings = append(embeddings, faces[0].Embedding)
	}

	// Same-person check is reference-based: every face against the first.
	thresholds := s.profile.Thresholds()
	reference := embeddings[0]
	for i := 1; i < len(embeddings); i++ {
		if facematch.Similarity(reference, embeddings[i]) < thresholds.Verify {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("The face in image %d does not appear to be the same person as in the first image.", i+1))
		}
	}

	for _, rec := range s.index.Snapshot() {
		if facematch.Similarity(reference, rec.Vector) > thresholds.Duplicate {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("This person appears to be a duplicate of '%s' who is already in the system.", rec.Name))
		}
	}

	return c.JSON(http.StatusOK, facesetResponse{
		Success:    true,
		Message:    "Verification successful.",
		Embeddings: embeddings,
	})
}

// verifyResolvePhoto checks one photo against a previously stored set of
// reference embeddings. Only the first stored embedding is compared.
func (s *Server) verifyResolvePhoto(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Image file is required.")
	}
	img, err := s.readUpload(fh)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid image file.")
	}

	faces, err := s.analyzer.DetectFaces(c.Request().Context(), img)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError,
			fmt.Sprintf("An internal error occurred in the AI service: %v", err))
	}
	if len(faces) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No face was detected in the submitted photo.")
	}
	if len(faces) > 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "Multiple faces were detected.")
	}

	var stored [][]float32
	if err := json.Unmarshal([]byte(c.FormValue("embeddings_str")), &stored); err != nil || len(stored) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Original embeddings not provided.")
	}

	similarity := facematch.Similarity(faces[0].Embedding, stored[0])
	if similarity > s.profile.Thresholds().Verify {
		return c.JSON(http.StatusOK, resolveResponse{
			Match:   true,
			Message: "Verification successful. Faces match.",
		})
	}
	return c.JSON(http.StatusOK, resolveResponse{
		Match:   false,
		Message: "Verification failed. The person in the photo does not match.",
	})
}

// readUpload decodes an uploaded image and resizes it for inference.
func (s *Server) readUpload(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	img, err := vision.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return vision.ResizeMax(img, s.profile.MaxImageSize), nil
}
