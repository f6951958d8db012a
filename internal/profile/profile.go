// Package profile holds the runtime configuration of the vision service.
package profile

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
)

// Profile is configuration to start the main server. All business
// thresholds live here; component logic never hardcodes them.
type Profile struct {
	// Mode is "prod", "dev", or "demo".
	Mode string
	// Addr is the bind address of the HTTP server.
	Addr string
	// Port is the bind port of the HTTP server.
	Port int

	// MongoURI is the record store connection string.
	MongoURI string
	// ReportURL is the case-management endpoint receiving match reports.
	ReportURL string
	// InferenceURL is the base URL of the detection/embedding provider.
	InferenceURL string

	// Cameras are the configured camera source specs, in display order.
	Cameras []string

	// MatchThreshold is the live-camera candidate similarity cutoff.
	MatchThreshold float64
	// VerifyThreshold is the same-person similarity cutoff.
	VerifyThreshold float64
	// DuplicateThreshold is the duplicate-enrollment similarity cutoff.
	DuplicateThreshold float64

	// DetectionInterval runs detect-and-match on every Nth frame.
	DetectionInterval int
	// MaxImageSize is the longest side allowed before preprocessing
	// resizes an uploaded image.
	MaxImageSize int

	// Version is the service version string.
	Version string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Thresholds converts the configured cutoffs into the matching core's type.
func (p *Profile) Thresholds() facematch.Thresholds {
	return facematch.Thresholds{
		Match:     float32(p.MatchThreshold),
		Verify:    float32(p.VerifyThreshold),
		Duplicate: float32(p.DuplicateThreshold),
	}
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables, filling only
// fields that are still zero-valued so flags keep precedence.
func (p *Profile) FromEnv() {
	if p.MongoURI == "" {
		p.MongoURI = getEnvOrDefault("RAKSHAK_MONGO_URI", "")
	}
	if p.ReportURL == "" {
		p.ReportURL = getEnvOrDefault("RAKSHAK_REPORT_URL", "")
	}
	if p.InferenceURL == "" {
		p.InferenceURL = getEnvOrDefault("RAKSHAK_INFERENCE_URL", "")
	}
	if len(p.Cameras) == 0 {
		p.Cameras = SplitCameraList(getEnvOrDefault("RAKSHAK_CAMERAS", ""))
	}
	if p.MatchThreshold == 0 {
		p.MatchThreshold = getEnvOrDefaultFloat("RAKSHAK_MATCH_THRESHOLD", 0.5)
	}
	if p.VerifyThreshold == 0 {
		p.VerifyThreshold = getEnvOrDefaultFloat("RAKSHAK_VERIFY_THRESHOLD", 0.6)
	}
	if p.DuplicateThreshold == 0 {
		p.DuplicateThreshold = getEnvOrDefaultFloat("RAKSHAK_DUPLICATE_THRESHOLD", 0.7)
	}
	if p.DetectionInterval == 0 {
		p.DetectionInterval = getEnvOrDefaultInt("RAKSHAK_DETECTION_INTERVAL", 10)
	}
	if p.MaxImageSize == 0 {
		p.MaxImageSize = getEnvOrDefaultInt("RAKSHAK_MAX_IMAGE_SIZE", 800)
	}
}

// SplitCameraList parses a comma-separated camera source list, dropping
// empty entries.
func SplitCameraList(value string) []string {
	var cameras []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			cameras = append(cameras, part)
		}
	}
	return cameras
}

// Validate checks that the profile can start the service.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.MongoURI == "" {
		return errors.New("mongo uri is required")
	}
	if p.ReportURL == "" {
		return errors.New("report url is required")
	}
	if p.InferenceURL == "" {
		return errors.New("inference url is required")
	}
	for name, v := range map[string]float64{
		"match":     p.MatchThreshold,
		"verify":    p.VerifyThreshold,
		"duplicate": p.DuplicateThreshold,
	} {
		if v <= -1 || v >= 1 {
			return errors.Errorf("%s threshold %v is outside (-1, 1)", name, v)
		}
	}
	if p.DetectionInterval <= 0 {
		return errors.Errorf("detection interval must be positive, got %d", p.DetectionInterval)
	}
	if p.MaxImageSize <= 0 {
		return errors.Errorf("max image size must be positive, got %d", p.MaxImageSize)
	}
	return nil
}
