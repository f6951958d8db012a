package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() *Profile {
	return &Profile{
		Mode:               "dev",
		Port:               8000,
		MongoURI:           "mongodb://localhost:27017",
		ReportURL:          "http://localhost:3000/persons/api/report_match",
		InferenceURL:       "http://localhost:8500",
		Cameras:            []string{"http://cam1/stream", "http://cam2/stream"},
		MatchThreshold:     0.5,
		VerifyThreshold:    0.6,
		DuplicateThreshold: 0.7,
		DetectionInterval:  10,
		MaxImageSize:       800,
	}
}

func TestValidateAcceptsCompleteProfile(t *testing.T) {
	require.NoError(t, validProfile().Validate())
}

func TestValidateRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"missing mongo uri", func(p *Profile) { p.MongoURI = "" }},
		{"missing report url", func(p *Profile) { p.ReportURL = "" }},
		{"missing inference url", func(p *Profile) { p.InferenceURL = "" }},
		{"bad port", func(p *Profile) { p.Port = 0 }},
		{"threshold out of range", func(p *Profile) { p.MatchThreshold = 1.5 }},
		{"zero detection interval", func(p *Profile) { p.DetectionInterval = -1 }},
		{"zero max image size", func(p *Profile) { p.MaxImageSize = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestValidateNormalizesUnknownMode(t *testing.T) {
	p := validProfile()
	p.Mode = "staging"
	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
}

func TestFromEnvDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.InDelta(t, 0.5, p.MatchThreshold, 1e-9)
	assert.InDelta(t, 0.6, p.VerifyThreshold, 1e-9)
	assert.InDelta(t, 0.7, p.DuplicateThreshold, 1e-9)
	assert.Equal(t, 10, p.DetectionInterval)
	assert.Equal(t, 800, p.MaxImageSize)
}

func TestFromEnvReadsVariables(t *testing.T) {
	t.Setenv("RAKSHAK_MONGO_URI", "mongodb://db:27017")
	t.Setenv("RAKSHAK_CAMERAS", "http://a/stream, http://b/stream,")
	t.Setenv("RAKSHAK_MATCH_THRESHOLD", "0.42")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "mongodb://db:27017", p.MongoURI)
	assert.Equal(t, []string{"http://a/stream", "http://b/stream"}, p.Cameras)
	assert.InDelta(t, 0.42, p.MatchThreshold, 1e-9)
}

func TestFromEnvKeepsExplicitValues(t *testing.T) {
	t.Setenv("RAKSHAK_MONGO_URI", "mongodb://env:27017")

	p := &Profile{MongoURI: "mongodb://flag:27017"}
	p.FromEnv()

	// Flags take precedence over environment.
	assert.Equal(t, "mongodb://flag:27017", p.MongoURI)
}

func TestSplitCameraList(t *testing.T) {
	assert.Nil(t, SplitCameraList(""))
	assert.Equal(t, []string{"a"}, SplitCameraList("a"))
	assert.Equal(t, []string{"a", "b"}, SplitCameraList(" a , b ,,"))
}

func TestThresholdsConversion(t *testing.T) {
	p := validProfile()
	th := p.Thresholds()
	assert.Equal(t, float32(0.5), th.Match)
	assert.Equal(t, float32(0.6), th.Verify)
	assert.Equal(t, float32(0.7), th.Duplicate)
}
