package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clear environment
	envVars := []string{
		"HTTP_ADDR", "LOG_LEVEL", "CAPTURE_RATE", "OCR_ENGINE", "OCR_ADDR",
		"OCR_LANG", "OCR_TIMEOUT", "MATCH_THRESHOLD", "MAX_MISSED_FRAMES",
		"IDLE_SIMILARITY", "BUSY_SIMILARITY", "DEDUP_SIMILARITY",
		"QUEUE_SIZE", "AUTOPLAY_ENABLED", "MUTE_SPEAKERS",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	// Check defaults
	if cfg.HTTPAddr != ":8750" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8750")
	}
	if cfg.CaptureRate != 15.0 {
		t.Errorf("CaptureRate = %f, want %f", cfg.CaptureRate, 15.0)
	}
	if cfg.OCREngine != "tesseract" {
		t.Errorf("OCREngine = %q, want %q", cfg.OCREngine, "tesseract")
	}
	if cfg.OCRTimeout != 8*time.Second {
		t.Errorf("OCRTimeout = %v, want %v", cfg.OCRTimeout, 8*time.Second)
	}
	if cfg.MatchThreshold != 0.93 {
		t.Errorf("MatchThreshold = %f, want %f", cfg.MatchThreshold, 0.93)
	}
	if cfg.MaxMissedFrames != 3 {
		t.Errorf("MaxMissedFrames = %d, want %d", cfg.MaxMissedFrames, 3)
	}
	if cfg.BusySimilarity != 0.99 {
		t.Errorf("BusySimilarity = %f, want %f", cfg.BusySimilarity, 0.99)
	}
	if cfg.DedupSimilarity != 0.95 {
		t.Errorf("DedupSimilarity = %f, want %f", cfg.DedupSimilarity, 0.95)
	}
	if cfg.QueueSize != 32 {
		t.Errorf("QueueSize = %d, want %d", cfg.QueueSize, 32)
	}
	if !cfg.AutoplayEnabled {
		t.Error("AutoplayEnabled should default to true")
	}
	if len(cfg.MuteSpeakers) != 0 {
		t.Errorf("MuteSpeakers should default empty, got %v", cfg.MuteSpeakers)
	}
}

func TestLoadWithEnv(t *testing.T) {
	os.Setenv("HTTP_ADDR", ":9100")
	os.Setenv("CAPTURE_RATE", "10")
	os.Setenv("OCR_ENGINE", "http")
	os.Setenv("OCR_TIMEOUT", "3s")
	os.Setenv("DEDUP_SIMILARITY", "0.9")
	os.Setenv("AUTOPLAY_ENABLED", "false")
	os.Setenv("MUTE_SPEAKERS", "Narrator, System")
	defer func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("CAPTURE_RATE")
		os.Unsetenv("OCR_ENGINE")
		os.Unsetenv("OCR_TIMEOUT")
		os.Unsetenv("DEDUP_SIMILARITY")
		os.Unsetenv("AUTOPLAY_ENABLED")
		os.Unsetenv("MUTE_SPEAKERS")
	}()

	cfg := Load()

	if cfg.HTTPAddr != ":9100" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9100")
	}
	if cfg.CaptureRate != 10 {
		t.Errorf("CaptureRate = %f, want %f", cfg.CaptureRate, 10.0)
	}
	if cfg.OCREngine != "http" {
		t.Errorf("OCREngine = %q, want %q", cfg.OCREngine, "http")
	}
	if cfg.OCRTimeout != 3*time.Second {
		t.Errorf("OCRTimeout = %v, want %v", cfg.OCRTimeout, 3*time.Second)
	}
	if cfg.DedupSimilarity != 0.9 {
		t.Errorf("DedupSimilarity = %f, want %f", cfg.DedupSimilarity, 0.9)
	}
	if cfg.AutoplayEnabled {
		t.Error("AutoplayEnabled should be false")
	}
	if len(cfg.MuteSpeakers) != 2 || cfg.MuteSpeakers[0] != "Narrator" || cfg.MuteSpeakers[1] != "System" {
		t.Errorf("MuteSpeakers = %v, want [Narrator System]", cfg.MuteSpeakers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero capture rate", func(c *Config) { c.CaptureRate = 0 }, true},
		{"unknown engine", func(c *Config) { c.OCREngine = "gpu" }, true},
		{"threshold above one", func(c *Config) { c.MatchThreshold = 1.5 }, true},
		{"negative dedup", func(c *Config) { c.DedupSimilarity = -0.1 }, true},
		{"idle above busy", func(c *Config) { c.IdleSimilarity = 0.995 }, true},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	os.Setenv("TEST_STRING", "hello")
	defer os.Unsetenv("TEST_STRING")
	if v := getEnv("TEST_STRING", "default"); v != "hello" {
		t.Errorf("getEnv = %q, want %q", v, "hello")
	}
	if v := getEnv("NONEXISTENT", "default"); v != "default" {
		t.Errorf("getEnv = %q, want %q", v, "default")
	}

	os.Setenv("TEST_INT", "42")
	defer os.Unsetenv("TEST_INT")
	if v := getEnvInt("TEST_INT", 0); v != 42 {
		t.Errorf("getEnvInt = %d, want %d", v, 42)
	}
	os.Setenv("TEST_INT_INVALID", "not-a-number")
	defer os.Unsetenv("TEST_INT_INVALID")
	if v := getEnvInt("TEST_INT_INVALID", 100); v != 100 {
		t.Errorf("getEnvInt with invalid = %d, want %d", v, 100)
	}

	os.Setenv("TEST_FLOAT", "3.14")
	defer os.Unsetenv("TEST_FLOAT")
	if v := getEnvFloat("TEST_FLOAT", 0.0); v != 3.14 {
		t.Errorf("getEnvFloat = %f, want %f", v, 3.14)
	}

	os.Setenv("TEST_BOOL_ONE", "1")
	defer os.Unsetenv("TEST_BOOL_ONE")
	if !getEnvBool("TEST_BOOL_ONE", false) {
		t.Error("getEnvBool should return true for '1'")
	}
	if !getEnvBool("NONEXISTENT", true) {
		t.Error("getEnvBool should return default true")
	}

	os.Setenv("TEST_DURATION", "250ms")
	defer os.Unsetenv("TEST_DURATION")
	if v := getEnvDuration("TEST_DURATION", time.Second); v != 250*time.Millisecond {
		t.Errorf("getEnvDuration = %v, want %v", v, 250*time.Millisecond)
	}
	os.Setenv("TEST_DURATION_INVALID", "soon")
	defer os.Unsetenv("TEST_DURATION_INVALID")
	if v := getEnvDuration("TEST_DURATION_INVALID", time.Second); v != time.Second {
		t.Errorf("getEnvDuration with invalid = %v, want %v", v, time.Second)
	}
}
