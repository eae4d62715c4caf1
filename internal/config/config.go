// Package config handles watcher configuration
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperr "gamewatcher/internal/errors"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	CaptureRate float64 // Hz
	CaptureTool string  // override for the platform screenshot command

	OCREngine  string // "tesseract" or "http"
	OCRAddr    string // HTTP sidecar base URL
	OCRLang    string
	OCRTimeout time.Duration

	MatchThreshold  float64 // template correlation cutoff
	MaxMissedFrames int     // cached-region misses before a full search
	IdleSimilarity  float64 // loose gate threshold before promotion
	BusySimilarity  float64 // strict gate threshold once settled
	DedupSimilarity float64 // edit-distance ratio treated as duplicate
	HistorySize     int     // recent dialogue lines kept for the API

	PackPath    string
	CatalogPath string // overrides the pack manifest's catalog when set
	SessionDir  string

	QueueSize        int
	MasterVolume     float64 // dB offset applied after all effects
	AutoplayEnabled  bool
	AutoplayCooldown float64 // seconds
	MuteSpeakers     []string
}

func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8750"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CaptureRate: getEnvFloat("CAPTURE_RATE", 15.0),
		CaptureTool: getEnv("CAPTURE_TOOL", ""),

		OCREngine:  getEnv("OCR_ENGINE", "tesseract"),
		OCRAddr:    getEnv("OCR_ADDR", "http://localhost:8800"),
		OCRLang:    getEnv("OCR_LANG", "eng"),
		OCRTimeout: getEnvDuration("OCR_TIMEOUT", 8*time.Second),

		MatchThreshold:  getEnvFloat("MATCH_THRESHOLD", 0.93),
		MaxMissedFrames: getEnvInt("MAX_MISSED_FRAMES", 3),
		IdleSimilarity:  getEnvFloat("IDLE_SIMILARITY", 0.90),
		BusySimilarity:  getEnvFloat("BUSY_SIMILARITY", 0.99),
		DedupSimilarity: getEnvFloat("DEDUP_SIMILARITY", 0.95),
		HistorySize:     getEnvInt("HISTORY_SIZE", 200),

		PackPath:    getEnv("PACK_PATH", "voicepack.toml"),
		CatalogPath: getEnv("CATALOG_PATH", ""),
		SessionDir:  getEnv("SESSION_DIR", "sessions"),

		QueueSize:        getEnvInt("QUEUE_SIZE", 32),
		MasterVolume:     getEnvFloat("MASTER_VOLUME", 0.0),
		AutoplayEnabled:  getEnvBool("AUTOPLAY_ENABLED", true),
		AutoplayCooldown: getEnvFloat("AUTOPLAY_COOLDOWN", 0.0),
		MuteSpeakers:     getEnvList("MUTE_SPEAKERS", nil),
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.CaptureRate <= 0 {
		return apperr.Newf(apperr.ConfigInvalid, "capture rate must be positive, got %v", c.CaptureRate)
	}
	if c.OCREngine != "tesseract" && c.OCREngine != "http" {
		return apperr.Newf(apperr.ConfigInvalid, "unknown OCR engine %q", c.OCREngine)
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return apperr.Newf(apperr.ConfigInvalid, "match threshold must be in (0,1], got %v", c.MatchThreshold)
	}
	if c.DedupSimilarity < 0 || c.DedupSimilarity > 1 {
		return apperr.Newf(apperr.ConfigInvalid, "dedup similarity must be in [0,1], got %v", c.DedupSimilarity)
	}
	if c.IdleSimilarity > c.BusySimilarity {
		return apperr.Newf(apperr.ConfigInvalid, "idle similarity %v above busy similarity %v", c.IdleSimilarity, c.BusySimilarity)
	}
	if c.QueueSize <= 0 {
		return apperr.Newf(apperr.ConfigInvalid, "queue size must be positive, got %d", c.QueueSize)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
