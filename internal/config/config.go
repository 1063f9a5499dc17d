// Package config holds runtime configuration for the editor and CLI tools.
// Values come from an optional JSON file and are then overridden by
// FLOORPLAN_* environment variables.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"floorplan-editor/internal/ocr"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FLOORPLAN_"

// OCR backends.
const (
	BackendVision    = "vision"
	BackendTesseract = "tesseract"
)

// Config holds runtime configuration.
type Config struct {
	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`

	OCR struct {
		Backend        string      `json:"backend"`
		Languages      string      `json:"languages"`
		TimeoutSeconds int         `json:"timeout_seconds"`
		VisionEndpoint string      `json:"vision_endpoint"`
		VisionAPIKey   string      `json:"vision_api_key,omitempty"`
		Clustering     ocr.Options `json:"clustering"`
	} `json:"ocr"`

	UndoDepth int `json:"undo_depth"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	c := &Config{}
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.OCR.Backend = BackendVision
	c.OCR.Languages = ocr.DefaultLanguages
	c.OCR.TimeoutSeconds = int(ocr.DefaultTimeout / time.Second)
	c.OCR.VisionEndpoint = ocr.DefaultVisionEndpoint
	c.OCR.Clustering = ocr.DefaultOptions()
	c.UndoDepth = 50
	return c
}

// Timeout returns the OCR timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.OCR.TimeoutSeconds) * time.Second
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "console":
	default:
		c.Log.Format = "console"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	switch c.OCR.Backend {
	case BackendVision, BackendTesseract:
	default:
		c.OCR.Backend = BackendVision
	}
	if c.OCR.Languages == "" {
		c.OCR.Languages = ocr.DefaultLanguages
	}
	if c.OCR.TimeoutSeconds <= 0 || c.OCR.TimeoutSeconds > 600 {
		c.OCR.TimeoutSeconds = int(ocr.DefaultTimeout / time.Second)
	}
	if c.OCR.VisionEndpoint == "" {
		c.OCR.VisionEndpoint = ocr.DefaultVisionEndpoint
	}

	def := ocr.DefaultOptions()
	o := &c.OCR.Clustering
	positive(&o.RepairMaxDX, def.RepairMaxDX)
	positive(&o.RepairMaxDY, def.RepairMaxDY)
	positive(&o.AlignMaxDX, def.AlignMaxDX)
	positive(&o.NeighborMaxDX, def.NeighborMaxDX)
	positive(&o.NeighborMaxDY, def.NeighborMaxDY)
	if o.Tolerance < 0 {
		o.Tolerance = def.Tolerance
	}
	if o.OverlapThreshold <= 0 || o.OverlapThreshold > 1 {
		o.OverlapThreshold = def.OverlapThreshold
	}
	if o.UtilityPrefixes == nil {
		o.UtilityPrefixes = def.UtilityPrefixes
	}
	if o.UtilityKeywords == nil {
		o.UtilityKeywords = def.UtilityKeywords
	}
	if o.OfficeKeywords == nil {
		o.OfficeKeywords = def.OfficeKeywords
	}
	if o.SpecialKeywords == nil {
		o.SpecialKeywords = def.SpecialKeywords
	}

	if c.UndoDepth < 1 {
		c.UndoDepth = 1
	}
	if c.UndoDepth > 1000 {
		c.UndoDepth = 1000
	}
	return nil
}

func positive(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}

// Load reads configuration from the given JSON file path, then applies
// environment overrides. A missing file or empty path yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := json.NewDecoder(f).Decode(cfg); err != nil {
				return cfg, err
			}
		case !os.IsNotExist(err):
			return cfg, err
		}
	}
	cfg.LoadFromEnv(EnvPrefix)
	_ = cfg.Validate()
	return cfg, nil
}

// LoadFromEnv overrides fields from environment variables named
// prefix+KEY. Unset or unparsable variables leave the field unchanged.
func (c *Config) LoadFromEnv(prefix string) {
	c.Log.Level = getEnv(prefix+"LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv(prefix+"LOG_FORMAT", c.Log.Format)
	c.OCR.Backend = getEnv(prefix+"OCR_BACKEND", c.OCR.Backend)
	c.OCR.Languages = getEnv(prefix+"OCR_LANGUAGES", c.OCR.Languages)
	c.OCR.TimeoutSeconds = getEnvAsInt(prefix+"OCR_TIMEOUT", c.OCR.TimeoutSeconds)
	c.OCR.VisionEndpoint = getEnv(prefix+"VISION_ENDPOINT", c.OCR.VisionEndpoint)
	c.OCR.VisionAPIKey = getEnv(prefix+"VISION_API_KEY", c.OCR.VisionAPIKey)
	c.UndoDepth = getEnvAsInt(prefix+"UNDO_DEPTH", c.UndoDepth)
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
