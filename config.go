package catalogpix

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of the tunable configuration surface.
// Injected dependencies (HTTP clients, metrics, callbacks) are not part of
// the file and stay caller-supplied.
type fileConfig struct {
	BaseDir          string `yaml:"base_dir"`
	UserAgent        string `yaml:"user_agent"`
	Concurrency      int    `yaml:"concurrency"`
	MaxImagesPerItem int    `yaml:"max_images_per_item"`
	PolitenessDelay  string `yaml:"politeness_delay"` // time.ParseDuration format

	RetryAttempts     int     `yaml:"retry_attempts"`
	BackoffBase       string  `yaml:"backoff_base"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	MaxBackoff        string  `yaml:"max_backoff"`
	DownloadTimeout   string  `yaml:"download_timeout"`
	MaxBytes          int64   `yaml:"max_bytes"`
	MinBytes          int     `yaml:"min_bytes"`
	SkipProbe         bool    `yaml:"skip_probe"`

	Profile string `yaml:"profile"` // relaxed | strict | speed
	Quality *struct {
		MinDimension           int            `yaml:"min_dimension"`
		MaxDimension           int            `yaml:"max_dimension"`
		MinAspect              float64        `yaml:"min_aspect"`
		MaxAspect              float64        `yaml:"max_aspect"`
		BackgroundCheck        bool           `yaml:"background_check"`
		BackgroundWhiteLevel   uint8          `yaml:"background_white_level"`
		BackgroundPlainRatio   float64        `yaml:"background_plain_ratio"`
		WatermarkCheck         bool           `yaml:"watermark_check"`
		WatermarkContrastRatio float64        `yaml:"watermark_contrast_ratio"`
		SharpnessFloor         float64        `yaml:"sharpness_floor"`
		Weights                QualityWeights `yaml:"weights"`
	} `yaml:"quality"`

	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
	MatchThreshold     float64 `yaml:"match_threshold"`
	PerfectThreshold   float64 `yaml:"perfect_threshold"`

	NotSureSuffix string `yaml:"not_sure_suffix"`
	NoImageSuffix string `yaml:"no_image_suffix"`
	WriteSidecar  bool   `yaml:"write_sidecar"`

	TrustedSources  []string `yaml:"trusted_sources"`
	LowTrustSources []string `yaml:"low_trust_sources"`
}

// LoadConfig reads a YAML config file into a Config, validating threshold
// ranges. Fields absent from the file keep their zero value and are filled
// by defaults() at run time.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	profile, err := parseProfile(fc.Profile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseDir:            fc.BaseDir,
		UserAgent:          fc.UserAgent,
		Concurrency:        fc.Concurrency,
		MaxImagesPerItem:   fc.MaxImagesPerItem,
		RetryAttempts:      fc.RetryAttempts,
		BackoffMultiplier:  fc.BackoffMultiplier,
		MaxBytes:           fc.MaxBytes,
		MinBytes:           fc.MinBytes,
		SkipProbe:          fc.SkipProbe,
		Profile:            profile,
		DuplicateThreshold: fc.DuplicateThreshold,
		MatchThreshold:     fc.MatchThreshold,
		PerfectThreshold:   fc.PerfectThreshold,
		NotSureSuffix:      fc.NotSureSuffix,
		NoImageSuffix:      fc.NoImageSuffix,
		WriteSidecar:       fc.WriteSidecar,
		TrustedSources:     fc.TrustedSources,
		LowTrustSources:    fc.LowTrustSources,
	}

	for name, d := range map[string]struct {
		raw  string
		dest *time.Duration
	}{
		"politeness_delay": {fc.PolitenessDelay, &cfg.PolitenessDelay},
		"backoff_base":     {fc.BackoffBase, &cfg.BackoffBase},
		"max_backoff":      {fc.MaxBackoff, &cfg.MaxBackoff},
		"download_timeout": {fc.DownloadTimeout, &cfg.DownloadTimeout},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
		*d.dest = v
	}

	if q := fc.Quality; q != nil {
		cfg.Quality = QualityThresholds{
			MinDimension:           q.MinDimension,
			MaxDimension:           q.MaxDimension,
			MinAspect:              q.MinAspect,
			MaxAspect:              q.MaxAspect,
			BackgroundCheck:        q.BackgroundCheck,
			BackgroundWhiteLevel:   q.BackgroundWhiteLevel,
			BackgroundPlainRatio:   q.BackgroundPlainRatio,
			WatermarkCheck:         q.WatermarkCheck,
			WatermarkContrastRatio: q.WatermarkContrastRatio,
			SharpnessFloor:         q.SharpnessFloor,
			Weights:                q.Weights,
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseProfile(s string) (QualityProfile, error) {
	switch s {
	case "", "relaxed":
		return ProfileRelaxed, nil
	case "strict":
		return ProfileStrict, nil
	case "speed":
		return ProfileSpeed, nil
	default:
		return ProfileRelaxed, fmt.Errorf("unknown quality profile %q", s)
	}
}

func validateConfig(cfg *Config) error {
	for name, v := range map[string]float64{
		"duplicate_threshold": cfg.DuplicateThreshold,
		"match_threshold":     cfg.MatchThreshold,
		"perfect_threshold":   cfg.PerfectThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}

	if !cfg.Quality.isZero() {
		w := cfg.Quality.Weights
		sum := w.Geometry + w.Background + w.Watermark + w.Sharpness
		if math.Abs(sum-1.0) > 1e-6 {
			return fmt.Errorf("quality weights must sum to 1, got %v", sum)
		}
		if cfg.Quality.MinDimension > cfg.Quality.MaxDimension {
			return fmt.Errorf("quality min_dimension %d exceeds max_dimension %d",
				cfg.Quality.MinDimension, cfg.Quality.MaxDimension)
		}
		if cfg.Quality.MinAspect > cfg.Quality.MaxAspect {
			return fmt.Errorf("quality min_aspect %v exceeds max_aspect %v",
				cfg.Quality.MinAspect, cfg.Quality.MaxAspect)
		}
	}
	return nil
}
