package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gateway-dashboard/internal/analytics"
	"gateway-dashboard/internal/dataset"
)

const (
	VariantFull     = "full"
	VariantBasic    = "basic"
	VariantFeatures = "features"
)

type Config struct {
	// HTTP
	Port    string
	LogMode string

	// Data sources
	DataDir     string
	Variant     string
	SourcesFile string
	Sources     dataset.Sources

	// Dashboard defaults
	DefaultThreshold float64
	HistogramBins    int

	// Report cache
	RedisAddr string
	CacheTTL  time.Duration
}

// Load reads configuration from the environment, after applying a .env file
// when one exists. Source paths come from the variant preset, then the
// optional YAML sources file, then explicit *_CSV variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		LogMode: getEnv("LOG_MODE", "dev"),

		DataDir:     getEnv("DATA_DIR", "."),
		Variant:     strings.ToLower(getEnv("VARIANT", VariantFull)),
		SourcesFile: getEnv("SOURCES_FILE", ""),

		DefaultThreshold: getEnvFloat("DEFAULT_THRESHOLD", analytics.DefaultThreshold),
		HistogramBins:    getEnvInt("HISTOGRAM_BINS", analytics.DefaultHistogramBins),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
	}

	sources, err := VariantSources(cfg.Variant, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	if cfg.SourcesFile != "" {
		fromFile, err := LoadSourcesFile(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		sources = fromFile
	}

	sources.Features = lookupPath("FEATURES_CSV", sources.Features)
	sources.CNN = lookupPath("CNN_CSV", sources.CNN)
	sources.Regression = lookupPath("REGRESSION_CSV", sources.Regression)
	sources.Decisions = lookupPath("DECISIONS_CSV", sources.Decisions)
	cfg.Sources = sources

	if err := analytics.ValidateThreshold(cfg.DefaultThreshold); err != nil {
		return nil, fmt.Errorf("DEFAULT_THRESHOLD: %w", err)
	}
	return cfg, nil
}

// VariantSources returns the file layout of a dashboard variant inside dir.
func VariantSources(variant, dir string) (dataset.Sources, error) {
	join := func(name string) string { return filepath.Join(dir, name) }
	switch variant {
	case VariantFull, "":
		return dataset.Sources{
			Features:   join("features_sample.csv"),
			CNN:        join("cnn_predictions.csv"),
			Regression: join("traffic_predictions.csv"),
			Decisions:  join("decisions.csv"),
		}, nil
	case VariantBasic:
		return dataset.Sources{
			Features:  join("features.csv"),
			CNN:       join("cnn_predictions.csv"),
			Decisions: join("decisions.csv"),
		}, nil
	case VariantFeatures:
		return dataset.Sources{
			Features: join("features.csv"),
		}, nil
	default:
		return dataset.Sources{}, fmt.Errorf("unknown variant %q", variant)
	}
}

type sourcesFile struct {
	BaseDir string          `yaml:"base_dir"`
	Sources dataset.Sources `yaml:"sources"`
}

// LoadSourcesFile reads a YAML file of the form
//
//	base_dir: ./data
//	sources:
//	  features: features_sample.csv
//	  cnn: cnn_predictions.csv
//
// Relative paths resolve against base_dir, or the file's own directory.
func LoadSourcesFile(path string) (dataset.Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dataset.Sources{}, fmt.Errorf("failed to read sources file: %w", err)
	}

	var sf sourcesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return dataset.Sources{}, fmt.Errorf("failed to parse sources file: %w", err)
	}

	base := sf.BaseDir
	if base == "" {
		base = filepath.Dir(path)
	} else if !filepath.IsAbs(base) {
		base = filepath.Join(filepath.Dir(path), base)
	}
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return dataset.Sources{
		Features:   resolve(sf.Sources.Features),
		CNN:        resolve(sf.Sources.CNN),
		Regression: resolve(sf.Sources.Regression),
		Decisions:  resolve(sf.Sources.Decisions),
	}, nil
}

// lookupPath lets an explicitly set but empty variable disable a source.
func lookupPath(key, current string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return current
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}
