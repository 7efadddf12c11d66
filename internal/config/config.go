// Package config loads the command line configuration.
//
// Configuration precedence (highest to lowest):
//  1. Command line flags (applied by the caller)
//  2. LEADREC_* environment variables
//  3. YAML config file
//  4. Defaults
//
// Environment variables drop the prefix and split on the first underscore:
//
//	LEADREC_RANKER_BATCH_SIZE -> ranker.batch_size
//	LEADREC_LOG_LEVEL         -> log.level
//	LEADREC_METRICS_FILE      -> metrics.file
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/hupe1980/leadrec/distance"
	"github.com/hupe1980/leadrec/internal/logging"
	"github.com/hupe1980/leadrec/tfidf"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LEADREC_"

// EnvConfigFile names the config file when no path is passed to Load.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Config is the complete CLI configuration.
type Config struct {
	Log        logging.Config   `koanf:"log"`
	Data       DataConfig       `koanf:"data"`
	Vectorizer VectorizerConfig `koanf:"vectorizer"`
	Ranker     RankerConfig     `koanf:"ranker"`
	Evaluate   EvaluateConfig   `koanf:"evaluate"`
	Artifact   ArtifactConfig   `koanf:"artifact"`
	Store      StoreConfig      `koanf:"store"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// DataConfig describes the CSV inputs.
type DataConfig struct {
	// Schema is a schema YAML file. Empty selects the embedded market schema.
	Schema   string `koanf:"schema"`
	IDColumn string `koanf:"id_column" validate:"required"`
	Comma    string `koanf:"comma" validate:"len=1"`
	// MissingThreshold overrides the schema threshold when set.
	MissingThreshold *float64 `koanf:"missing_threshold" validate:"omitempty,gte=0,lte=1"`
}

// VectorizerConfig mirrors tfidf.Params.
type VectorizerConfig struct {
	Lowercase   bool    `koanf:"lowercase"`
	NGramMin    int     `koanf:"ngram_min" validate:"min=1"`
	NGramMax    int     `koanf:"ngram_max" validate:"gtefield=NGramMin"`
	MaxDF       float64 `koanf:"max_df" validate:"gte=0,lte=1"`
	MinDF       int     `koanf:"min_df" validate:"gte=0"`
	MaxFeatures int     `koanf:"max_features" validate:"gte=0"`
	SmoothIDF   bool    `koanf:"smooth_idf"`
	SublinearTF bool    `koanf:"sublinear_tf"`
	Norm        string  `koanf:"norm" validate:"oneof=l2 l1 none"`
}

// RankerConfig configures batch scoring.
type RankerConfig struct {
	BatchSize int `koanf:"batch_size" validate:"min=1"`
	// Workers of zero uses GOMAXPROCS.
	Workers int `koanf:"workers" validate:"gte=0"`
	// MemoryLimit caps similarity buffers in bytes. Zero is unlimited.
	MemoryLimit int64 `koanf:"memory_limit" validate:"gte=0"`
}

// EvaluateConfig configures hold-out evaluation.
type EvaluateConfig struct {
	TestFraction float64 `koanf:"test_fraction" validate:"gt=0,lt=1"`
	Seed         int64   `koanf:"seed"`
	// TopN of zero uses ten times the held-out size.
	TopN int `koanf:"topn" validate:"gte=0"`
}

// ArtifactConfig configures model artifacts.
type ArtifactConfig struct {
	Codec       string `koanf:"codec" validate:"oneof=go-json json"`
	Compression string `koanf:"compression" validate:"oneof=none zstd lz4"`
	// IOLimit caps artifact I/O in bytes per second. Zero is unlimited.
	IOLimit int64 `koanf:"io_limit" validate:"gte=0"`
}

// StoreConfig selects a model registry.
type StoreConfig struct {
	// URL is file:///dir, s3://bucket/prefix or minio://host/bucket/prefix.
	URL string `koanf:"url"`
	// DDBTable enables DynamoDB commits for s3 stores.
	DDBTable string `koanf:"ddb_table"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
	// MinIO credentials.
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Insecure  bool   `koanf:"insecure"`
}

// MetricsConfig configures the Prometheus textfile dump.
type MetricsConfig struct {
	File string `koanf:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := tfidf.DefaultParams()
	return Config{
		Log: logging.Config{Level: "info", Format: "console"},
		Data: DataConfig{
			IDColumn: "id",
			Comma:    ",",
		},
		Vectorizer: VectorizerConfig{
			Lowercase:   p.Lowercase,
			NGramMin:    p.NGramMin,
			NGramMax:    p.NGramMax,
			MaxDF:       p.MaxDF.Value,
			MinDF:       int(p.MinDF.Value),
			MaxFeatures: p.MaxFeatures,
			SmoothIDF:   p.SmoothIDF,
			SublinearTF: p.SublinearTF,
			Norm:        p.Norm.String(),
		},
		Ranker:   RankerConfig{BatchSize: 64},
		Evaluate: EvaluateConfig{TestFraction: 0.3, Seed: 42},
		Artifact: ArtifactConfig{Codec: "go-json", Compression: "zstd"},
	}
}

// Load reads defaults, the YAML file at path and the environment. An empty
// path falls back to $LEADREC_CONFIG; no file at all is fine.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		return ""
	}
	section, field, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + field
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	if c.Store.DDBTable != "" && !strings.HasPrefix(c.Store.URL, "s3://") {
		return fmt.Errorf("config: invalid: store.ddb_table requires an s3:// store url")
	}
	return nil
}

// Params converts the vectorizer section.
func (c *Config) Params() tfidf.Params {
	v := c.Vectorizer
	return tfidf.Params{
		Lowercase:   v.Lowercase,
		NGramMin:    v.NGramMin,
		NGramMax:    v.NGramMax,
		MaxDF:       tfidf.Proportion(v.MaxDF),
		MinDF:       tfidf.Count(v.MinDF),
		MaxFeatures: v.MaxFeatures,
		SmoothIDF:   v.SmoothIDF,
		SublinearTF: v.SublinearTF,
		Norm:        distance.Norm(v.Norm),
	}
}
