package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the global configuration for word-sketch.
type Config struct {
	Sketch    SketchConfig    `yaml:"sketch"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Database  DatabaseConfig  `yaml:"database"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	CDC       CDCConfig       `yaml:"cdc"`
	API       APIConfig       `yaml:"api"`
	Guardrail GuardrailConfig `yaml:"guardrail"`
}

// SketchConfig sizes the count-min sketch. Rows and Columns, when set,
// take precedence over ErrorRate and Confidence.
type SketchConfig struct {
	ErrorRate    float64 `yaml:"error_rate"`
	Confidence   float64 `yaml:"confidence"`
	Rows         int     `yaml:"rows"`
	Columns      int     `yaml:"columns"`
	Hash         string  `yaml:"hash"`
	HLLPrecision int     `yaml:"hll_precision"`
}

type InputConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig lists files written after a batch run. Empty paths are skipped.
type OutputConfig struct {
	JSON       string `yaml:"json"`
	CountsJSON string `yaml:"counts_json"`
	PNG        string `yaml:"png"`
	Compressed string `yaml:"compressed"`
	TopWords   int    `yaml:"top_words"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Enabled reports whether a database is configured at all.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type SnapshotConfig struct {
	Name    string `yaml:"name"`
	Restore bool   `yaml:"restore"`
}

type CDCConfig struct {
	Enabled     bool   `yaml:"enabled"`
	SlotName    string `yaml:"slot_name"`
	Publication string `yaml:"publication"`
	Table       string `yaml:"table"`
	TextColumn  string `yaml:"text_column"`
	BufferSize  int    `yaml:"buffer_size"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type GuardrailConfig struct {
	MaxCounterBytes int64 `yaml:"max_counter_bytes"`
	MaxRows         int   `yaml:"max_rows"`
}

// Default returns the configuration used when a field is left unset.
func Default() Config {
	return Config{
		Sketch: SketchConfig{
			ErrorRate:  0.0001,
			Confidence: 0.99,
			Hash:       "xxhash",
		},
		Output: OutputConfig{
			TopWords: 20,
		},
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		Snapshot: SnapshotConfig{
			Name: "default",
		},
		CDC: CDCConfig{
			SlotName:   "word_sketch",
			TextColumn: "body",
			BufferSize: 1000,
		},
		API: APIConfig{
			Addr: ":8080",
		},
		Guardrail: GuardrailConfig{
			MaxCounterBytes: 512 << 20,
			MaxRows:         64,
		},
	}
}

// Load reads the configuration from the specified file path on top of
// Default and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate catches settings that are wrong regardless of the sketch maths;
// the sketch package itself rejects invalid dimensions and bounds.
func (c *Config) Validate() error {
	if c.Sketch.Rows < 0 || c.Sketch.Columns < 0 {
		return fmt.Errorf("sketch: rows and columns must not be negative")
	}
	if (c.Sketch.Rows > 0) != (c.Sketch.Columns > 0) {
		return fmt.Errorf("sketch: rows and columns must be set together")
	}
	if c.Output.TopWords < 0 {
		return fmt.Errorf("output: top_words must not be negative")
	}
	if c.CDC.Enabled {
		if !c.Database.Enabled() {
			return fmt.Errorf("cdc: requires a database")
		}
		if c.CDC.Publication == "" || c.CDC.Table == "" {
			return fmt.Errorf("cdc: publication and table are required")
		}
		if c.CDC.BufferSize < 1 {
			return fmt.Errorf("cdc: buffer_size must be positive")
		}
	}
	if c.Snapshot.Restore && !c.Database.Enabled() {
		return fmt.Errorf("snapshot: restore requires a database")
	}
	if c.Guardrail.MaxCounterBytes < 0 || c.Guardrail.MaxRows < 0 {
		return fmt.Errorf("guardrail: limits must not be negative")
	}
	return nil
}
