package segment

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config configures a Log.
type Config struct {
	// Dir holds the manifest and the segments/ directory.
	Dir string `yaml:"dir"`

	// MaxSegmentSize is the size in bytes after which the active segment
	// is rotated.
	MaxSegmentSize int64 `yaml:"max_segment_size"`

	// Compression is the frame codec for new segments: "none" or "lz4".
	Compression string `yaml:"compression"`

	// FrameCacheSize is the number of decoded frames kept in memory
	// across scans.
	FrameCacheSize int `yaml:"frame_cache_size"`

	// MaxOpenFiles bounds the number of segment files held open for
	// reading.
	MaxOpenFiles int `yaml:"max_open_files"`

	// SyncWrites fsyncs the active segment after every append.
	SyncWrites bool `yaml:"sync_writes"`
}

const (
	DefaultMaxSegmentSize = 64 << 20
	DefaultFrameCacheSize = 1024
	DefaultMaxOpenFiles   = 64
)

func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		MaxSegmentSize: DefaultMaxSegmentSize,
		Compression:    CompressionNone,
		FrameCacheSize: DefaultFrameCacheSize,
		MaxOpenFiles:   DefaultMaxOpenFiles,
	}
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their default values.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %v: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %v: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Dir == "" {
		errs = append(errs, errors.New("dir is required"))
	}
	if c.MaxSegmentSize <= 0 {
		errs = append(errs, fmt.Errorf("max_segment_size must be positive, got %d", c.MaxSegmentSize))
	}
	if c.FrameCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("frame_cache_size must be positive, got %d", c.FrameCacheSize))
	}
	if c.MaxOpenFiles <= 0 {
		errs = append(errs, fmt.Errorf("max_open_files must be positive, got %d", c.MaxOpenFiles))
	}
	if _, err := codecFor(c.Compression); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
