package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/sentence-vectors/svec"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	ONNX     ONNXConfig     `mapstructure:"onnx" yaml:"onnx"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ModelConfig describes the encoder, its vocabulary and the tensor geometry.
type ModelConfig struct {
	Path              string `mapstructure:"path" yaml:"path"`
	VocabPath         string `mapstructure:"vocabPath" yaml:"vocabPath"`
	Inference         string `mapstructure:"inference" yaml:"inference"`
	Tokenizer         string `mapstructure:"tokenizer" yaml:"tokenizer"`
	Lowercase         bool   `mapstructure:"lowercase" yaml:"lowercase"`
	MaxSequenceLength int    `mapstructure:"maxSequenceLength" yaml:"maxSequenceLength"`
	HiddenSize        int    `mapstructure:"hiddenSize" yaml:"hiddenSize"`
	BatchSize         int    `mapstructure:"batchSize" yaml:"batchSize"`
	Padding           string `mapstructure:"padding" yaml:"padding"`
	Pooling           string `mapstructure:"pooling" yaml:"pooling"`
	Dimensions        int    `mapstructure:"dimensions" yaml:"dimensions"`
}

// ONNXConfig stores ONNX Runtime session settings.
type ONNXConfig struct {
	ExecutionProvider string            `mapstructure:"executionProvider" yaml:"executionProvider"`
	DeviceID          int               `mapstructure:"deviceID" yaml:"deviceID"`
	Options           map[string]string `mapstructure:"options" yaml:"options,omitempty"`
	SharedLibraryPath string            `mapstructure:"sharedLibraryPath" yaml:"sharedLibraryPath,omitempty"`
}

// PipelineConfig stores pipeline behaviour.
type PipelineConfig struct {
	Workers          int  `mapstructure:"workers" yaml:"workers"`
	Normalize        bool `mapstructure:"normalize" yaml:"normalize"`
	InPlaceNormalize bool `mapstructure:"inPlaceNormalize" yaml:"inPlaceNormalize"`
}

// CacheConfig enables the embedding cache. An empty Path disables it,
// ":memory:" keeps entries in process.
type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ServerConfig stores HTTP API settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           int           `mapstructure:"port" yaml:"port"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout" yaml:"requestTimeout"`
	MaxTexts       int           `mapstructure:"maxTexts" yaml:"maxTexts"`
}

// LogConfig stores logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.path", internal.DefaultModelPath)
	v.SetDefault("model.vocabPath", internal.DefaultVocabPath)
	v.SetDefault("model.inference", "onnx")
	v.SetDefault("model.tokenizer", "sugar")
	v.SetDefault("model.lowercase", true)
	v.SetDefault("model.maxSequenceLength", internal.DefaultMaxSequenceLength)
	v.SetDefault("model.hiddenSize", internal.DefaultHiddenSize)
	v.SetDefault("model.batchSize", internal.DefaultBatchSize)
	v.SetDefault("model.padding", "fixed")
	v.SetDefault("model.pooling", "mean")
	v.SetDefault("model.dimensions", 0)
	v.SetDefault("onnx.executionProvider", "cpu")
	v.SetDefault("onnx.deviceID", 0)
	v.SetDefault("pipeline.workers", 0)
	v.SetDefault("pipeline.normalize", true)
	v.SetDefault("pipeline.inPlaceNormalize", false)
	v.SetDefault("cache.path", "")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.requestTimeout", 60*time.Second)
	v.SetDefault("server.maxTexts", 1024)
	v.SetDefault("log.level", "info")
}

// Default returns the built-in configuration without reading files or
// the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &cfg
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(internal.DefaultAppName))
	v.AutomaticEnv()                                   // Read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // model.batchSize becomes SVEC_MODEL_BATCHSIZE

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects geometry the pipeline cannot run with.
func (c *Config) Validate() error {
	m := c.Model
	switch {
	case m.MaxSequenceLength <= 0:
		return fmt.Errorf("model.maxSequenceLength must be positive, got %d", m.MaxSequenceLength)
	case m.HiddenSize <= 0:
		return fmt.Errorf("model.hiddenSize must be positive, got %d", m.HiddenSize)
	case m.BatchSize <= 0:
		return fmt.Errorf("model.batchSize must be positive, got %d", m.BatchSize)
	case m.Dimensions < 0 || m.Dimensions > m.HiddenSize:
		return fmt.Errorf("model.dimensions must be within [0, %d], got %d", m.HiddenSize, m.Dimensions)
	case c.Pipeline.Workers < 0:
		return fmt.Errorf("pipeline.workers must not be negative, got %d", c.Pipeline.Workers)
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port must be within [0, 65535], got %d", c.Server.Port)
	}
	return nil
}
