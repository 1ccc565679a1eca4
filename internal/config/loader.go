package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "plastiscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "PLASTISCAN"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance, which is where
// the CLI binds its flags.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on its own viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load loads configuration from the search paths, environment variables and
// defaults, then validates it. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile loads configuration from a specific file path, or from the
// search paths when configFile is empty.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation is LoadWithFile without the final Validate.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// detector.min_area -> PLASTISCAN_DETECTOR_MIN_AREA
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	d := defaults.Detector
	l.v.SetDefault("detector.bilateral_diameter", d.BilateralDiameter)
	l.v.SetDefault("detector.bilateral_sigma_color", d.BilateralSigmaColor)
	l.v.SetDefault("detector.bilateral_sigma_space", d.BilateralSigmaSpace)
	l.v.SetDefault("detector.adaptive_enabled", d.AdaptiveEnabled)
	l.v.SetDefault("detector.adaptive_method", d.AdaptiveMethod)
	l.v.SetDefault("detector.adaptive_block_size", d.AdaptiveBlockSize)
	l.v.SetDefault("detector.adaptive_c", d.AdaptiveC)
	l.v.SetDefault("detector.color_ranges", d.ColorRanges)
	l.v.SetDefault("detector.morph_kernel_size", d.MorphKernelSize)
	l.v.SetDefault("detector.min_area", d.MinArea)
	l.v.SetDefault("detector.max_area", d.MaxArea)
	l.v.SetDefault("detector.min_solidity", d.MinSolidity)
	l.v.SetDefault("detector.bead_circularity", d.BeadCircularity)
	l.v.SetDefault("detector.fiber_max_aspect", d.FiberMaxAspect)
	l.v.SetDefault("detector.fiber_min_aspect", d.FiberMinAspect)

	a := defaults.Annotation
	l.v.SetDefault("annotation.outline_thickness", a.OutlineThickness)
	l.v.SetDefault("annotation.marker_size", a.MarkerSize)
	l.v.SetDefault("annotation.marker_thickness", a.MarkerThickness)
	l.v.SetDefault("annotation.labels", a.Labels)
	l.v.SetDefault("annotation.colors", a.Colors)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.file", defaults.Output.File)
	l.v.SetDefault("output.summary", defaults.Output.Summary)
	l.v.SetDefault("output.sort", defaults.Output.Sort)

	b := defaults.Batch
	l.v.SetDefault("batch.workers", b.Workers)
	l.v.SetDefault("batch.recursive", b.Recursive)
	l.v.SetDefault("batch.include", b.Include)
	l.v.SetDefault("batch.exclude", b.Exclude)
	l.v.SetDefault("batch.stats", b.Stats)
	l.v.SetDefault("batch.progress", b.Progress)
	l.v.SetDefault("batch.quiet", b.Quiet)
	l.v.SetDefault("batch.metrics_file", b.MetricsFile)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// WriteYAML writes cfg as YAML to w.
func WriteYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// GenerateDefaultConfigFile writes the default configuration to filename,
// or to plastiscan.yaml when filename is empty. Existing files are kept.
func GenerateDefaultConfigFile(filename string) (string, error) {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // G302: config files are meant to be readable
	if err != nil {
		return "", fmt.Errorf("create config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := WriteYAML(f, &cfg); err != nil {
		_ = f.Close()
		return "", err
	}
	return filename, f.Close()
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	paths = append(paths, "/etc/plastiscan")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "plastiscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "plastiscan"))
	}

	return paths
}
