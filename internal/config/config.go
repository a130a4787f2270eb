package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/geocollider/internal/normalize"
)

// Match modes.
const (
	ModeCombined = "combined"
	ModeName     = "name"
	ModeSpatial  = "spatial"
)

// Config holds the full application configuration.
type Config struct {
	Match     MatchConfig  `yaml:"match" mapstructure:"match"`
	Reference SourceConfig `yaml:"reference" mapstructure:"reference"`
	// ReferenceSources are extra reference files with their own layout,
	// loaded after the reference files given on the command line. Records
	// are joined on id.
	ReferenceSources []ReferenceSource `yaml:"reference_sources,omitempty" mapstructure:"reference_sources"`
	Candidate SourceConfig `yaml:"candidate" mapstructure:"candidate"`
	Output    OutputConfig `yaml:"output" mapstructure:"output"`
	Log       LogConfig    `yaml:"log" mapstructure:"log"`
}

// ReferenceSource is one group of reference files decoded with the same
// layout.
type ReferenceSource struct {
	SourceConfig `yaml:",inline" mapstructure:",squash"`
	Paths        []string `yaml:"paths" mapstructure:"paths"`
}

// ParseReferenceSource parses "preset=path[,path...]".
func ParseReferenceSource(spec string) (ReferenceSource, error) {
	preset, list, ok := strings.Cut(spec, "=")
	preset = strings.TrimSpace(preset)
	if !ok || preset == "" {
		return ReferenceSource{}, eris.Errorf("config: reference source %q must be preset=path", spec)
	}
	rs := ReferenceSource{SourceConfig: SourceConfig{Preset: preset}}
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			rs.Paths = append(rs.Paths, p)
		}
	}
	if len(rs.Paths) == 0 {
		return ReferenceSource{}, eris.Errorf("config: reference source %q has no files", spec)
	}
	return rs, nil
}

// MatchConfig configures the comparison engine.
type MatchConfig struct {
	ThresholdKM float64 `yaml:"threshold_km" mapstructure:"threshold_km"`
	Mode        string  `yaml:"mode" mapstructure:"mode"`
	Normalizer  string  `yaml:"normalizer" mapstructure:"normalizer"`
}

// OutputConfig configures the match writer.
type OutputConfig struct {
	// Format is csv or xlsx. Empty picks by file extension.
	Format string `yaml:"format" mapstructure:"format"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("geocollider")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCOLLIDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("match.threshold_km", 8.0)
	v.SetDefault("match.mode", ModeCombined)
	v.SetDefault("match.normalizer", normalize.ModeWhitespace)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("output.format", "")

	// Source keys have no defaults so presets can fill them; registering
	// them here lets env vars reach Unmarshal.
	for _, prefix := range []string{"reference", "candidate"} {
		for _, key := range sourceKeys {
			v.SetDefault(prefix+"."+key, nil)
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate applies source presets and checks every recognized option,
// collecting all problems into one error.
func (c *Config) Validate() error {
	var errs []string

	if c.Match.ThresholdKM <= 0 {
		errs = append(errs, "match.threshold_km must be > 0")
	}
	switch strings.ToLower(c.Match.Mode) {
	case "", ModeCombined, ModeName, ModeSpatial:
	default:
		errs = append(errs, "match.mode must be one of combined, name, spatial")
	}
	if _, err := normalize.Lookup(c.Match.Normalizer); err != nil {
		errs = append(errs, "match.normalizer: "+err.Error())
	}
	switch strings.ToLower(c.Output.Format) {
	case "", "csv", "xlsx":
	default:
		errs = append(errs, "output.format must be csv or xlsx")
	}

	for _, s := range []struct {
		prefix string
		cfg    *SourceConfig
	}{{"reference", &c.Reference}, {"candidate", &c.Candidate}} {
		if err := s.cfg.ApplyPreset(); err != nil {
			errs = append(errs, s.prefix+".preset: "+err.Error())
			continue
		}
		for _, e := range s.cfg.problems() {
			errs = append(errs, s.prefix+"."+e)
		}
	}

	for i := range c.ReferenceSources {
		rs := &c.ReferenceSources[i]
		prefix := fmt.Sprintf("reference_sources[%d]", i)
		if len(rs.Paths) == 0 {
			errs = append(errs, prefix+".paths must list at least one file")
		}
		if err := rs.ApplyPreset(); err != nil {
			errs = append(errs, prefix+".preset: "+err.Error())
			continue
		}
		for _, e := range rs.problems() {
			errs = append(errs, prefix+"."+e)
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger builds the zap logger described by cfg and installs it as the
// global logger.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return logger, nil
}
