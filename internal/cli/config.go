package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly/compiler"
	"github.com/deepakshirkem/spiderly/compiler/gen"
	"github.com/deepakshirkem/spiderly/compiler/load"
)

// ConfigName is the base name of the project configuration file.
const ConfigName = "spiderly"

// Config is the project configuration read from spiderly.yaml and
// SPIDERLY_* environment variables.
//
//	local:
//	  dir: .
//	references:
//	  - snapshot: third_party/security.msgpack
//	target: .
//	disable: [apiclient]
//	enable: [filtering/strict]
type Config struct {
	Local      load.Source   `mapstructure:"local"`
	References []load.Source `mapstructure:"references"`
	// Target is the root the artifacts are written under.
	Target string `mapstructure:"target"`
	// Enable and Disable list feature names.
	Enable  []string `mapstructure:"enable"`
	Disable []string `mapstructure:"disable"`
	Workers int      `mapstructure:"workers"`
	// Debounce is the quiet period of the watch command.
	Debounce string `mapstructure:"debounce"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// LoadConfig reads the configuration. With path empty, spiderly.yaml is
// looked up in dir and a missing file yields the defaults. A .env file in
// dir is loaded into the environment first.
func LoadConfig(dir, path string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetDefault("local.dir", ".")
	v.SetDefault("target", ".")
	v.SetDefault("workers", 0)
	v.SetDefault("debounce", "300ms")
	v.SetEnvPrefix("SPIDERLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "/", "_"))
	v.AutomaticEnv()

	base := dir
	if path != "" {
		v.SetConfigFile(path)
		base = filepath.Dir(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c := &Config{dir: base}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Workers < 0 {
		return gen.NewConfigError("workers", c.Workers, "workers cannot be negative")
	}
	for _, name := range append(append([]string{}, c.Enable...), c.Disable...) {
		if _, err := gen.FeatureByName(name); err != nil {
			return err
		}
	}
	return nil
}

// Project returns the units to load, with relative paths resolved against
// the configuration directory.
func (c *Config) Project() compiler.Project {
	p := compiler.Project{Local: c.source(c.Local)}
	for _, r := range c.References {
		p.References = append(p.References, c.source(r))
	}
	return p
}

func (c *Config) source(s load.Source) load.Source {
	s.Dir = c.resolve(s.Dir)
	s.Snapshot = c.resolve(s.Snapshot)
	return s
}

// TargetDir returns the resolved target directory.
func (c *Config) TargetDir() string {
	return c.resolve(c.Target)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Options returns the generator options of the configuration.
func (c *Config) Options(log *zap.Logger) []gen.Option {
	opts := []gen.Option{
		gen.WithTarget(c.TargetDir()),
		gen.WithFeatureNames(c.Enable...),
		gen.WithoutFeatures(c.Disable...),
		gen.WithLogger(log),
	}
	if c.Workers > 0 {
		opts = append(opts, gen.WithWorkers(c.Workers))
	}
	return opts
}
