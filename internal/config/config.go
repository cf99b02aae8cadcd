package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	TargetColumn    string   `mapstructure:"target_column" yaml:"target_column" validate:"required"`
	BinaryColumn    string   `mapstructure:"binary_column" yaml:"binary_column"`
	GroupColumn     string   `mapstructure:"group_column" yaml:"group_column"`
	RequiredColumns []string `mapstructure:"required_columns" yaml:"required_columns"`
	NumericColumns  []string `mapstructure:"numeric_columns" yaml:"numeric_columns"`

	TestSize      float64 `mapstructure:"test_size" yaml:"test_size" validate:"gt=0,lt=1"`
	RandomSeed    uint64  `mapstructure:"random_seed" yaml:"random_seed"`
	IQRMultiplier float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier" validate:"gt=0"`
	ScaleEncoded  bool    `mapstructure:"scale_encoded" yaml:"scale_encoded"`

	// Models
	TreeMaxDepth   int     `mapstructure:"tree_max_depth" yaml:"tree_max_depth" validate:"gte=0"`
	GBEstimators   int     `mapstructure:"gb_estimators" yaml:"gb_estimators" validate:"gte=1"`
	GBLearningRate float64 `mapstructure:"gb_learning_rate" yaml:"gb_learning_rate" validate:"gt=0"`
	GBMaxDepth     int     `mapstructure:"gb_max_depth" yaml:"gb_max_depth" validate:"gte=1"`
	LogRegC        float64 `mapstructure:"logreg_c" yaml:"logreg_c" validate:"gt=0"`
	LogRegMaxIter  int     `mapstructure:"logreg_max_iter" yaml:"logreg_max_iter" validate:"gte=1"`

	// Output
	PlotsDir     string `mapstructure:"plots_dir" yaml:"plots_dir"`
	PlotsEnabled bool   `mapstructure:"plots_enabled" yaml:"plots_enabled"`
	SampleRows   int    `mapstructure:"sample_rows" yaml:"sample_rows" validate:"gte=0"`
	Delimiter    string `mapstructure:"delimiter" yaml:"delimiter"`
}

var defaults = map[string]any{
	"target_column":    "Weekly_Sales",
	"binary_column":    "IsHoliday",
	"group_column":     "Type",
	"required_columns": []string{"Weekly_Sales", "IsHoliday", "Type"},
	"numeric_columns":  []string{},
	"test_size":        0.3,
	"random_seed":      42,
	"iqr_multiplier":   1.5,
	"scale_encoded":    false,
	"tree_max_depth":   0,
	"gb_estimators":    100,
	"gb_learning_rate": 0.1,
	"gb_max_depth":     3,
	"logreg_c":         1.0,
	"logreg_max_iter":  100,
	"plots_dir":        "",
	"plots_enabled":    true,
	"sample_rows":      5,
	"delimiter":        "",
}

// Default returns the built-in configuration.
func Default() *Global {
	c, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return c
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SALESCOPE")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

func decode(v *viper.Viper) (*Global, error) {
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &c, nil
}

// DefaultPath is ~/.salescope/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home dir")
	}
	return filepath.Join(home, ".salescope", "config.yaml"), nil
}

// Load layers defaults, the home config file, SALESCOPE_* environment
// variables and finally cfgFile when given. A missing file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := newViper()
	if path, err := DefaultPath(); err == nil {
		v.SetConfigFile(path)
		if err := readIfExists(v, path); err != nil {
			return nil, err
		}
	}
	if cfgFile != "" {
		fv := viper.New()
		fv.SetConfigFile(cfgFile)
		if err := readIfExists(fv, cfgFile); err != nil {
			return nil, err
		}
		// Set outranks env in viper, so explicit files win.
		for _, k := range fv.AllKeys() {
			v.Set(k, fv.Get(k))
		}
	}
	c, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func readIfExists(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	return nil
}

// Save writes c to cfgFile, or to DefaultPath when cfgFile is empty.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir config dir")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return v
}

// Validate rejects settings the pipeline cannot run with. Only the first
// failing key is reported.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return errors.Wrap(err, "validate config")
	}
	return errors.New(describe(fields[0]))
}

func describe(fe validator.FieldError) string {
	key, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return key + " must not be empty"
	case "gt":
		if param == "0" {
			return fmt.Sprintf("%s must be positive, got %v", key, fe.Value())
		}
		return fmt.Sprintf("%s must be greater than %s, got %v", key, param, fe.Value())
	case "lt":
		return fmt.Sprintf("%s must be less than %s, got %v", key, param, fe.Value())
	case "gte":
		if param == "0" {
			return fmt.Sprintf("%s must not be negative, got %v", key, fe.Value())
		}
		return fmt.Sprintf("%s must be at least %s, got %v", key, param, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q check", key, fe.Tag())
	}
}

// Set parses val into the field named by key. c is left unchanged on error.
func (c *Global) Set(key, val string) error {
	old := *c
	if err := c.set(key, val); err != nil {
		*c = old
		return err
	}
	if err := c.Validate(); err != nil {
		*c = old
		return err
	}
	return nil
}

func (c *Global) set(key, val string) error {
	var err error
	switch key {
	case "target_column":
		c.TargetColumn = val
	case "binary_column":
		c.BinaryColumn = val
	case "group_column":
		c.GroupColumn = val
	case "required_columns":
		c.RequiredColumns = splitList(val)
	case "numeric_columns":
		c.NumericColumns = splitList(val)
	case "test_size":
		c.TestSize, err = strconv.ParseFloat(val, 64)
	case "random_seed":
		c.RandomSeed, err = strconv.ParseUint(val, 10, 64)
	case "iqr_multiplier":
		c.IQRMultiplier, err = strconv.ParseFloat(val, 64)
	case "scale_encoded":
		c.ScaleEncoded, err = strconv.ParseBool(val)
	case "tree_max_depth":
		c.TreeMaxDepth, err = strconv.Atoi(val)
	case "gb_estimators":
		c.GBEstimators, err = strconv.Atoi(val)
	case "gb_learning_rate":
		c.GBLearningRate, err = strconv.ParseFloat(val, 64)
	case "gb_max_depth":
		c.GBMaxDepth, err = strconv.Atoi(val)
	case "logreg_c":
		c.LogRegC, err = strconv.ParseFloat(val, 64)
	case "logreg_max_iter":
		c.LogRegMaxIter, err = strconv.Atoi(val)
	case "plots_dir":
		c.PlotsDir = val
	case "plots_enabled":
		c.PlotsEnabled, err = strconv.ParseBool(val)
	case "sample_rows":
		c.SampleRows, err = strconv.Atoi(val)
	case "delimiter":
		c.Delimiter = val
	default:
		return errors.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return errors.Wrapf(err, "invalid value for %s", key)
	}
	return nil
}

// splitList parses a comma-separated list, dropping empty items.
func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// YAML renders the effective configuration.
func (c *Global) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "marshal yaml")
	}
	return string(b), nil
}
