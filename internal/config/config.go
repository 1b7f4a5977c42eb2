// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/mathutil"
	"github.com/iwvelando/loan-analyzer/pkg/scenario"
	"github.com/iwvelando/loan-analyzer/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for loan-analyzer.
type Configuration struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging,omitempty"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output,omitempty"`
	Data      DataConfig      `mapstructure:"data" yaml:"data,omitempty"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" yaml:"analysis,omitempty"`
	Scenarios ScenariosConfig `mapstructure:"scenarios" yaml:"scenarios,omitempty"`
	Export    ExportConfig    `mapstructure:"export" yaml:"export,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json
}

// DataConfig locates the loan batch.
type DataConfig struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"` // .csv or .xlsx
}

// AnalysisConfig tunes batch processing.
type AnalysisConfig struct {
	Frequency   int    `mapstructure:"frequency" yaml:"frequency,omitempty"`     // compounding periods per year
	BatchPolicy string `mapstructure:"batchPolicy" yaml:"batchPolicy,omitempty"` // strict, skip
	TopN        int    `mapstructure:"topN" yaml:"topN,omitempty"`
}

// ScenariosConfig holds the default scenario parameters.
type ScenariosConfig struct {
	RateShock  RateShockConfig  `mapstructure:"rateShock" yaml:"rateShock,omitempty"`
	Prepayment PrepaymentConfig `mapstructure:"prepayment" yaml:"prepayment,omitempty"`
	Refinance  RefinanceConfig  `mapstructure:"refinance" yaml:"refinance,omitempty"`
}

// RateShockConfig lists rate deltas in percentage points.
type RateShockConfig struct {
	Deltas []float64 `mapstructure:"deltas" yaml:"deltas,omitempty"`
}

// PrepaymentConfig sets the payment boost, e.g. 0.10 for +10%.
type PrepaymentConfig struct {
	ExtraFraction float64 `mapstructure:"extraFraction" yaml:"extraFraction,omitempty"`
}

// RefinanceConfig sets the candidate annual rate in percent.
type RefinanceConfig struct {
	NewRate float64 `mapstructure:"newRate" yaml:"newRate,omitempty"`
}

// ExportConfig names export destinations. Empty paths disable the export.
type ExportConfig struct {
	CSVPath     string `mapstructure:"csvPath" yaml:"csvPath,omitempty"`
	XLSXPath    string `mapstructure:"xlsxPath" yaml:"xlsxPath,omitempty"`
	JournalPath string `mapstructure:"journalPath" yaml:"journalPath,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("data.path", constants.DefaultDataFile)
	v.SetDefault("analysis.frequency", constants.FrequencyMonthly)
	v.SetDefault("analysis.batchPolicy", constants.BatchPolicyStrict)
	v.SetDefault("analysis.topN", constants.DefaultTopN)
	v.SetDefault("scenarios.rateShock.deltas", constants.DefaultRateDeltas)
	v.SetDefault("scenarios.prepayment.extraFraction", constants.DefaultExtraFraction)
	v.SetDefault("scenarios.refinance.newRate", constants.DefaultRefinanceRate)
	v.SetDefault("export.csvPath", constants.DefaultExportFile)
	v.SetDefault("export.xlsxPath", "")
	v.SetDefault("export.journalPath", "")

	// LOAN_ANALYZER_ANALYSIS_BATCHPOLICY=skip overrides analysis.batchPolicy.
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is given, with
// environment overrides applied.
func Default() (*Configuration, error) {
	return decode(newViper())
}

// Validate rejects settings the engine cannot run with.
func (c *Configuration) Validate() error {
	var errs []error

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if err := validation.ValidateBatchPolicy(c.Analysis.BatchPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.Frequency < 1 {
		errs = append(errs, fmt.Errorf("analysis.frequency must be at least 1, got %d", c.Analysis.Frequency))
	}
	if c.Analysis.TopN < 1 {
		errs = append(errs, fmt.Errorf("analysis.topN must be at least 1, got %d", c.Analysis.TopN))
	}
	if len(c.Scenarios.RateShock.Deltas) == 0 {
		errs = append(errs, errors.New("scenarios.rateShock.deltas must not be empty"))
	}
	for _, delta := range c.Scenarios.RateShock.Deltas {
		if !mathutil.IsFinite(delta) {
			errs = append(errs, fmt.Errorf("scenarios.rateShock.deltas contains %v", delta))
		}
	}
	if fraction := c.Scenarios.Prepayment.ExtraFraction; !mathutil.IsFinite(fraction) || fraction < 0 {
		errs = append(errs, fmt.Errorf("scenarios.prepayment.extraFraction must be >= 0, got %v", fraction))
	}
	if rate := c.Scenarios.Refinance.NewRate; !mathutil.IsFinite(rate) || rate < 0 {
		errs = append(errs, fmt.Errorf("scenarios.refinance.newRate must be >= 0, got %v", rate))
	}

	return errors.Join(errs...)
}

// SimulatorOptions converts the analysis section into simulator options.
func (c *Configuration) SimulatorOptions() (scenario.Options, error) {
	policy, err := scenario.ParsePolicy(c.Analysis.BatchPolicy)
	if err != nil {
		return scenario.Options{}, err
	}
	return scenario.Options{
		Policy:    policy,
		Frequency: c.Analysis.Frequency,
		TopN:      c.Analysis.TopN,
	}, nil
}
