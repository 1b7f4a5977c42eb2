// Package constants provides shared constants for the loan-analyzer application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Compounding frequencies, expressed as periods per year.
const (
	FrequencyAnnual     = 1
	FrequencySemiannual = 2
	FrequencyQuarterly  = 4
	FrequencyMonthly    = 12
	FrequencyWeekly     = 52
	FrequencyDaily      = 365
)

// Scenario policy constants
const (
	// MinShockedRate is the lowest annual rate (in percent) a rate shock may produce.
	MinShockedRate = 0.1

	// DefaultTopN is the number of loans listed in ranked scenario aggregates.
	DefaultTopN = 5

	// DefaultExtraFraction is the default prepayment boost (10% over the level payment).
	DefaultExtraFraction = 0.10

	// DefaultRefinanceRate is the default annual rate offered by a refinance.
	DefaultRefinanceRate = 3.5
)

// DefaultRateDeltas are the percentage-point shocks applied when none are configured.
var DefaultRateDeltas = []float64{-2, -1, 1, 2}

// DefaultComparisonFrequencies are the compounding frequencies compared by the calculator.
var DefaultComparisonFrequencies = []int{FrequencyAnnual, FrequencySemiannual, FrequencyQuarterly, FrequencyMonthly}

// Executive summary thresholds
const (
	// HighRateThreshold marks loans whose annual rate is worth refinancing.
	HighRateThreshold = 7.0

	// HighRateSavingsEstimate is the fraction of cost assumed recoverable on high-rate loans.
	HighRateSavingsEstimate = 0.15

	// LongTermThreshold marks loans longer than five years.
	LongTermThreshold = 60

	// SummaryTopCostly is the number of costliest loans listed in the summary.
	SummaryTopCostly = 3

	// ScheduleSampleSize is the number of loans whose balance schedule is shown by default.
	ScheduleSampleSize = 5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Batch policy names as they appear in configuration files.
const (
	BatchPolicyStrict = "strict"
	BatchPolicySkip   = "skip"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultDataFile is the loan batch loaded when no path is configured
	DefaultDataFile = "loan_data.csv"

	// DefaultExportFile is the CSV written by the export command when no path is configured
	DefaultExportFile = "analysis_results.csv"

	// EnvPrefix prefixes environment overrides of configuration keys
	EnvPrefix = "LOAN_ANALYZER"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for loan files (10 MB)
	DefaultMaxUploadSizeBytes int64 = 10 * 1024 * 1024

	// DefaultRequestTimeout is the default per-request deadline
	DefaultRequestTimeout = "30s"
)

// DefaultCurrency is the ISO 4217 code used when displaying amounts.
const DefaultCurrency = "USD"

// Batch warning thresholds. Loans beyond these are legal but flagged.
const (
	// MinBorrowerAge and MaxBorrowerAge bound the expected borrower age
	MinBorrowerAge = 18
	MaxBorrowerAge = 100

	// MaxPlausibleTermMonths is 50 years
	MaxPlausibleTermMonths = 600

	// MaxPlausibleRatePct is the highest annual rate not flagged as suspicious
	MaxPlausibleRatePct = 100.0
)
