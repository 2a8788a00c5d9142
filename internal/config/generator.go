package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"paygen/internal/errors"
)

// SizeConfig holds the per-tier business parameters.
type SizeConfig struct {
	MDRRateMin         float64  `yaml:"mdr_rate_min"`
	MDRRateMax         float64  `yaml:"mdr_rate_max"`
	DailyTxMin         int      `yaml:"daily_tx_min"`
	DailyTxMax         int      `yaml:"daily_tx_max"`
	AmountMin          float64  `yaml:"amount_min"`
	AmountMax          float64  `yaml:"amount_max"`
	ActiveDaysPerMonth int      `yaml:"active_days_per_month"`
	ChurnMultiplier    float64  `yaml:"churn_multiplier"`
	Industries         []string `yaml:"industries"`
}

// SeasonalConfig scales daily transaction counts by calendar period.
type SeasonalConfig struct {
	HolidayMonths     []int   `yaml:"holiday_months"`
	HolidayMultiplier float64 `yaml:"holiday_multiplier"`
	SummerMonths      []int   `yaml:"summer_months"`
	SummerMultiplier  float64 `yaml:"summer_multiplier"`
	WeekendMultiplier float64 `yaml:"weekend_multiplier"`
}

// StatusWeight is one entry of the payment status distribution.
type StatusWeight struct {
	Status string  `yaml:"status"`
	Weight float64 `yaml:"weight"`
}

// City is a geo anchor for merchant addresses.
type City struct {
	Name  string `yaml:"name"`
	State string `yaml:"state"`
}

// GeoConfig bounds transaction coordinates and supplies merchant cities.
type GeoConfig struct {
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
	LngMin float64 `yaml:"lng_min"`
	LngMax float64 `yaml:"lng_max"`
	Cities []City  `yaml:"cities"`
}

// Config carries every tunable of the generator. Zero values are never used
// directly; start from Default and overlay a YAML file and env vars via Load.
type Config struct {
	OutputDir string `yaml:"output_dir"`
	StateFile string `yaml:"state_file"`
	// Seed for the generator's random stream; 0 means seed from the clock.
	Seed int64 `yaml:"seed"`

	InitialMerchants  int     `yaml:"initial_merchants"`
	MonthlyGrowthRate float64 `yaml:"monthly_growth_rate"`
	MonthlyChurnRate  float64 `yaml:"monthly_churn_rate"`
	GrowthCap         int     `yaml:"growth_cap"`
	ChurnCap          int     `yaml:"churn_cap"`

	SizeDistribution map[string]float64    `yaml:"size_distribution"`
	Sizes            map[string]SizeConfig `yaml:"sizes"`

	StoreProbability float64 `yaml:"store_probability"`
	ReuseRateMin     float64 `yaml:"reuse_rate_min"`
	ReuseRateMax     float64 `yaml:"reuse_rate_max"`

	AttributeChangeProbs map[string]float64 `yaml:"attribute_change_probs"`

	Seasonal SeasonalConfig `yaml:"seasonal"`

	PaymentTypes    []string       `yaml:"payment_types"`
	PaymentStatuses []StatusWeight `yaml:"payment_statuses"`
	CardBrands      []string       `yaml:"card_brands"`
	CardIssuers     []string       `yaml:"card_issuers"`

	CostRates       map[string]float64 `yaml:"cost_rates"`
	DefaultCostRate float64            `yaml:"default_cost_rate"`

	Geo GeoConfig `yaml:"geo"`
}

// Default returns the built-in business configuration.
func Default() *Config {
	return &Config{
		OutputDir: "./raw_data",
		StateFile: "merchants.json",

		InitialMerchants:  500,
		MonthlyGrowthRate: 0.08,
		MonthlyChurnRate:  0.03,
		GrowthCap:         50,
		ChurnCap:          30,

		SizeDistribution: map[string]float64{
			"small":  0.70,
			"medium": 0.25,
			"large":  0.05,
		},
		Sizes: map[string]SizeConfig{
			"small": {
				MDRRateMin: 0.029, MDRRateMax: 0.035,
				DailyTxMin: 2, DailyTxMax: 20,
				AmountMin: 5, AmountMax: 100,
				ActiveDaysPerMonth: 22,
				ChurnMultiplier:    1.5,
				Industries:         []string{"retail", "restaurant", "beauty", "fitness", "local_services"},
			},
			"medium": {
				MDRRateMin: 0.025, MDRRateMax: 0.029,
				DailyTxMin: 5, DailyTxMax: 50,
				AmountMin: 25, AmountMax: 300,
				ActiveDaysPerMonth: 26,
				ChurnMultiplier:    1.0,
				Industries:         []string{"retail", "restaurant", "healthcare", "education", "automotive"},
			},
			"large": {
				MDRRateMin: 0.020, MDRRateMax: 0.025,
				DailyTxMin: 20, DailyTxMax: 100,
				AmountMin: 100, AmountMax: 1000,
				ActiveDaysPerMonth: 28,
				ChurnMultiplier:    0.3,
				Industries:         []string{"retail", "healthcare", "manufacturing", "logistics", "technology"},
			},
		},

		StoreProbability: 0.01,
		ReuseRateMin:     0.05,
		ReuseRateMax:     0.15,

		AttributeChangeProbs: map[string]float64{
			"mdr_rate": 0.02,
			"phone":    0.01,
			"email":    0.005,
			"address":  0.01,
			"city":     0.005,
			"zip_code": 0.01,
		},

		Seasonal: SeasonalConfig{
			HolidayMonths:     []int{11, 12},
			HolidayMultiplier: 1.5,
			SummerMonths:      []int{6, 7},
			SummerMultiplier:  1.2,
			WeekendMultiplier: 0.7,
		},

		PaymentTypes: []string{"card_present", "card_not_present"},
		PaymentStatuses: []StatusWeight{
			{Status: "approved", Weight: 0.85},
			{Status: "declined", Weight: 0.12},
			{Status: "cancelled", Weight: 0.03},
		},
		CardBrands: []string{"Visa", "Mastercard", "American Express", "Discover"},
		CardIssuers: []string{
			"Chase", "Bank of America", "Wells Fargo", "Citi", "Capital One",
			"American Express", "Discover", "US Bank", "PNC", "TD Bank",
		},

		CostRates: map[string]float64{
			"debit/visa":        0.005,
			"debit/mastercard":  0.006,
			"debit/amex":        0.008,
			"debit/discover":    0.007,
			"credit/visa":       0.015,
			"credit/mastercard": 0.016,
			"credit/amex":       0.025,
			"credit/discover":   0.018,
		},
		DefaultCostRate: 0.015,

		Geo: GeoConfig{
			LatMin: 25.0, LatMax: 49.0,
			LngMin: -125.0, LngMax: -66.0,
			Cities: []City{
				{Name: "New York", State: "NY"},
				{Name: "Los Angeles", State: "CA"},
				{Name: "Chicago", State: "IL"},
				{Name: "Houston", State: "TX"},
				{Name: "Phoenix", State: "AZ"},
				{Name: "Philadelphia", State: "PA"},
			},
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file named in PAYGEN_CONFIG (if set), overlaid by individual env vars.
func Load() (*Config, error) {
	cfg := Default()

	if path := GetEnv("PAYGEN_CONFIG", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.OutputDir = GetEnv("PAYGEN_OUTPUT_DIR", cfg.OutputDir)
	cfg.Seed = GetInt64Env("PAYGEN_SEED", cfg.Seed)
	cfg.InitialMerchants = GetIntEnv("PAYGEN_INITIAL_MERCHANTS", cfg.InitialMerchants)
	cfg.MonthlyGrowthRate = GetFloatEnv("PAYGEN_GROWTH_RATE", cfg.MonthlyGrowthRate)
	cfg.MonthlyChurnRate = GetFloatEnv("PAYGEN_CHURN_RATE", cfg.MonthlyChurnRate)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CostRate looks up the transactional cost rate for a card type and brand.
func (c *Config) CostRate(cardType, brand string) float64 {
	key := strings.ToLower(cardType) + "/" + canonicalBrand(brand)
	if rate, ok := c.CostRates[key]; ok {
		return rate
	}
	return c.DefaultCostRate
}

func canonicalBrand(brand string) string {
	b := strings.ToLower(brand)
	if b == "american express" {
		return "amex"
	}
	return b
}

// Validate rejects configurations that would corrupt a run before any state
// is loaded.
func (c *Config) Validate() error {
	if c.InitialMerchants < 0 {
		return &errors.ConfigError{Field: "initial_merchants", Reason: "must not be negative"}
	}
	if c.MonthlyGrowthRate < 0 || c.MonthlyGrowthRate > 1 {
		return &errors.ConfigError{Field: "monthly_growth_rate", Reason: "must be in [0,1]"}
	}
	if c.MonthlyChurnRate < 0 || c.MonthlyChurnRate > 1 {
		return &errors.ConfigError{Field: "monthly_churn_rate", Reason: "must be in [0,1]"}
	}
	if c.GrowthCap < 0 {
		return &errors.ConfigError{Field: "growth_cap", Reason: "must not be negative"}
	}
	if c.ChurnCap < 0 {
		return &errors.ConfigError{Field: "churn_cap", Reason: "must not be negative"}
	}
	if c.StoreProbability < 0 || c.StoreProbability > 1 {
		return &errors.ConfigError{Field: "store_probability", Reason: "must be in [0,1]"}
	}
	if c.ReuseRateMin < 0 || c.ReuseRateMax > 1 || c.ReuseRateMin > c.ReuseRateMax {
		return &errors.ConfigError{Field: "reuse_rate", Reason: "range must satisfy 0 <= min <= max <= 1"}
	}

	var sum float64
	for size, w := range c.SizeDistribution {
		if w < 0 {
			return &errors.ConfigError{Field: "size_distribution", Reason: "weight for " + size + " is negative"}
		}
		if _, ok := c.Sizes[size]; !ok {
			return &errors.ConfigError{Field: "size_distribution", Reason: "unknown size category " + size}
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return &errors.ConfigError{Field: "size_distribution", Reason: fmt.Sprintf("weights sum to %v, want 1.0", sum)}
	}

	for size, sc := range c.Sizes {
		if sc.DailyTxMin < 0 || sc.DailyTxMax < sc.DailyTxMin {
			return &errors.ConfigError{Field: "sizes." + size, Reason: "daily transaction range is invalid"}
		}
		if sc.AmountMin < 0 || sc.AmountMax < sc.AmountMin {
			return &errors.ConfigError{Field: "sizes." + size, Reason: "amount range is invalid"}
		}
		if sc.MDRRateMin < 0 || sc.MDRRateMax < sc.MDRRateMin {
			return &errors.ConfigError{Field: "sizes." + size, Reason: "mdr rate range is invalid"}
		}
		if sc.ActiveDaysPerMonth < 0 || sc.ActiveDaysPerMonth > 31 {
			return &errors.ConfigError{Field: "sizes." + size, Reason: "active days per month is invalid"}
		}
	}

	var statusSum float64
	for _, sw := range c.PaymentStatuses {
		if sw.Weight < 0 {
			return &errors.ConfigError{Field: "payment_statuses", Reason: "weight for " + sw.Status + " is negative"}
		}
		statusSum += sw.Weight
	}
	if math.Abs(statusSum-1.0) > 1e-9 {
		return &errors.ConfigError{Field: "payment_statuses", Reason: fmt.Sprintf("weights sum to %v, want 1.0", statusSum)}
	}

	for key, prob := range c.AttributeChangeProbs {
		if prob < 0 || prob > 1 {
			return &errors.ConfigError{Field: "attribute_change_probs", Reason: "probability for " + key + " must be in [0,1]"}
		}
	}
	return nil
}
