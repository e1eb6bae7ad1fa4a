package model

import "time"

// Config holds all tunable policy constants and runtime settings.
// The pipeline thresholds are policy defaults, not a dynamic protocol; they
// are exposed here so the property tests can pin them down.
type Config struct {
	Tokenizer   TokenizerConfig   `yaml:"tokenizer"`
	Filter      FilterConfig      `yaml:"filter"`
	Router      RouterConfig      `yaml:"router"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Verifier    VerifierConfig    `yaml:"verifier"`
	LLM         LLMConfig         `yaml:"llm"`
	Cache       CacheConfig       `yaml:"cache"`
	Audit       AuditConfig       `yaml:"audit"`
	Output      OutputConfig      `yaml:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

// TokenizerConfig controls fact creation.
type TokenizerConfig struct {
	// MinConfidence is the floor below which a fact is discarded outright.
	MinConfidence float64 `yaml:"min_confidence"`
}

// FilterConfig controls the procedural filter and scoring cap.
type FilterConfig struct {
	MaxFacts            int     `yaml:"max_facts"`
	ConfidenceBonusFrom float64 `yaml:"confidence_bonus_from"`
}

// RouterConfig holds the tier budgets and the strong/weak split threshold.
type RouterConfig struct {
	MaxTotal         int     `yaml:"max_total"`
	MaxPrimary       int     `yaml:"max_primary"`
	MaxSecondary     int     `yaml:"max_secondary"`
	MaxReserve       int     `yaml:"max_reserve"`
	StrongConfidence float64 `yaml:"strong_confidence"`
}

// ClassifierConfig holds the statute scoring thresholds.
type ClassifierConfig struct {
	PrimaryThreshold   float64 `yaml:"primary_threshold"`
	SecondaryThreshold float64 `yaml:"secondary_threshold"`
}

// VerifierConfig holds the provenance policy.
type VerifierConfig struct {
	RequireTwoSources  bool    `yaml:"require_two_sources"`
	CriticalConfidence float64 `yaml:"critical_confidence"`
	DefaultConfidence  float64 `yaml:"default_confidence"`
}

// LLMConfig configures the external narrative generator.
type LLMConfig struct {
	Provider          string  `yaml:"provider"` // "openai", "anthropic", "ollama" or "" (disabled)
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"api_key,omitempty"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
}

// CacheConfig configures the tokenization cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir,omitempty"`
	TTL     time.Duration `yaml:"ttl"`
}

// AuditConfig configures the SQLite run ledger.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// ConcurrencyConfig controls batch processing.
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers"`
}

// DefaultConfig returns the standard policy defaults.
func DefaultConfig() *Config {
	return &Config{
		Tokenizer: TokenizerConfig{
			MinConfidence: 0.10,
		},
		Filter: FilterConfig{
			MaxFacts:            100,
			ConfidenceBonusFrom: 0.5,
		},
		Router: RouterConfig{
			MaxTotal:         240,
			MaxPrimary:       130,
			MaxSecondary:     80,
			MaxReserve:       30,
			StrongConfidence: 0.30,
		},
		Classifier: ClassifierConfig{
			PrimaryThreshold:   3.0,
			SecondaryThreshold: 2.0,
		},
		Verifier: VerifierConfig{
			RequireTwoSources:  true,
			CriticalConfidence: 0.60,
			DefaultConfidence:  0.20,
		},
		LLM: LLMConfig{
			Provider:          "",
			TimeoutSeconds:    60,
			MaxTokens:         4000,
			RequestsPerMinute: 20,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled: false,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
	}
}
