package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// MatchingConfig centralizes every matching threshold. These are the primary
// tuning surface and must stay consistent between the matcher and the review
// queue, so nothing else in the codebase hard-codes them.
type MatchingConfig struct {
	// Confidence scores per match basis, 0..100.
	NameExactConfidence       float64 `toml:"name_exact_confidence"`
	ExactFloorConfidence      float64 `toml:"exact_floor_confidence"`
	EmailConfidence           float64 `toml:"email_confidence"`
	PhoneConfidence           float64 `toml:"phone_confidence"`
	PhoneNameBonus            float64 `toml:"phone_name_bonus"`
	FuzzyConfidence           float64 `toml:"fuzzy_confidence"`
	FuzzyStandaloneConfidence float64 `toml:"fuzzy_standalone_confidence"`

	// Name similarity bars, 0..1.
	FuzzyNameSimilarity      float64 `toml:"fuzzy_name_similarity"`
	StandaloneNameSimilarity float64 `toml:"standalone_name_similarity"`
	OrgSimilarity            float64 `toml:"org_similarity"`
	CorroboratingName        float64 `toml:"corroborating_name"`
	SimilarName              float64 `toml:"similar_name"`

	// Routing thresholds, 0..100.
	AutoMergeThreshold float64 `toml:"auto_merge_threshold"`
	ReviewFloor        float64 `toml:"review_floor"`
}

type MergeConfig struct {
	// SourcePriority ranks source databases; earlier wins base selection.
	SourcePriority []string `toml:"source_priority"`
}

type NormalizeConfig struct {
	PhoneRegion string `toml:"phone_region"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	// MinConfidence gates which oracle insights get auto-applied.
	MinConfidence float64 `toml:"min_confidence"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type Config struct {
	Matching  MatchingConfig  `toml:"matching"`
	Merge     MergeConfig     `toml:"merge"`
	Normalize NormalizeConfig `toml:"normalize"`
	LLM       LLMConfig       `toml:"llm"`
	Store     StoreConfig     `toml:"store"`
}

// Default returns the tuned values the toolkit ships with. Exact-name
// buckets are treated as certain (100) so downstream gating never queues
// them.
func Default() *Config {
	return &Config{
		Matching: MatchingConfig{
			NameExactConfidence:       100,
			ExactFloorConfidence:      90,
			EmailConfidence:           95,
			PhoneConfidence:           90,
			PhoneNameBonus:            5,
			FuzzyConfidence:           85,
			FuzzyStandaloneConfidence: 75,
			FuzzyNameSimilarity:       0.85,
			StandaloneNameSimilarity:  0.95,
			OrgSimilarity:             0.8,
			CorroboratingName:         0.5,
			SimilarName:               0.8,
			AutoMergeThreshold:        95,
			ReviewFloor:               70,
		},
		Normalize: NormalizeConfig{PhoneRegion: "US"},
		LLM:       LLMConfig{MinConfidence: 0.9},
		Store:     StoreConfig{Path: "data/review.db"},
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}
