// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package policy

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/chronorag/core"
)

// Hard-mode triggers accepted in hard_mode_for.
const (
	TriggerExplicitYear    = "explicit_year"
	TriggerExplicitCentury = "explicit_century"
	TriggerExplicitPeriod  = "explicit_period"
)

var validate = validator.New()

// Weights are the fusion coefficients for one domain.
type Weights struct {
	Alpha          float64 `yaml:"alpha" json:"alpha" validate:"gte=0"`
	BetaTime       float64 `yaml:"beta_time" json:"beta_time" validate:"gte=0"`
	GammaAuthority float64 `yaml:"gamma_authority" json:"gamma_authority" validate:"gte=0"`
	DeltaAge       float64 `yaml:"delta_age" json:"delta_age" validate:"gte=0"`
	TxGamma        float64 `yaml:"tx_gamma" json:"tx_gamma" validate:"gte=0"`
}

// DefaultWeights returns the generic fusion coefficients.
func DefaultWeights() Weights {
	return Weights{Alpha: 0.55, BetaTime: 0.25, GammaAuthority: 0.15, DeltaAge: 0.05, TxGamma: 0.40}
}

// PolicySet is the routing and ranking policy for one domain.
type PolicySet struct {
	TimeAxisDefault  string   `yaml:"time_axis_default" json:"time_axis_default" validate:"omitempty,oneof=valid transaction"`
	TimeModeDefault  string   `yaml:"time_mode_default" json:"time_mode_default" validate:"omitempty,oneof=HARD INTELLIGENT"`
	HardModeFor      []string `yaml:"hard_mode_for" json:"hard_mode_for" validate:"dive,oneof=explicit_year explicit_century explicit_period"`
	RetrievalWeights Weights  `yaml:"retrieval_weights" json:"retrieval_weights"`

	decodeErr error
}

func newPolicySet() PolicySet {
	return PolicySet{RetrievalWeights: DefaultWeights()}
}

// Axis returns the default axis, valid when unset.
func (p PolicySet) Axis() core.Axis {
	if p.TimeAxisDefault == string(core.AxisTransaction) {
		return core.AxisTransaction
	}
	return core.AxisValid
}

// Mode returns the default mode, INTELLIGENT when unset.
func (p PolicySet) Mode() core.Mode {
	return core.ParseMode(p.TimeModeDefault)
}

// HardFor reports whether trigger forces HARD mode.
func (p PolicySet) HardFor(trigger string) bool {
	return slices.Contains(p.HardModeFor, trigger)
}

func (p PolicySet) clone() PolicySet {
	p.HardModeFor = slices.Clone(p.HardModeFor)
	return p
}

// PolicySets maps domain names to their policy.
// Entries that fail to decode are kept with their error so Normalize can
// drop them individually instead of rejecting the whole document.
type PolicySets map[string]PolicySet

// UnmarshalYAML implements yaml.Unmarshaler.
func (ps *PolicySets) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: policy_sets must be a mapping", ErrInvalidPolicy)
	}
	if *ps == nil {
		*ps = PolicySets{}
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		set := newPolicySet()
		if err := node.Content[i+1].Decode(&set); err != nil {
			set = PolicySet{decodeErr: err}
		}
		(*ps)[name] = set
	}
	return nil
}

// SnapRules are the signal thresholds that force INTELLIGENT to HARD.
type SnapRules struct {
	Contradiction float64 `yaml:"contradiction" json:"contradiction" validate:"gte=0,lte=1"`
	LowConfidence float64 `yaml:"low_confidence" json:"low_confidence" validate:"gte=0,lte=1"`
}

// WindowDefaults hold the padding applied to year and century windows.
type WindowDefaults struct {
	DecadePaddingYears  int `yaml:"decade_padding_years" json:"decade_padding_years" validate:"gte=0"`
	CenturyPaddingYears int `yaml:"century_padding_years" json:"century_padding_years" validate:"gte=0"`
}

// PeriodBounds names a fuzzy period such as "post-war".
type PeriodBounds struct {
	From string `yaml:"from" json:"from" validate:"required"`
	To   string `yaml:"to" json:"to" validate:"required"`
}

// Chronosanity configures conflict detection.
type Chronosanity struct {
	OverlapThreshold float64 `yaml:"overlap_threshold" json:"overlap_threshold" validate:"gte=0,lte=1"`
}

// DHQC configures the adaptive hop controller.
type DHQC struct {
	Tau            float64 `yaml:"tau" json:"tau" validate:"gte=0"`
	Delta          float64 `yaml:"delta" json:"delta" validate:"gte=0"`
	NMax           int     `yaml:"n_max" json:"n_max" validate:"gte=1"`
	NHard          int     `yaml:"n_hard" json:"n_hard" validate:"gte=1"`
	FanoutCapTotal int     `yaml:"fanout_cap_total" json:"fanout_cap_total" validate:"gte=1"`
}

// Freshness configures cache markers written during ingestion.
type Freshness struct {
	Triggers              []string `yaml:"triggers" json:"triggers"`
	MarkerIntervalMinutes int      `yaml:"marker_interval_minutes" json:"marker_interval_minutes" validate:"gte=0"`
}

// JudgeSettings toggle the LLM judge.
type JudgeSettings struct {
	Enabled       bool    `yaml:"enabled" json:"enabled"`
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second" validate:"gte=0"`
}

// Config is the full policy document.
type Config struct {
	PolicyVersion       string                  `yaml:"policy_version" json:"policy_version" validate:"required"`
	PolicySets          PolicySets              `yaml:"policy_sets" json:"policy_sets"`
	SnapRules           SnapRules               `yaml:"snap_rules" json:"snap_rules"`
	TimeWindowDefaults  WindowDefaults          `yaml:"time_window_defaults" json:"time_window_defaults"`
	FuzzyPeriodMap      map[string]PeriodBounds `yaml:"fuzzy_period_map" json:"fuzzy_period_map" validate:"dive"`
	TransactionKeywords []string                `yaml:"transaction_keywords" json:"transaction_keywords"`
	Chronosanity        Chronosanity            `yaml:"chronosanity" json:"chronosanity"`
	DHQC                DHQC                    `yaml:"dhqc" json:"dhqc"`
	Freshness           Freshness               `yaml:"freshness" json:"freshness"`
	Judge               JudgeSettings           `yaml:"judge" json:"judge"`
}

// Default returns the built-in policy.
func Default() *Config {
	return &Config{
		PolicyVersion: "v0",
		PolicySets: PolicySets{
			core.DomainGeneric: {
				TimeAxisDefault:  string(core.AxisValid),
				TimeModeDefault:  string(core.ModeIntelligent),
				RetrievalWeights: DefaultWeights(),
			},
			core.DomainRoles: {
				TimeAxisDefault:  string(core.AxisValid),
				TimeModeDefault:  string(core.ModeIntelligent),
				HardModeFor:      []string{TriggerExplicitYear},
				RetrievalWeights: Weights{Alpha: 0.45, BetaTime: 0.35, GammaAuthority: 0.20, DeltaAge: 0.10, TxGamma: 0.40},
			},
			core.DomainFinance: {
				TimeAxisDefault:  string(core.AxisTransaction),
				TimeModeDefault:  string(core.ModeIntelligent),
				RetrievalWeights: DefaultWeights(),
			},
			core.DomainWorldEconomy: {
				TimeAxisDefault:  string(core.AxisValid),
				TimeModeDefault:  string(core.ModeIntelligent),
				HardModeFor:      []string{TriggerExplicitYear, TriggerExplicitPeriod},
				RetrievalWeights: Weights{Alpha: 0.50, BetaTime: 0.35, GammaAuthority: 0.15, DeltaAge: 0, TxGamma: 0.40},
			},
		},
		SnapRules:          SnapRules{Contradiction: 0.5, LowConfidence: 0.35},
		TimeWindowDefaults: WindowDefaults{DecadePaddingYears: 5, CenturyPaddingYears: 50},
		FuzzyPeriodMap: map[string]PeriodBounds{
			"post-war": {From: "1945-01-01", To: "1960-12-31"},
		},
		TransactionKeywords: []string{"as of filing", "recorded", "reported", "filed", "transaction", "restated", "amended"},
		Chronosanity:        Chronosanity{OverlapThreshold: 0.5},
		DHQC:                DHQC{Tau: 0.8, Delta: 0.2, NMax: 3, NHard: 6, FanoutCapTotal: 250000},
		Freshness:           Freshness{Triggers: []string{"sec.gov", "filing", "press"}, MarkerIntervalMinutes: 60},
		Judge:               JudgeSettings{RatePerSecond: 2},
	}
}

// Load reads a policy file on top of Default. A missing file yields
// Default unchanged. Unknown or malformed policy sets are dropped and logged.
func Load(path string, logger *slog.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading policy %s: %w", path, err)
	}
	return Parse(data, logger)
}

// Parse decodes YAML on top of Default, then normalizes and validates it.
func Parse(data []byte, logger *slog.Logger) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	cfg.Normalize(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize drops policy sets that failed to decode or validate and
// restores a missing generic set. It returns the names it dropped.
func (c *Config) Normalize(logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	if c.PolicySets == nil {
		c.PolicySets = PolicySets{}
	}
	var dropped []string
	for _, name := range slices.Sorted(maps.Keys(c.PolicySets)) {
		set := c.PolicySets[name]
		err := set.decodeErr
		if err == nil {
			err = validate.Struct(set)
		}
		if err != nil {
			logger.Warn("dropping policy set", "domain", name, "err", fmt.Errorf("%w: %w", ErrInvalidPolicy, err))
			delete(c.PolicySets, name)
			dropped = append(dropped, name)
		}
	}
	if _, ok := c.PolicySets[core.DomainGeneric]; !ok {
		c.PolicySets[core.DomainGeneric] = Default().PolicySets[core.DomainGeneric]
	}
	return dropped
}

// Validate checks the non-set fields of the document.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	for name, set := range c.PolicySets {
		if set.decodeErr != nil {
			return fmt.Errorf("%w: policy set %s: %w", ErrInvalidPolicy, name, set.decodeErr)
		}
		if err := validate.Struct(set); err != nil {
			return fmt.Errorf("%w: policy set %s: %w", ErrInvalidPolicy, name, err)
		}
	}
	return nil
}

// PolicyFor returns the set for domain, falling back to generic.
func (c *Config) PolicyFor(domain string) PolicySet {
	if set, ok := c.PolicySets[domain]; ok {
		return set
	}
	if set, ok := c.PolicySets[core.DomainGeneric]; ok {
		return set
	}
	return Default().PolicySets[core.DomainGeneric]
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.PolicySets = make(PolicySets, len(c.PolicySets))
	for k, v := range c.PolicySets {
		out.PolicySets[k] = v.clone()
	}
	out.FuzzyPeriodMap = maps.Clone(c.FuzzyPeriodMap)
	out.TransactionKeywords = slices.Clone(c.TransactionKeywords)
	out.Freshness.Triggers = slices.Clone(c.Freshness.Triggers)
	return &out
}
