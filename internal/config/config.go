// Package config loads and validates the run-time Configuration spec.md
// §6 describes, following the teacher's own use of encoding/json for
// config/document loading across internal/build, internal/network, and
// internal/testing (no third-party config/flag library is warranted: the
// teacher never reaches for one either).
package config

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"mendr/internal/mutate"
	"mendr/internal/repairerr"
	"mendr/internal/search/adaptive"
	"mendr/internal/search/selection"
)

// SelectionConfig is the JSON shape of spec.md §6's
// "selection: {random | universal | tournament(k)}" option.
type SelectionConfig struct {
	Kind        string `json:"kind"`
	TournamentK int    `json:"tournament_k,omitempty"`
}

// Configuration mirrors spec.md §6's full option set: population/
// generation bounds, the evolutionary mutation and selection knobs,
// worker/timeout/scoring parameters, the statement-indexing mode, and
// the adaptive-only depth bound.
type Configuration struct {
	PopulationSize      int                    `json:"population_size"`
	MaxGenerations      int                    `json:"max_generations"`
	MutationProbability float64                `json:"mutation_probability"`
	OperatorWeights     map[mutate.Kind]float64 `json:"operator_weights,omitempty"`
	Selection           SelectionConfig        `json:"selection"`

	Workers               int     `json:"workers"`
	IsSystemTest          bool    `json:"is_system_test"`
	LineMode              bool    `json:"line_mode"`
	Excludes              []string `json:"excludes,omitempty"`
	KDepth                int     `json:"k_depth,omitempty"`
	Equivalence           string  `json:"equivalence,omitempty"`
	TimeoutPerCandidateS  float64 `json:"timeout_per_candidate_s"`
	WPos                  float64 `json:"w_pos"`
	WNeg                  float64 `json:"w_neg"`
	Seed                  int64   `json:"seed"`

	// Tests is the configured test-suite list; required whenever
	// IsSystemTest is set (spec.md §6's "is_system_test mode requires a
	// non-empty test list" validation rule).
	Tests []string `json:"tests,omitempty"`
}

// Default returns spec.md §5's stated defaults: population 40,
// generations 100, w_pos 1, w_neg 10, timeout 1800s, tournament(3)
// selection, one worker.
func Default() Configuration {
	return Configuration{
		PopulationSize:       40,
		MaxGenerations:       100,
		MutationProbability:  0.06,
		Selection:            SelectionConfig{Kind: "tournament", TournamentK: 3},
		Workers:              1,
		WPos:                 1,
		WNeg:                 10,
		TimeoutPerCandidateS: 1800,
		KDepth:               1,
		Equivalence:          "identity",
	}
}

// Load reads a JSON configuration document from r, merging it over
// Default() (unset/zero-valued JSON fields keep their default).
func Load(r io.Reader) (Configuration, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return Configuration{}, repairerr.Wrap(repairerr.ConfigurationInvalid, err, "decoding configuration JSON")
	}
	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// LoadFile opens path and delegates to Load.
func LoadFile(path string) (Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Configuration{}, repairerr.Wrap(repairerr.SourceUnavailable, err, "opening configuration file").WithLocation(path, 0)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the cross-field rules spec.md §6/§7 impose, returning
// a ConfigurationInvalid error on the first violation found.
func (c Configuration) Validate() error {
	if c.PopulationSize < 1 {
		return repairerr.New(repairerr.ConfigurationInvalid, "population_size must be >= 1")
	}
	if c.MaxGenerations < 1 {
		return repairerr.New(repairerr.ConfigurationInvalid, "max_generations must be >= 1")
	}
	if c.Workers < 1 {
		return repairerr.New(repairerr.ConfigurationInvalid, "workers must be >= 1")
	}
	if c.WPos < 0 || c.WNeg < 0 {
		return repairerr.New(repairerr.ConfigurationInvalid, "w_pos/w_neg must be non-negative")
	}
	if c.IsSystemTest && len(c.Tests) == 0 {
		return repairerr.New(repairerr.ConfigurationInvalid, "is_system_test requires a non-empty test list")
	}
	switch c.Selection.Kind {
	case "", "random", "universal":
	case "tournament":
		if c.Selection.TournamentK < 1 {
			return repairerr.New(repairerr.ConfigurationInvalid, "selection.tournament_k must be >= 1")
		}
	default:
		return repairerr.New(repairerr.ConfigurationInvalid, "unknown selection kind "+c.Selection.Kind)
	}
	switch EquivalenceKind(c.Equivalence) {
	case "", EquivalenceIdentity, EquivalenceDeadCode, EquivalenceOrder:
	default:
		return repairerr.New(repairerr.ConfigurationInvalid, "unknown equivalence kind "+c.Equivalence)
	}
	return nil
}

// EquivalenceKind is the JSON-level spelling of the three equivalence
// predicates internal/search/adaptive implements.
type EquivalenceKind = string

const (
	EquivalenceIdentity EquivalenceKind = "identity"
	EquivalenceDeadCode EquivalenceKind = "dead-code"
	EquivalenceOrder    EquivalenceKind = "order"
)

// SelectionRule converts the JSON selection config into
// internal/search/selection's Rule.
func (c Configuration) SelectionRule() selection.Rule {
	switch c.Selection.Kind {
	case "universal":
		return selection.Rule{Kind: selection.Universal}
	case "tournament":
		return selection.Rule{Kind: selection.Tournament, TournamentK: c.Selection.TournamentK}
	case "random":
		return selection.Rule{Kind: selection.Random}
	default:
		return selection.Rule{Kind: selection.Tournament, TournamentK: 3}
	}
}

// AdaptiveEquivalence converts the JSON equivalence string into
// internal/search/adaptive's EquivalenceKind, defaulting to Identity.
func (c Configuration) AdaptiveEquivalence() adaptive.EquivalenceKind {
	switch c.Equivalence {
	case string(adaptive.DeadCode):
		return adaptive.DeadCode
	case string(adaptive.Order):
		return adaptive.Order
	default:
		return adaptive.Identity
	}
}

// TimeoutPerCandidate converts TimeoutPerCandidateS to a time.Duration, 0
// meaning "no limit".
func (c Configuration) TimeoutPerCandidate() time.Duration {
	if c.TimeoutPerCandidateS <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutPerCandidateS * float64(time.Second))
}
