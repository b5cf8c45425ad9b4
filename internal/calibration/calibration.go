// Package calibration loads named scoring-core construction presets
// from YAML, the same way the ambient config layer this module was
// grown from loads its aggregator definitions.
package calibration

import (
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flowsentry/edgescore/pkg/scoring"
)

// Variant selects which core a Preset builds.
type Variant string

const (
	VariantNormal     Variant = "normal"
	VariantRelational Variant = "relational"
	VariantFiltering  Variant = "filtering"
)

// Preset is one named set of constructor arguments for a scoring core.
type Preset struct {
	Name      string  `yaml:"name"`
	Variant   Variant `yaml:"variant"`
	Rows      int     `yaml:"rows"`
	Columns   int     `yaml:"columns"`
	Factor    float64 `yaml:"factor"`
	Threshold float64 `yaml:"threshold"`
	// Seed draws the preset's hash parameters reproducibly-but-distinctly
	// from other presets. Zero selects the package's fixed default seed.
	Seed uint64 `yaml:"seed"`
}

// File is the top-level shape of a calibration YAML document.
type File struct {
	Presets []Preset `yaml:"presets"`
}

// Load reads and parses a calibration file.
func Load(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calibration: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("calibration: parse %s: %w", path, err)
	}

	return f.Presets, nil
}

// Build constructs the core described by the preset. If Seed is set,
// the core's hash parameters are drawn from a PCG source seeded with it
// instead of the package default, so distinct presets can be given
// distinct (but each individually reproducible) sketch layouts.
func (p Preset) Build() (scoring.Core, error) {
	var rng *rand.Rand
	if p.Seed != 0 {
		rng = rand.New(rand.NewPCG(p.Seed, p.Seed))
	}

	switch p.Variant {
	case VariantNormal:
		if rng == nil {
			return scoring.NewNormalCore(p.Rows, p.Columns)
		}
		return scoring.NewNormalCoreWithRand(p.Rows, p.Columns, rng)
	case VariantRelational:
		if rng == nil {
			return scoring.NewRelationalCore(p.Rows, p.Columns, p.Factor)
		}
		return scoring.NewRelationalCoreWithRand(p.Rows, p.Columns, p.Factor, rng)
	case VariantFiltering:
		if rng == nil {
			return scoring.NewFilteringCore(p.Rows, p.Columns, p.Threshold, p.Factor)
		}
		return scoring.NewFilteringCoreWithRand(p.Rows, p.Columns, p.Threshold, p.Factor, rng)
	default:
		return nil, fmt.Errorf("calibration: preset %q: unknown variant %q", p.Name, p.Variant)
	}
}
