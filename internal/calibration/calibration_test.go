package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flowsentry/edgescore/pkg/scoring"
)

const sampleYAML = `
presets:
  - name: small-n
    variant: normal
    rows: 2
    columns: 1024
  - name: small-r
    variant: relational
    rows: 2
    columns: 1024
    factor: 0.3
  - name: small-f
    variant: filtering
    rows: 2
    columns: 1024
    factor: 0.3
    threshold: 1000
`

func writeSample(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesAllPresets(t *testing.T) {
	presets, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(presets) != 3 {
		t.Fatalf("got %d presets, want 3", len(presets))
	}
	if presets[1].Factor != 0.3 {
		t.Fatalf("presets[1].Factor = %v, want 0.3", presets[1].Factor)
	}
}

func TestBuildConstructsMatchingVariant(t *testing.T) {
	presets, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, p := range presets {
		core, err := p.Build()
		if err != nil {
			t.Fatalf("Build(%s): %v", p.Name, err)
		}
		var matches bool
		switch p.Variant {
		case VariantNormal:
			_, matches = core.(*scoring.NormalCore)
		case VariantRelational:
			_, matches = core.(*scoring.RelationalCore)
		case VariantFiltering:
			_, matches = core.(*scoring.FilteringCore)
		}
		if !matches {
			t.Fatalf("Build(%s): got %T, want the %s variant", p.Name, core, p.Variant)
		}
		if core.Observe(1, 2, 1) != 0 {
			t.Fatalf("Build(%s): cold-start observe should score 0", p.Name)
		}
	}
}

func TestBuildRejectsUnknownVariant(t *testing.T) {
	p := Preset{Name: "bogus", Variant: "quantum", Rows: 2, Columns: 8}
	if _, err := p.Build(); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDistinctSeedsProduceDistinctScores(t *testing.T) {
	a := Preset{Name: "a", Variant: VariantNormal, Rows: 2, Columns: 8, Seed: 1}
	b := Preset{Name: "b", Variant: VariantNormal, Rows: 2, Columns: 8, Seed: 2}

	coreA, err := a.Build()
	if err != nil {
		t.Fatalf("Build(a): %v", err)
	}
	coreB, err := b.Build()
	if err != nil {
		t.Fatalf("Build(b): %v", err)
	}

	var scoresA, scoresB []float64
	ts := uint64(1)
	for i := 0; i < 50; i++ {
		if i%5 == 0 {
			ts++
		}
		scoresA = append(scoresA, coreA.Observe(uint64(i%7), uint64(i%3), ts))
		scoresB = append(scoresB, coreB.Observe(uint64(i%7), uint64(i%3), ts))
	}

	for i := range scoresA {
		if scoresA[i] != scoresB[i] {
			return
		}
	}
	t.Fatal("presets with different seeds produced identical scores over the whole stream")
}

func TestSameSeedProducesReproducibleScores(t *testing.T) {
	a := Preset{Name: "a", Variant: VariantNormal, Rows: 2, Columns: 8, Seed: 9}
	b := Preset{Name: "b", Variant: VariantNormal, Rows: 2, Columns: 8, Seed: 9}

	coreA, err := a.Build()
	if err != nil {
		t.Fatalf("Build(a): %v", err)
	}
	coreB, err := b.Build()
	if err != nil {
		t.Fatalf("Build(b): %v", err)
	}

	ts := uint64(1)
	for i := 0; i < 50; i++ {
		if i%5 == 0 {
			ts++
		}
		got := coreA.Observe(uint64(i%7), uint64(i%3), ts)
		want := coreB.Observe(uint64(i%7), uint64(i%3), ts)
		if got != want {
			t.Fatalf("observe %d: same-seed scores diverged: %v != %v", i, got, want)
		}
	}
}
