package scoring

import (
	"math"
	"testing"
)

func TestRelationalCoreScoresAtLeastAsHighAsNormal(t *testing.T) {
	normal, err := NewNormalCore(2, 8)
	if err != nil {
		t.Fatalf("NewNormalCore: %v", err)
	}
	relational, err := NewRelationalCore(2, 8, 0.5)
	if err != nil {
		t.Fatalf("NewRelationalCore: %v", err)
	}

	normal.Observe(1, 2, 1)
	relational.Observe(1, 2, 1)
	normal.Observe(3, 4, 1)
	relational.Observe(3, 4, 1)

	normalScore := normal.Observe(1, 2, 2)
	relationalScore := relational.Observe(1, 2, 2)

	if relationalScore < normalScore-epsilon {
		t.Fatalf("relational score %v < normal score %v on the same stream", relationalScore, normalScore)
	}
}

func TestRelationalCoreConstructionDefaultsFactor(t *testing.T) {
	core, err := NewRelationalCore(2, 8, 0)
	if err != nil {
		t.Fatalf("NewRelationalCore: %v", err)
	}
	if core.factor != DefaultFactor {
		t.Fatalf("factor = %v, want default %v", core.factor, DefaultFactor)
	}
}

func TestRelationalCoreConstructionRejectsBadFactor(t *testing.T) {
	if _, err := NewRelationalCore(2, 8, 1.5); err == nil {
		t.Fatal("expected construction error for factor > 1")
	}
	if _, err := NewRelationalCore(2, 8, -0.1); err == nil {
		t.Fatal("expected construction error for factor < 0")
	}
}

func TestRelationalCoreHigherFactorRetainsMoreBurst(t *testing.T) {
	run := func(factor float64) float64 {
		core, err := NewRelationalCore(2, 64, factor)
		if err != nil {
			t.Fatalf("NewRelationalCore: %v", err)
		}
		core.Observe(1, 2, 1)
		core.Observe(1, 2, 1)
		return core.Observe(1, 2, 2)
	}

	low := run(0.1)
	high := run(0.9)

	if high < low-epsilon {
		t.Fatalf("score with factor=0.9 (%v) < score with factor=0.1 (%v)", high, low)
	}
}

func TestRelationalCoreScoresAreNonNegativeAndFinite(t *testing.T) {
	core, err := NewRelationalCore(3, 32, 0.5)
	if err != nil {
		t.Fatalf("NewRelationalCore: %v", err)
	}
	ts := uint64(1)
	for i := 0; i < 500; i++ {
		if i%5 == 0 {
			ts++
		}
		score := core.Observe(uint64(i%13), uint64(i%7), ts)
		if score < 0 || math.IsInf(score, 0) || math.IsNaN(score) {
			t.Fatalf("observe %d: score = %v, not a finite non-negative value", i, score)
		}
	}
}
