package scoring

import (
	"math"
	"testing"
)

func TestNormalCoreColdStartScoresZero(t *testing.T) {
	core, err := NewNormalCore(2, 8)
	if err != nil {
		t.Fatalf("NewNormalCore: %v", err)
	}

	if got := core.Observe(1, 2, 1); got != 0 {
		t.Fatalf("cold-start score = %v, want 0", got)
	}
}

func TestNormalCoreBurstySecondTick(t *testing.T) {
	core, err := NewNormalCore(2, 8)
	if err != nil {
		t.Fatalf("NewNormalCore: %v", err)
	}

	core.Observe(1, 2, 1)

	var last float64
	for i := 0; i < 10; i++ {
		last = core.Observe(1, 2, 2)
	}

	want := math.Pow((10-11.0/2)*2, 2) / (11 * 1)
	if math.Abs(last-want) > epsilon {
		t.Fatalf("tenth-call score = %v, want %v", last, want)
	}
}

func TestNormalCoreScoresAreNonNegativeAndFinite(t *testing.T) {
	core, err := NewNormalCore(3, 32)
	if err != nil {
		t.Fatalf("NewNormalCore: %v", err)
	}

	ts := uint64(1)
	for i := 0; i < 500; i++ {
		if i%7 == 0 {
			ts++
		}
		score := core.Observe(uint64(i%11), uint64(i%5), ts)
		if score < 0 || math.IsInf(score, 0) || math.IsNaN(score) {
			t.Fatalf("observe %d: score = %v, not a finite non-negative value", i, score)
		}
	}
}

func TestNormalCoreOutOfOrderIsAcceptedWithoutRollback(t *testing.T) {
	core, err := NewNormalCore(2, 8)
	if err != nil {
		t.Fatalf("NewNormalCore: %v", err)
	}
	core.SetLogger(nil)

	core.Observe(1, 2, 5)
	core.Observe(1, 2, 3) // out of order

	if core.timestamp != 5 {
		t.Fatalf("self.timestamp rolled back to %d, want 5", core.timestamp)
	}
	if core.OutOfOrderCount() != 1 {
		t.Fatalf("OutOfOrderCount = %d, want 1", core.OutOfOrderCount())
	}

	// Still incorporated: the next observation at 5 should see that
	// edge's count growing, not being reset.
	core.Observe(1, 2, 5)
	if got := core.numCurrent.Query(core.index); got != 3 {
		t.Fatalf("current count after three observations = %v, want 3", got)
	}
}

func TestNormalCoreConstructionRejectsBadDimensions(t *testing.T) {
	if _, err := NewNormalCore(0, 8); err == nil {
		t.Fatal("expected construction error for numRow=0")
	}
}

func TestNormalCoreObserveStrMatchesHashedObserve(t *testing.T) {
	a, err := NewNormalCore(2, 16)
	if err != nil {
		t.Fatalf("NewNormalCore: %v", err)
	}
	b, err := NewNormalCore(2, 16)
	if err != nil {
		t.Fatalf("NewNormalCore: %v", err)
	}

	gotStr := a.ObserveStr("alice", "bob", 1)
	gotInt := b.Observe(HashString("alice"), HashString("bob"), 1)

	if gotStr != gotInt {
		t.Fatalf("ObserveStr = %v, Observe(hashed) = %v", gotStr, gotInt)
	}
}
