// internal/profile/profile_test.go
package profile

import "testing"

func TestRegistry_Count(t *testing.T) {
	if Count() != 7 {
		t.Fatalf("expected 7 profiles, got %d", Count())
	}
}

func TestByID_OutOfRangeYieldsDefault(t *testing.T) {
	for _, id := range []int{-1, Count(), 999} {
		p, ok := ByID(id)
		if ok {
			t.Fatalf("id %d: expected ok=false", id)
		}
		if p.Name != "Generic" {
			t.Fatalf("id %d: expected default profile, got %q", id, p.Name)
		}
	}
}

func TestByID_ValidIndices(t *testing.T) {
	for id := 0; id < Count(); id++ {
		p, ok := ByID(id)
		if !ok {
			t.Fatalf("id %d: expected ok=true", id)
		}
		if p.Name == "" {
			t.Fatalf("id %d: empty name", id)
		}
		if p.RecommendedInterval <= 0 {
			t.Fatalf("id %d: no recommended interval", id)
		}
	}
}

func TestDescribe_KnownAndFallback(t *testing.T) {
	if got := Describe(4, 0); got != "Phase 1 voltage (V)" {
		t.Fatalf("eastron addr 0: got %q", got)
	}
	if got := Describe(4, 17); got != "Register 17" {
		t.Fatalf("eastron unknown addr: got %q", got)
	}
	// Generic profile has no description table at all.
	if got := Describe(0, 5); got != "Register 5" {
		t.Fatalf("generic addr 5: got %q", got)
	}
}

func TestPresets_GeometryWithinBounds(t *testing.T) {
	for id := 0; id < Count(); id++ {
		p, _ := ByID(id)
		for _, pr := range p.Presets {
			if pr.Count == 0 {
				t.Fatalf("profile %q preset %q: zero count", p.Name, pr.Name)
			}
			if pr.Name == "" {
				t.Fatalf("profile %q: unnamed preset", p.Name)
			}
		}
	}
}

func TestFloatProfilesDeclareEvenPresets(t *testing.T) {
	for id := 0; id < Count(); id++ {
		p, _ := ByID(id)
		if !p.FloatPairs {
			continue
		}
		for _, pr := range p.Presets {
			if pr.Count%2 != 0 {
				t.Fatalf("profile %q preset %q: odd count %d for float pairs", p.Name, pr.Name, pr.Count)
			}
		}
	}
}
