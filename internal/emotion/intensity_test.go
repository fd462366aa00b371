package emotion

import (
	"math"
	"testing"
)

func TestNewTrackerStartsAtBaseline(t *testing.T) {
	tr := NewTracker(StateNeutral, 0.1)
	if tr.Mood() != StateNeutral || tr.Intensity() != BaselineIntensity {
		t.Fatalf("unexpected initial tracker: %s/%f", tr.Mood(), tr.Intensity())
	}
}

func TestTrackerSetClamps(t *testing.T) {
	tr := NewTracker(StateNeutral, 0.1)

	tr.Set(StateHappy, 0.8)
	if tr.Mood() != StateHappy || tr.Intensity() != 0.8 {
		t.Fatalf("unexpected tracker: %s/%f", tr.Mood(), tr.Intensity())
	}

	tr.Set(StateHappy, 1.5)
	if tr.Intensity() != 1.0 {
		t.Fatalf("expected 1.0, got %f", tr.Intensity())
	}

	tr.Set(StateSad, -0.5)
	if tr.Mood() != StateSad || tr.Intensity() != 0.0 {
		t.Fatalf("expected sad/0.0, got %s/%f", tr.Mood(), tr.Intensity())
	}

	tr.Set(StateSad, math.NaN())
	if tr.Intensity() != 0.0 {
		t.Fatalf("expected NaN to clamp to 0, got %f", tr.Intensity())
	}
}

func TestTrackerDecayReturnsToBase(t *testing.T) {
	tr := NewTracker(StateNeutral, 0.1)
	tr.Set(StateHappy, 0.8)

	prev := tr.Intensity()
	for i := 0; i < 20 && tr.Mood() != StateNeutral; i++ {
		tr.Decay(0.1)
		if tr.Mood() == StateNeutral {
			break
		}
		if tr.Intensity() >= prev {
			t.Fatalf("expected intensity to strictly decrease, %f -> %f", prev, tr.Intensity())
		}
		prev = tr.Intensity()
	}

	if tr.Mood() != StateNeutral {
		t.Fatalf("expected mood to reset to base, got %s", tr.Mood())
	}
	if tr.Intensity() != BaselineIntensity {
		t.Fatalf("expected baseline intensity, got %f", tr.Intensity())
	}

	tr.Decay(0.1)
	tr.Step()
	if tr.Mood() != StateNeutral || tr.Intensity() != BaselineIntensity {
		t.Fatalf("expected decay at base to be a no-op, got %s/%f", tr.Mood(), tr.Intensity())
	}
}

func TestTrackerStepUsesConfiguredRate(t *testing.T) {
	tr := NewTracker(StateNeutral, 0.25)
	tr.Set(StateExcited, 1)
	tr.Step()
	if tr.Intensity() != 0.75 {
		t.Fatalf("expected 0.75, got %f", tr.Intensity())
	}
}

func TestTrackerInvalidBaseFallsBackToNeutral(t *testing.T) {
	tr := NewTracker(State("bored"), 0.1)
	if tr.Base() != StateNeutral {
		t.Fatalf("expected neutral base, got %s", tr.Base())
	}
}

func TestTrackerDecayIgnoresInvalidRates(t *testing.T) {
	tr := NewTracker(StateNeutral, 0.1)
	tr.Set(StateHappy, 0.8)

	for _, rate := range []float64{-0.5, 0, math.NaN()} {
		tr.Decay(rate)
		if tr.Mood() != StateHappy || tr.Intensity() != 0.8 {
			t.Fatalf("rate %v: expected happy/0.8, got %s/%f", rate, tr.Mood(), tr.Intensity())
		}
	}

	tr.Decay(5)
	if tr.Mood() != StateNeutral || tr.Intensity() != BaselineIntensity {
		t.Fatalf("expected reset to base after large rate, got %s/%f", tr.Mood(), tr.Intensity())
	}
}
