package emotion

// BaselineIntensity is the intensity a tracker rests at.
const BaselineIntensity = 0.5

// Tracker keeps a mood tag and its intensity, decaying toward a base mood.
// It runs alongside a Machine and is not synchronized with it.
type Tracker struct {
	mood      State
	intensity float64
	base      State
	decayRate float64
}

// NewTracker returns a Tracker resting at base.
func NewTracker(base State, decayRate float64) *Tracker {
	if !base.Valid() {
		base = StateNeutral
	}
	return &Tracker{
		mood:      base,
		intensity: BaselineIntensity,
		base:      base,
		decayRate: decayRate,
	}
}

// Set replaces the mood and stores the clamped intensity.
func (t *Tracker) Set(mood State, intensity float64) {
	if mood.Valid() {
		t.mood = mood
	}
	t.intensity = ClampIntensity(intensity)
}

// Decay lowers intensity by rate while away from the base mood.
// Reaching zero resets to the base mood at baseline intensity.
// Non-positive and NaN rates are ignored.
func (t *Tracker) Decay(rate float64) {
	if t.mood == t.base || !(rate > 0) {
		return
	}
	t.intensity = ClampIntensity(t.intensity - rate)
	if t.intensity <= 0 {
		t.mood = t.base
		t.intensity = BaselineIntensity
	}
}

// Step decays by the configured rate.
func (t *Tracker) Step() {
	t.Decay(t.decayRate)
}

func (t *Tracker) Mood() State {
	return t.mood
}

func (t *Tracker) Intensity() float64 {
	return t.intensity
}

func (t *Tracker) Base() State {
	return t.base
}
