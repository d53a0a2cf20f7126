package machine

// SpeedOverrideSource is the narrow interface the dispatcher polls for
// the analog speed-override input (spec §4.9 step 3). It is supplemented
// from original_source/io/potentiometer.cpp, which the distilled spec
// names only by effect, not by shape.
type SpeedOverrideSource interface {
	// Poll samples the input. changed reports whether the debounced
	// value moved since the last call; percent is only meaningful when
	// changed is true.
	Poll() (percent float64, changed bool)
}

// analogReader is the narrow hardware seam: a single raw sample in
// [0, resolutionMax].
type analogReader interface {
	ReadRaw() (uint16, error)
}

// DebouncedSpeedOverride implements SpeedOverrideSource with the same
// shape as Potentiometer::update(): a fixed-size sample ring, averaged,
// mapped to [minPercent, maxPercent], gated by a hysteresis threshold and
// throttled to a fixed update period.
type DebouncedSpeedOverride struct {
	reader     analogReader
	clock      Clock
	minPercent float64
	maxPercent float64
	resolution uint16 // full-scale raw value, e.g. 1023 for a 10-bit ADC

	samples      []uint16
	sampleIdx    int
	lastUpdateS  float64
	updatePeriodS float64
	hysteresis   float64

	currentPercent float64
	initialized    bool
}

// NewDebouncedSpeedOverride constructs a source with a sampleCount-deep
// averaging ring.
func NewDebouncedSpeedOverride(reader analogReader, clock Clock, minPercent, maxPercent float64, resolution uint16, sampleCount int) *DebouncedSpeedOverride {
	if sampleCount < 1 {
		sampleCount = 1
	}
	return &DebouncedSpeedOverride{
		reader:        reader,
		clock:         clock,
		minPercent:    minPercent,
		maxPercent:    maxPercent,
		resolution:    resolution,
		samples:       make([]uint16, sampleCount),
		updatePeriodS: 0.02,
		hysteresis:    1,
	}
}

func (d *DebouncedSpeedOverride) mapToPercent(raw uint16) float64 {
	frac := float64(raw) / float64(d.resolution)
	return d.minPercent + frac*(d.maxPercent-d.minPercent)
}

// Poll implements SpeedOverrideSource.
func (d *DebouncedSpeedOverride) Poll() (float64, bool) {
	raw, err := d.reader.ReadRaw()
	if err != nil {
		return d.currentPercent, false
	}

	if !d.initialized {
		for i := range d.samples {
			d.samples[i] = raw
		}
		d.currentPercent = d.mapToPercent(raw)
		d.initialized = true
		d.lastUpdateS = d.clock()
		return d.currentPercent, false
	}

	now := d.clock()
	if now-d.lastUpdateS < d.updatePeriodS {
		return d.currentPercent, false
	}
	d.lastUpdateS = now

	d.samples[d.sampleIdx] = raw
	d.sampleIdx = (d.sampleIdx + 1) % len(d.samples)

	var sum int64
	for _, s := range d.samples {
		sum += int64(s)
	}
	avg := uint16(sum / int64(len(d.samples)))

	newPercent := d.mapToPercent(avg)
	if abs64(newPercent-d.currentPercent) >= d.hysteresis {
		d.currentPercent = newPercent
		return d.currentPercent, true
	}
	return d.currentPercent, false
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
