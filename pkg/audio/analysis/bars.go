// ABOUTME: Bar sampler reducing a spectrum to three display bars
// ABOUTME: Center bin plus the two bins adjacent to it, scaled per view
package analysis

// BarCount is the number of bars drawn by the widget
const BarCount = 3

// BarHeights are percentage-like bar magnitudes
type BarHeights [BarCount]float64

// Tap is anything that reports byte frequency bins
type Tap interface {
	FrequencyBinCount() int
	ByteFrequencyData(dst []uint8)
}

// Snapshot is one read of a tap, shared by every view of the same frame
type Snapshot struct {
	bins []uint8
}

// Capture reads the tap once
func Capture(tap Tap) Snapshot {
	if tap == nil {
		return Snapshot{}
	}
	bins := make([]uint8, tap.FrequencyBinCount())
	tap.ByteFrequencyData(bins)
	return Snapshot{bins: bins}
}

// NewSnapshot wraps already-read bins
func NewSnapshot(bins []uint8) Snapshot {
	return Snapshot{bins: bins}
}

// Bars maps the snapshot to bar heights. Bar i reads bin N/2 - |1-i|,
// so the middle bar shows the middle bin and the outer bars its neighbour.
func (s Snapshot) Bars(scale float64) BarHeights {
	var bars BarHeights
	n := len(s.bins)
	if n == 0 {
		return bars
	}

	for i := 0; i < BarCount; i++ {
		d := 1 - i
		if d < 0 {
			d = -d
		}
		idx := n/2 - d
		if idx < 0 || idx >= n {
			continue
		}
		fraction := float64(s.bins[idx]) / 255
		bars[i] = 3 * fraction * 100 * scale
	}
	return bars
}

// Sample reads tap and returns its bars at scale
func Sample(tap Tap, scale float64) BarHeights {
	return Capture(tap).Bars(scale)
}
