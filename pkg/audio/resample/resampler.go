// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Carries interpolation state across chunks
package resample

// Resampler performs linear interpolation between two sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64
	position   float64 // fractional read position relative to prev
	prev       []int32 // last input frame of the previous call
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	if channels <= 0 {
		channels = 1
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       float64(inputRate) / float64(outputRate),
		prev:       make([]int32, channels),
	}
}

// Passthrough reports whether the rates match and Process is a copy
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Process converts interleaved input samples and returns interleaved output.
// Output produced for one call depends on frames seen in earlier calls.
func (r *Resampler) Process(input []int32) []int32 {
	frames := len(input) / r.channels
	if frames == 0 {
		return nil
	}
	if r.Passthrough() {
		out := make([]int32, frames*r.channels)
		copy(out, input)
		return out
	}

	// frame(-1) is prev, frame(i) is input[i]
	frame := func(i, ch int) int32 {
		if i < 0 {
			return r.prev[ch]
		}
		return input[i*r.channels+ch]
	}

	start := -1
	if !r.primed {
		start = 0
		r.primed = true
	}

	out := make([]int32, 0, int(float64(frames)/r.step+2)*r.channels)
	for {
		idx := start + int(r.position)
		if idx+1 >= frames {
			break
		}
		frac := r.position - float64(int(r.position))
		for ch := 0; ch < r.channels; ch++ {
			a := float64(frame(idx, ch))
			b := float64(frame(idx+1, ch))
			out = append(out, int32(a+(b-a)*frac))
		}
		r.position += r.step
	}

	// Rebase position so that the last input frame becomes prev
	consumed := float64(frames - 1 - start)
	r.position -= consumed
	if r.position < 0 {
		r.position = 0
	}
	copy(r.prev, input[(frames-1)*r.channels:frames*r.channels])

	return out
}

// Reset drops carried state, used when a new stream starts
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.prev {
		r.prev[i] = 0
	}
}
