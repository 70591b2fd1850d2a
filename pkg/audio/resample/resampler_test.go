// ABOUTME: Tests for the streaming resampler
// ABOUTME: Verifies interpolation and continuity across chunk boundaries
package resample

import (
	"reflect"
	"testing"
)

func TestResampleUpsampleAcrossChunks(t *testing.T) {
	r := New(1, 2, 1)

	first := r.Process([]int32{0, 100, 200})
	if want := []int32{0, 50, 100, 150}; !reflect.DeepEqual(first, want) {
		t.Fatalf("first chunk: expected %v, got %v", want, first)
	}

	second := r.Process([]int32{300})
	if want := []int32{200, 250}; !reflect.DeepEqual(second, want) {
		t.Fatalf("second chunk: expected %v, got %v", want, second)
	}
}

func TestResampleDownsample(t *testing.T) {
	r := New(2, 1, 1)

	first := r.Process([]int32{0, 10, 20, 30, 40})
	if want := []int32{0, 20}; !reflect.DeepEqual(first, want) {
		t.Fatalf("expected %v, got %v", want, first)
	}

	second := r.Process([]int32{50, 60})
	if want := []int32{40}; !reflect.DeepEqual(second, want) {
		t.Fatalf("expected %v, got %v", want, second)
	}
}

func TestResampleStereoKeepsChannels(t *testing.T) {
	r := New(1, 2, 2)

	out := r.Process([]int32{0, 1000, 100, 900})
	want := []int32{0, 1000, 50, 950}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
}

func TestResamplePassthrough(t *testing.T) {
	r := New(48000, 48000, 2)
	if !r.Passthrough() {
		t.Fatal("expected passthrough for equal rates")
	}

	in := []int32{1, 2, 3, 4}
	out := r.Process(in)
	if !reflect.DeepEqual(in, out) {
		t.Errorf("expected copy of input, got %v", out)
	}
	out[0] = 99
	if in[0] != 1 {
		t.Error("passthrough must not alias the input")
	}
}

func TestResampleReset(t *testing.T) {
	r := New(1, 2, 1)
	r.Process([]int32{0, 100, 200})
	r.Reset()

	out := r.Process([]int32{10, 20})
	if want := []int32{10, 15}; !reflect.DeepEqual(out, want) {
		t.Fatalf("expected %v after reset, got %v", want, out)
	}
}

func TestResampleEmptyInput(t *testing.T) {
	r := New(24000, 48000, 2)
	if out := r.Process(nil); out != nil {
		t.Errorf("expected nil for empty input, got %v", out)
	}
}
