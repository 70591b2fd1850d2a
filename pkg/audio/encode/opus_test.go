// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests Opus encoding functionality
package encode

import (
	"strings"
	"testing"
)

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name        string
		sampleRate  int
		channels    int
		wantErr     bool
		errContains string
	}{
		{name: "48kHz mono", sampleRate: 48000, channels: 1},
		{name: "16kHz stereo", sampleRate: 16000, channels: 2},
		{name: "44.1kHz", sampleRate: 44100, channels: 1, wantErr: true, errContains: "sample rate"},
		{name: "six channels", sampleRate: 48000, channels: 6, wantErr: true, errContains: "channel count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.sampleRate, tt.channels)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewOpus() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewOpus() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpus() unexpected error = %v", err)
			}
			if encoder.FrameSize() != tt.sampleRate/50 {
				t.Errorf("expected frame size %d, got %d", tt.sampleRate/50, encoder.FrameSize())
			}
			encoder.Close()
		})
	}
}

func TestOpusEncoder_Encode(t *testing.T) {
	encoder, err := NewOpus(48000, 1)
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	samples := make([]int32, encoder.FrameSize())
	for i := range samples {
		samples[i] = int32((i % 100) * 40000)
	}

	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(output) == 0 {
		t.Error("Encode() returned empty output")
	}
	if len(output) > maxPacketSize {
		t.Errorf("Encode() output size %d exceeds max Opus packet size", len(output))
	}
}

func TestOpusEncoder_EncodeShortFrame(t *testing.T) {
	encoder, err := NewOpus(48000, 1)
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	output, err := encoder.Encode(make([]int32, 100))
	if err != nil {
		t.Fatalf("Encode() of short frame failed: %v", err)
	}
	if len(output) == 0 {
		t.Error("Encode() returned empty output for padded frame")
	}
}

func TestOpusEncoder_EncodeTooLong(t *testing.T) {
	encoder, err := NewOpus(48000, 1)
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	if _, err := encoder.Encode(make([]int32, encoder.FrameSize()+1)); err == nil {
		t.Error("expected error for oversized frame")
	}
}
