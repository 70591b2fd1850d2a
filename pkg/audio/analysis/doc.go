// ABOUTME: Frequency analysis of played audio
// ABOUTME: FFT analyser tap and the bar sampler that reduces it for display
// Package analysis turns the PCM reaching the speaker into byte frequency
// bins and reduces those bins to the three bar heights the widget draws.
//
// The Analyser is fed by the output buffer as blocks are played:
//
//	an := analysis.NewAnalyser(analysis.DefaultFFTSize)
//	out := output.NewOto(format, an)
//
// and sampled once per display frame:
//
//	snap := analysis.Capture(an)
//	expanded, minimized := snap.Bars(1), snap.Bars(0.2)
package analysis
