// Package wave reads PCM sample data from RIFF/WAVE files, such as cabinet
// impulse responses destined for a FlexFX device's RAM properties page.
//
// Samples are returned as int32 values scaled to the full 32-bit range, the
// Q31 layout the device's convolution engine expects:
//
//	w, err := wave.Parse("cabinet.wav")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d samples at %d Hz\n", len(w.Samples), w.SampleRate)
package wave
