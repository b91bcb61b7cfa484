package device

// Device calibration constants. The 11 bit sample mask and the affine mapping
// to dBm come from the vendor protocol; do not tune them without hardware to
// verify against.
const (
	sampleMask      = 0x07FF
	sampleZeroLevel = 800.0
	sampleScale     = 10.0
)

// DecodeAmplitudes converts a raw scan payload into calibrated amplitudes in
// dBm, one per byte pair. Bytes are consumed as big endian 16 bit values in
// transmission order with the upper 5 bits masked off. An odd trailing byte is
// ignored.
func DecodeAmplitudes(payload []byte, attenuationDb int) []float64 {
	amplitudes := make([]float64, 0, len(payload)/2)
	for i := 0; i+1 < len(payload); i += 2 {
		sample := (uint16(payload[i])<<8 | uint16(payload[i+1])) & sampleMask
		amplitudes = append(amplitudes, (sampleZeroLevel-float64(sample))/sampleScale-float64(attenuationDb)/100.0)
	}
	return amplitudes
}
