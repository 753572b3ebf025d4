package quantizer

// Quantizer maps counter values onto 8-bit levels, e.g. for rendering.
type Quantizer interface {
	Fit(values []uint32) error
	Quantize(v uint32) uint8
}
