// Package provider contains shared plumbing for provider backend clients:
// HTTP transport construction, upstream error handling, and vector math
// used by the vector-store implementations.
package provider

import "math"

// Cosine returns the cosine similarity of a and b, or 0 when the vectors
// have different lengths or zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
