package memory

import "math"

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b, given a's precomputed
// norm. Zero vectors score 0. The result is clamped to [-1, 1].
func Cosine(a []float32, aNorm float64, b []float32) float64 {
	bNorm := Norm(b)
	if aNorm == 0 || bNorm == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return max(-1, min(1, dot/(aNorm*bNorm)))
}
