package file

import "math"

// cosineSimilarity returns the cosine of the angle between a and b:
// dot product over the product of Euclidean norms, in [-1, 1].
// ok is false when the lengths differ or either vector has zero
// magnitude, in which case the similarity is undefined.
func cosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
