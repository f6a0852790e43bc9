package embedding

import "math"

// NormalizeVector scales a vector to unit length. Cosine similarity over
// normalized vectors reduces to a dot product, which keeps scoring consistent
// across providers that do and do not normalize on their side.
func NormalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
