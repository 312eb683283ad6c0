package analysis

import "math"

// ratio divides with a denominator floor of 1, so empty inputs yield 0
// instead of NaN or a division panic.
func ratio(num, den float64) float64 {
	return num / math.Max(den, 1)
}

func clip(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp01(x float64) float64 { return clip(x, 0, 1) }

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// Round rounds half away from zero to the given number of decimals.
func Round(x float64, places int) float64 {
	if places < 0 {
		return x
	}
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
