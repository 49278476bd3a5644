package metrics

import "math"

// round rounds half up (toward +Inf), so -2.5 becomes -2 rather than -3.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}

func roundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return round(x*p) / p
}
