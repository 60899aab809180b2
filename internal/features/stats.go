package features

import "math"

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// popStd is the population standard deviation (divisor n, not n-1).
func popStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// olsSlope is the slope of an ordinary-least-squares fit of y against x.
// Fewer than 2 points, or zero variance in x, yields a flat 0 slope.
func olsSlope(x, y []float64) float64 {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0
	}
	mx := mean(x)
	my := mean(y)
	var num, den float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		num += dx * (y[i] - my)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// floorDiv divides with flooring so negative day offsets land in negative
// week buckets instead of week 0.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// posMod is the non-negative remainder of a mod b.
func posMod(a, b int) int {
	return ((a % b) + b) % b
}
