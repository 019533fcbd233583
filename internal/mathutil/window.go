// Package mathutil provides the window functions used by the spectral
// transforms that feed the heightmap.
package mathutil

import "math"

// BesselI0 computes the modified Bessel function of the first kind, order zero.
func BesselI0(x float64) float64 {
	ax := math.Abs(x)
	if ax < besselSplit {
		t := x / besselSplit
		t *= t
		return 1 + t*(besselSmallC1+t*(besselSmallC2+t*(besselSmallC3+
			t*(besselSmallC4+t*(besselSmallC5+t*besselSmallC6)))))
	}

	t := besselSplit / ax
	p := besselLargeC0 + t*(besselLargeC1+t*(besselLargeC2+t*(besselLargeC3+
		t*(besselLargeC4+t*(besselLargeC5+t*(besselLargeC6+t*(besselLargeC7+t*besselLargeC8)))))))
	return math.Exp(ax) * p / math.Sqrt(ax)
}

// KaiserBeta returns the Kaiser window β that reaches the given sidelobe
// attenuation in dB.
func KaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserHighAtt:
		return kaiserHighSlope * (attenuation - kaiserHighShift)
	case attenuation >= kaiserLowAtt:
		d := attenuation - kaiserLowAtt
		return kaiserMidCoeff*math.Pow(d, kaiserMidPower) + kaiserMidSlope*d
	default:
		return 0
	}
}

// Kaiser returns a symmetric Kaiser window of length n.
func Kaiser(n int, beta float64) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	norm := BesselI0(beta)
	half := float64(n-1) / 2
	for i := range w {
		r := (float64(i) - half) / half
		w[i] = BesselI0(beta*math.Sqrt(max(0, 1-r*r))) / norm
	}
	return w
}

// Hann returns a periodic Hann window of length n, suitable for
// overlap-add at 50% hop.
func Hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
