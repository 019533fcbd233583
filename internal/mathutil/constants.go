package mathutil

// Polynomial approximation of I₀ from Abramowitz & Stegun 9.8.1 and 9.8.2.
const (
	besselSplit = 3.75

	besselSmallC1 = 3.5156229
	besselSmallC2 = 3.0899424
	besselSmallC3 = 1.2067492
	besselSmallC4 = 0.2659732
	besselSmallC5 = 0.360768e-1
	besselSmallC6 = 0.45813e-2

	besselLargeC0 = 0.39894228
	besselLargeC1 = 0.1328592e-1
	besselLargeC2 = 0.225319e-2
	besselLargeC3 = -0.157565e-2
	besselLargeC4 = 0.916281e-2
	besselLargeC5 = -0.2057706e-1
	besselLargeC6 = 0.2635537e-1
	besselLargeC7 = -0.1647633e-1
	besselLargeC8 = 0.392377e-2
)

// Kaiser's empirical β formula, attenuation in dB.
const (
	kaiserHighAtt   = 50.0
	kaiserLowAtt    = 21.0
	kaiserHighSlope = 0.1102
	kaiserHighShift = 8.7
	kaiserMidCoeff  = 0.5842
	kaiserMidPower  = 0.4
	kaiserMidSlope  = 0.07886
)
