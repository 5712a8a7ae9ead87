// Package stats provides the small-sample statistics the analytics stages
// run on daily count series: mean, sample deviation, ordinary least squares
// with slope significance, and Pearson correlation. Series never exceed a
// few dozen points, so everything is computed directly.
package stats

import "math"

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1) around the given mean.
// Fewer than two samples yield 0.
func StdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// Regression is an ordinary least squares fit of y on x.
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
	// PValue is the two-sided significance of the slope (t distribution,
	// n-2 degrees of freedom). NaN when the test is undefined, e.g. a
	// constant series or fewer than three points.
	PValue float64
	N      int
}

// OLS fits y = intercept + slope*x. Inputs must be the same length.
func OLS(x, y []float64) Regression {
	n := len(x)
	if n != len(y) || n < 2 {
		return Regression{Slope: math.NaN(), Intercept: math.NaN(), RSquared: math.NaN(), PValue: math.NaN(), N: n}
	}

	fn := float64(n)
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
	}

	sxx := sumXX - sumX*sumX/fn
	sxy := sumXY - sumX*sumY/fn
	syy := sumYY - sumY*sumY/fn
	if sxx == 0 {
		return Regression{Slope: math.NaN(), Intercept: math.NaN(), RSquared: math.NaN(), PValue: math.NaN(), N: n}
	}

	slope := sxy / sxx
	intercept := (sumY - slope*sumX) / fn

	rSquared := math.NaN()
	if syy > 0 {
		r := sxy / math.Sqrt(sxx*syy)
		rSquared = r * r
	}

	pValue := math.NaN()
	if n > 2 {
		sse := syy - slope*sxy
		if sse < 0 {
			sse = 0
		}
		df := float64(n - 2)
		se := math.Sqrt(sse / df / sxx)
		t := slope / se
		pValue = twoSidedTPValue(t, df)
	}

	return Regression{Slope: slope, Intercept: intercept, RSquared: rSquared, PValue: pValue, N: n}
}

// Pearson returns the correlation coefficient of two equal-length series,
// or NaN when it is undefined (mismatched lengths, <2 points, zero variance).
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return math.NaN()
	}

	meanX := Mean(x)
	meanY := Mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// twoSidedTPValue converts a t statistic into a two-sided p-value via the
// regularized incomplete beta identity p = I_{df/(df+t^2)}(df/2, 1/2).
func twoSidedTPValue(t, df float64) float64 {
	if math.IsNaN(t) || df <= 0 {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	return incompleteBeta(df/2, 0.5, df/(df+t*t))
}

// incompleteBeta computes the regularized incomplete beta function I_x(a,b)
// with the continued-fraction expansion (Lentz's method).
func incompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lgA, _ := math.Lgamma(a)
	lgB, _ := math.Lgamma(b)
	lgAB, _ := math.Lgamma(a + b)
	front := math.Exp(lgAB - lgA - lgB + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaCF(a, b, x) / a
	}
	return 1 - front*betaCF(b, a, 1-x)/b
}

func betaCF(a, b, x float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		fpMin   = 1e-300
	)

	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < fpMin {
		d = fpMin
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpMin {
			d = fpMin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpMin {
			c = fpMin
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpMin {
			d = fpMin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpMin {
			c = fpMin
		}
		d = 1 / d
		del := d * c
		h *= del

		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}
