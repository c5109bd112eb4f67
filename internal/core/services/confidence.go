package services

import (
	"math"

	"lead-scoring-service/internal/core/domain"
)

// ConfidenceInterval computes a Wald interval for a Bernoulli conversion
// rate given as a percentage. n is the number of predictions. A normal
// approximation is used: it is a poor estimate for small n or rates near
// 0/100, and after clamping to [0,100] the interval may fail to bracket the
// point estimate. That limitation is accepted, not corrected.
func ConfidenceInterval(ratePercent float64, n int64, confidence float64) domain.ConfidenceInterval {
	if n == 0 {
		return domain.ConfidenceInterval{}
	}

	p := ratePercent / 100
	se := math.Sqrt(p * (1 - p) / float64(n))

	z := 1.645
	if confidence == 0.95 {
		z = 1.96
	}

	margin := z * se
	return domain.ConfidenceInterval{
		Lower: math.Max(0, (p-margin)*100),
		Upper: math.Min(100, (p+margin)*100),
	}
}
