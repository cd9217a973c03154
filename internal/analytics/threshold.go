package analytics

import (
	"errors"
	"fmt"
	"math"

	"gateway-dashboard/internal/models"
)

const (
	DefaultThreshold = 0.25
	MinThreshold     = 0.10
	MaxThreshold     = 0.60
	ThresholdStep    = 0.05

	DefaultHistogramBins = 50
)

const thresholdEpsilon = 1e-9

var (
	ErrInvalidThreshold = errors.New("invalid risk threshold")
	ErrOutOfRange       = errors.New("row index out of range")
	ErrNotAvailable     = errors.New("not available")
)

// ValidateThreshold rejects thresholds outside the slider range.
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t < MinThreshold-thresholdEpsilon || t > MaxThreshold+thresholdEpsilon {
		return fmt.Errorf("%w: %g is outside [%.2f, %.2f]", ErrInvalidThreshold, t, MinThreshold, MaxThreshold)
	}
	return nil
}

// RiskLabelFor is HIGH iff p is strictly greater than threshold.
func RiskLabelFor(p, threshold float64) models.RiskLabel {
	if p > threshold {
		return models.RiskHigh
	}
	return models.RiskLow
}
