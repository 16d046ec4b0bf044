package engine

import (
	"math"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/models"
	"github.com/clusterpulse/aiops-engine/internal/utils"
)

// Forecast defaults when the caller does not specify them.
const (
	DefaultForecastPoints   = 12
	DefaultForecastInterval = 5 * time.Minute
)

// ForecastLoad extrapolates near-future CPU load from the history window
// (oldest first, current point last) using ordinary least squares over the
// sample index. An empty history yields a stable/low default with no series.
func ForecastLoad(history []models.FeatureVector, points int, interval time.Duration, now utils.NowFunc) models.ForecastResult {
	if points <= 0 {
		points = DefaultForecastPoints
	}
	if interval <= 0 {
		interval = DefaultForecastInterval
	}
	if now == nil {
		now = utils.SystemClock
	}

	if len(history) == 0 {
		return models.ForecastResult{
			PredictedPeak: 0,
			PeakTime:      now(),
			Trend:         models.TrendStable,
			RiskLevel:     models.RiskLow,
			Confidence:    0.6,
			Series:        []models.ForecastPoint{},
		}
	}

	values := make([]float64, len(history))
	for i, point := range history {
		values[i] = point.CPUUsage
	}

	slope, intercept := linearRegression(values)
	n := len(values)
	baseTS := history[len(history)-1].Timestamp
	width := 4.0 + math.Abs(slope)

	series := make([]models.ForecastPoint, 0, points)
	for i := 1; i <= points; i++ {
		predicted := clamp(intercept+slope*float64(n+i), 0, 100)
		series = append(series, models.ForecastPoint{
			Timestamp:  baseTS.Add(time.Duration(i) * interval),
			Value:      round2(predicted),
			LowerBound: round2(clamp(predicted-width, 0, 100)),
			UpperBound: round2(clamp(predicted+width, 0, 100)),
		})
	}

	// Peak is the earliest maximum of the series, falling back to the last
	// observed value when no series was requested.
	peakValue := round2(values[len(values)-1])
	peakTime := baseTS
	if len(series) > 0 {
		peakValue = series[0].Value
		peakTime = series[0].Timestamp
		for _, point := range series[1:] {
			if point.Value > peakValue {
				peakValue = point.Value
				peakTime = point.Timestamp
			}
		}
	}

	trend := models.TrendStable
	if slope > 0.5 {
		trend = models.TrendIncreasing
	} else if slope < -0.5 {
		trend = models.TrendDecreasing
	}

	risk := models.RiskLow
	switch {
	case peakValue >= 85:
		risk = models.RiskHigh
	case peakValue >= 70:
		risk = models.RiskModerate
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	confidence := round2(clamp(0.9-math.Min(0.25, variance/400), 0.6, 0.95))

	return models.ForecastResult{
		PredictedPeak: peakValue,
		PeakTime:      peakTime,
		Trend:         trend,
		RiskLevel:     risk,
		Confidence:    confidence,
		Series:        series,
	}
}

// linearRegression fits y = slope*x + intercept over x = 0..n-1.
// Fewer than two samples degrade to a flat line through the last value.
func linearRegression(values []float64) (slope, intercept float64) {
	n := len(values)
	if n < 2 {
		if n == 1 {
			return 0, values[0]
		}
		return 0, 0
	}

	xMean := float64(n-1) / 2
	yMean := 0.0
	for _, v := range values {
		yMean += v
	}
	yMean /= float64(n)

	numerator := 0.0
	denominator := 0.0
	for i, v := range values {
		dx := float64(i) - xMean
		numerator += dx * (v - yMean)
		denominator += dx * dx
	}
	if denominator == 0 {
		return 0, yMean
	}
	slope = numerator / denominator
	intercept = yMean - slope*xMean
	return slope, intercept
}
