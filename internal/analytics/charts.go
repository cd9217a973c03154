package analytics

import (
	"sort"

	"gateway-dashboard/internal/models"
)

const (
	SeriesPacketRate    = "packet_rate"
	SeriesCollisionRisk = "collision_risk"
	SeriesTransmit      = "transmit"
)

// Charts builds the data behind every panel the table can support.
func (a *Analyzer) Charts(t *models.Table) models.Charts {
	var c models.Charts
	if t == nil {
		return c
	}
	caps := t.Capabilities

	c.Series = map[string][]float64{
		SeriesPacketRate: column(t, func(o models.Observation) float64 { return o.PacketRate }),
	}

	if caps.CollisionRisk {
		risk := column(t, func(o models.Observation) float64 { return o.CollisionRisk })
		c.RiskHistogram = Histogram(risk, 0, 1, a.histogramBins)
		c.Series[SeriesCollisionRisk] = risk
	}

	if caps.PredictedLoad {
		c.LoadScatter = make([]models.Point, len(t.Rows))
		xs := make([]float64, len(t.Rows))
		ys := make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			c.LoadScatter[i] = models.Point{X: row.PacketRate, Y: row.PredictedLoad}
			xs[i] = row.PacketRate
			ys[i] = row.PredictedLoad
		}
		c.LoadTrend = LinearTrend(xs, ys)
	}

	if caps.Decisions {
		c.DecisionCounts = DecisionCounts(t)
		c.Series[SeriesTransmit] = column(t, func(o models.Observation) float64 {
			if o.Decision == models.DecisionTransmit {
				return 1
			}
			return 0
		})
	}
	return c
}

// Histogram counts values into bins equal-width bins over [lo, hi]. Values
// equal to hi land in the last bin; values outside the range are dropped.
func Histogram(values []float64, lo, hi float64, bins int) []models.HistogramBin {
	if bins <= 0 || hi <= lo {
		return nil
	}
	width := (hi - lo) / float64(bins)
	out := make([]models.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}

// LinearTrend fits y = slope*x + intercept by ordinary least squares. It
// returns nil when fewer than two points exist or x has no spread.
func LinearTrend(xs, ys []float64) *models.Trend {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return nil
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxy, sxx float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxy += dx * (ys[i] - meanY)
		sxx += dx * dx
	}
	if sxx == 0 {
		return nil
	}
	slope := sxy / sxx
	return &models.Trend{Slope: slope, Intercept: meanY - slope*meanX}
}

// DecisionCounts tallies decisions, most frequent first.
func DecisionCounts(t *models.Table) []models.CategoryCount {
	counts := make(map[models.Decision]int)
	for _, row := range t.Rows {
		if row.Decision != "" {
			counts[row.Decision]++
		}
	}
	out := make([]models.CategoryCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, models.CategoryCount{Label: string(d), Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func column(t *models.Table, get func(models.Observation) float64) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = get(row)
	}
	return out
}
