package analytics

import (
	"fmt"

	"gateway-dashboard/internal/models"
)

const (
	highRiskMessage = "High collision risk detected by the CNN. " +
		"The Q-Learning agent chooses WAIT to avoid packet loss."
	lowRiskMessage = "Low collision risk detected by the CNN. " +
		"The Q-Learning agent allows TRANSMIT."
)

// Analyzer computes dashboard aggregates for one risk threshold. It holds no
// table state; every call works on the table it is given.
type Analyzer struct {
	threshold     float64
	histogramBins int
}

func NewAnalyzer(threshold float64, histogramBins int) (*Analyzer, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if histogramBins <= 0 {
		histogramBins = DefaultHistogramBins
	}
	return &Analyzer{
		threshold:     threshold,
		histogramBins: histogramBins,
	}, nil
}

func (a *Analyzer) Threshold() float64 {
	return a.threshold
}

// Labels derives the risk label of every row. It returns nil when the table
// has no collision risk column.
func (a *Analyzer) Labels(t *models.Table) []models.RiskLabel {
	if t == nil || !t.Capabilities.CollisionRisk {
		return nil
	}
	labels := make([]models.RiskLabel, len(t.Rows))
	for i, row := range t.Rows {
		labels[i] = RiskLabelFor(row.CollisionRisk, a.threshold)
	}
	return labels
}

func (a *Analyzer) Summarize(t *models.Table) models.Summary {
	s := models.Summary{
		Rows:      t.Len(),
		Threshold: a.threshold,
	}
	n := t.Len()
	if n == 0 {
		return s
	}
	caps := t.Capabilities

	var sumRSSI, sumSNR, sumCRC, sumLoad, sqErr float64
	var transmit, wait, high, consistent int
	for _, row := range t.Rows {
		sumRSSI += row.RSSI
		sumSNR += row.SNR
		sumCRC += row.CRCErrorRate
		sumLoad += row.PredictedLoad

		diff := row.PacketRate - row.PredictedLoad
		sqErr += diff * diff

		switch row.Decision {
		case models.DecisionTransmit:
			transmit++
		case models.DecisionWait:
			wait++
		}

		label := RiskLabelFor(row.CollisionRisk, a.threshold)
		if label == models.RiskHigh {
			high++
		}
		if label == models.RiskLow && row.Decision == models.DecisionTransmit {
			consistent++
		}
	}

	count := float64(n)
	s.AvgRSSI = value(sumRSSI / count)
	s.AvgSNR = value(sumSNR / count)
	if caps.CRCErrorRate {
		s.AvgCRCErrorRate = value(sumCRC / count)
	}
	if caps.PredictedLoad {
		s.AvgPredictedLoad = value(sumLoad / count)
		s.MSE = value(sqErr / count)
	}
	if caps.Decisions {
		s.TransmitPct = percent(transmit, n)
		s.WaitPct = percent(wait, n)
	}
	if caps.CollisionRisk {
		s.HighRiskCount = &high
		s.HighRiskPct = percent(high, n)
	}
	if caps.CollisionRisk && caps.Decisions {
		s.ConsistencyPct = percent(consistent, n)
	}
	return s
}

// Explain inspects a single row. The message depends only on the risk label;
// the recorded decision is reported as-is even when it disagrees.
func (a *Analyzer) Explain(t *models.Table, row int) (*models.Explanation, error) {
	n := t.Len()
	if row < 0 || row >= n {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, row, n)
	}
	if !t.Capabilities.CollisionRisk {
		return nil, fmt.Errorf("%w: collision risk column not loaded", ErrNotAvailable)
	}

	obs := t.Rows[row]
	exp := &models.Explanation{
		Step:          obs.Step,
		Decision:      obs.Decision,
		CollisionRisk: obs.CollisionRisk,
		RiskLabel:     RiskLabelFor(obs.CollisionRisk, a.threshold),
	}
	if exp.RiskLabel == models.RiskHigh {
		exp.Severity = "warning"
		exp.Message = highRiskMessage
	} else {
		exp.Severity = "success"
		exp.Message = lowRiskMessage
	}
	return exp, nil
}

func value(v float64) *float64 {
	return &v
}

func percent(count, n int) *float64 {
	if n == 0 {
		return nil
	}
	return value(float64(count) / float64(n) * 100)
}
