package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateway-dashboard/internal/models"
)

func f(v float64) *float64 { return &v }

func TestFormatMetric(t *testing.T) {
	assert.Equal(t, "n/a", FormatMetric("%.1f%%", nil))
	assert.Equal(t, "42.5%", FormatMetric("%.1f%%", f(42.49)))
	assert.Equal(t, "-71.0 dBm", FormatMetric("%.1f dBm", f(-71)))
}

func TestDashboard_FullReport(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	report := &models.Report{
		SessionID: "sess-1",
		Threshold: 0.25,
		Capabilities: models.Capabilities{
			CollisionRisk: true,
			PredictedLoad: true,
			Decisions:     true,
		},
		Summary: models.Summary{
			Rows:           4,
			AvgRSSI:        f(-75),
			AvgSNR:         f(25),
			TransmitPct:    f(75),
			WaitPct:        f(25),
			HighRiskPct:    f(50),
			MSE:            f(2),
			ConsistencyPct: f(25),
		},
		Charts: models.Charts{
			RiskHistogram:  []models.HistogramBin{{Lower: 0, Upper: 0.5, Count: 2}, {Lower: 0.5, Upper: 1, Count: 2}},
			LoadScatter:    []models.Point{{X: 1, Y: 2}},
			DecisionCounts: []models.CategoryCount{{Label: "TRANSMIT", Count: 3}},
			Series:         map[string][]float64{"packet_rate": {1, 2}},
		},
		Explanation: &models.Explanation{
			Step:      2,
			Decision:  models.DecisionTransmit,
			RiskLabel: models.RiskHigh,
			Severity:  "warning",
			Message:   "High collision risk detected by the CNN.",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Dashboard(&buf, report))
	html := buf.String()

	assert.Contains(t, html, "-75.0 dBm")
	assert.Contains(t, html, "75.0%")
	assert.Contains(t, html, "Decision Consistency (%)")
	assert.Contains(t, html, "Regression Mean Squared Error (MSE)")
	assert.Contains(t, html, `class="warning"`)
	assert.Contains(t, html, `name="row"`)
	assert.Contains(t, html, `max="3"`)
	assert.Contains(t, html, `"risk_histogram":[{"lower":0,"upper":0.5,"count":2}`)
}

func TestDashboard_EmptyReportShowsNotAvailable(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	report := &models.Report{
		Threshold:    0.25,
		Capabilities: models.Capabilities{CollisionRisk: true, Decisions: true},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Dashboard(&buf, report))
	html := buf.String()

	assert.Contains(t, html, NotAvailable)
	assert.NotContains(t, html, "NaN")
	assert.NotContains(t, html, `name="row"`)
	assert.NotContains(t, html, "Regression Mean Squared Error")
}

func TestError(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Error(&buf, 500, "missing_input", errors.New("missing input: features.csv: no such file")))
	assert.Contains(t, buf.String(), "missing input: features.csv: no such file")
	assert.Contains(t, buf.String(), "500")
}
