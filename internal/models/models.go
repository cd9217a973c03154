package models

import "time"

type Decision string

const (
	DecisionWait     Decision = "WAIT"
	DecisionTransmit Decision = "TRANSMIT"
)

type RiskLabel string

const (
	RiskHigh RiskLabel = "HIGH"
	RiskLow  RiskLabel = "LOW"
)

// Observation is one time step of the joined table.
type Observation struct {
	Step          int      `json:"step"`
	RSSI          float64  `json:"rssi"`
	SNR           float64  `json:"snr"`
	PacketRate    float64  `json:"packet_rate"`
	CRCErrorRate  float64  `json:"crc_error_rate,omitempty"`
	CollisionRisk float64  `json:"collision_risk,omitempty"`
	PredictedLoad float64  `json:"predicted_load,omitempty"`
	Decision      Decision `json:"decision,omitempty"`
}

// Capabilities records which optional columns the joined table carries.
type Capabilities struct {
	CRCErrorRate  bool `json:"crc_error_rate"`
	CollisionRisk bool `json:"collision_risk"`
	PredictedLoad bool `json:"predicted_load"`
	Decisions     bool `json:"decisions"`
}

type Table struct {
	Rows         []Observation  `json:"rows"`
	Capabilities Capabilities   `json:"capabilities"`
	SourceRows   map[string]int `json:"source_rows"`
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Summary holds the dashboard KPIs. A nil field means the value is not
// available for the current table.
type Summary struct {
	Rows             int      `json:"rows"`
	Threshold        float64  `json:"threshold"`
	AvgRSSI          *float64 `json:"avg_rssi"`
	AvgSNR           *float64 `json:"avg_snr"`
	AvgCRCErrorRate  *float64 `json:"avg_crc_error_rate"`
	AvgPredictedLoad *float64 `json:"avg_predicted_load"`
	TransmitPct      *float64 `json:"transmit_pct"`
	WaitPct          *float64 `json:"wait_pct"`
	HighRiskPct      *float64 `json:"high_risk_pct"`
	HighRiskCount    *int     `json:"high_risk_count"`
	MSE              *float64 `json:"mse"`
	ConsistencyPct   *float64 `json:"consistency_pct"`
}

type Explanation struct {
	Step          int       `json:"step"`
	Decision      Decision  `json:"decision,omitempty"`
	CollisionRisk float64   `json:"collision_risk"`
	RiskLabel     RiskLabel `json:"risk_label"`
	Severity      string    `json:"severity"`
	Message       string    `json:"message"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Charts carries the data behind every panel. Panels whose source column is
// absent are left nil.
type Charts struct {
	RiskHistogram  []HistogramBin       `json:"risk_histogram"`
	LoadScatter    []Point              `json:"load_scatter"`
	LoadTrend      *Trend               `json:"load_trend"`
	DecisionCounts []CategoryCount      `json:"decision_counts"`
	Series         map[string][]float64 `json:"series"`
}

// Report is everything one render cycle produces.
type Report struct {
	SessionID    string         `json:"session_id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Threshold    float64        `json:"threshold"`
	Capabilities Capabilities   `json:"capabilities"`
	SourceRows   map[string]int `json:"source_rows"`
	Summary      Summary        `json:"summary"`
	Charts       Charts         `json:"charts"`
	Explanation  *Explanation   `json:"explanation"`
}
