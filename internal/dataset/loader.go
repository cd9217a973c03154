package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gateway-dashboard/internal/models"
)

const (
	SourceFeatures   = "features"
	SourceCNN        = "cnn"
	SourceRegression = "regression"
	SourceDecisions  = "decisions"
)

const (
	ColumnRSSI          = "rssi"
	ColumnSNR           = "snr"
	ColumnPacketRate    = "packet_rate"
	ColumnCRCErrorRate  = "crc_error_rate"
	ColumnCollisionRisk = "cnn_collision_risk"
	ColumnDecision      = "decision"
)

// Sources lists the CSV paths for one dashboard variant. An empty path
// disables that source; Features is always required.
type Sources struct {
	Features   string `yaml:"features"`
	CNN        string `yaml:"cnn"`
	Regression string `yaml:"regression"`
	Decisions  string `yaml:"decisions"`
}

type namedPath struct {
	name string
	path string
}

func (s Sources) configured() []namedPath {
	all := []namedPath{
		{SourceFeatures, s.Features},
		{SourceCNN, s.CNN},
		{SourceRegression, s.Regression},
		{SourceDecisions, s.Decisions},
	}
	out := make([]namedPath, 0, len(all))
	for _, np := range all {
		if np.path != "" {
			out = append(out, np)
		}
	}
	return out
}

// Load reads every configured source and joins them by row position.
func Load(src Sources) (*models.Table, error) {
	if src.Features == "" {
		return nil, fmt.Errorf("%w: features source not configured", ErrMissingInput)
	}

	frames := make(map[string]*Frame, 4)
	for _, np := range src.configured() {
		frame, err := ReadFrame(np.name, np.path)
		if err != nil {
			return nil, err
		}
		frames[np.name] = frame
	}

	return Align(frames)
}

// Align truncates every frame to the shortest one and concatenates their
// columns. Rows are matched by position only. frames must contain the
// features frame.
func Align(frames map[string]*Frame) (*models.Table, error) {
	features, ok := frames[SourceFeatures]
	if !ok {
		return nil, fmt.Errorf("%w: features source not configured", ErrMissingInput)
	}

	n := features.Len()
	sourceRows := make(map[string]int, len(frames))
	for name, f := range frames {
		sourceRows[name] = f.Len()
		if f.Len() < n {
			n = f.Len()
		}
	}

	rssi, err := features.Floats(ColumnRSSI, n)
	if err != nil {
		return nil, err
	}
	snr, err := features.Floats(ColumnSNR, n)
	if err != nil {
		return nil, err
	}
	packetRate, err := features.Floats(ColumnPacketRate, n)
	if err != nil {
		return nil, err
	}

	table := &models.Table{
		Rows:       make([]models.Observation, n),
		SourceRows: sourceRows,
	}
	for i := 0; i < n; i++ {
		table.Rows[i] = models.Observation{
			Step:       i,
			RSSI:       rssi[i],
			SNR:        snr[i],
			PacketRate: packetRate[i],
		}
	}

	if features.HasColumn(ColumnCRCErrorRate) {
		crc, err := features.Floats(ColumnCRCErrorRate, n)
		if err != nil {
			return nil, err
		}
		for i := range table.Rows {
			table.Rows[i].CRCErrorRate = crc[i]
		}
		table.Capabilities.CRCErrorRate = true
	}

	if cnn, ok := frames[SourceCNN]; ok {
		risk, err := cnn.Floats(ColumnCollisionRisk, n)
		if err != nil {
			return nil, err
		}
		for i, p := range risk {
			if p < 0 || p > 1 {
				return nil, &SchemaError{
					Source: cnn.Name,
					Column: ColumnCollisionRisk,
					Row:    i,
					Reason: fmt.Sprintf("probability %g outside [0, 1]", p),
				}
			}
			table.Rows[i].CollisionRisk = p
		}
		table.Capabilities.CollisionRisk = true
	}

	if reg, ok := frames[SourceRegression]; ok {
		load, err := reg.FirstFloats(n)
		if err != nil {
			return nil, err
		}
		for i, v := range load {
			table.Rows[i].PredictedLoad = v
		}
		table.Capabilities.PredictedLoad = true
	}

	if dec, ok := frames[SourceDecisions]; ok {
		codes, err := dec.Floats(ColumnDecision, n)
		if err != nil {
			return nil, err
		}
		for i, code := range codes {
			d, err := DecisionFromCode(code)
			if err != nil {
				return nil, &SchemaError{Source: dec.Name, Column: ColumnDecision, Row: i, Reason: err.Error()}
			}
			table.Rows[i].Decision = d
		}
		table.Capabilities.Decisions = true
	}

	return table, nil
}

// DecisionFromCode maps the policy encoding 0/1 to WAIT/TRANSMIT.
func DecisionFromCode(code float64) (models.Decision, error) {
	switch code {
	case 0:
		return models.DecisionWait, nil
	case 1:
		return models.DecisionTransmit, nil
	default:
		return "", fmt.Errorf("decision code %g is neither 0 nor 1", code)
	}
}

// Fingerprint identifies the current contents of the configured sources by
// path, size and modification time.
func Fingerprint(src Sources) (string, error) {
	h := sha256.New()
	for _, np := range src.configured() {
		info, err := os.Stat(np.path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrMissingInput, np.path, err)
		}
		fmt.Fprintf(h, "%s|%s|%d|%d\n", np.name, np.path, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}
