package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gateway-dashboard/internal/analytics"
	"gateway-dashboard/internal/cache"
	"gateway-dashboard/internal/dataset"
	"gateway-dashboard/internal/logger"
	"gateway-dashboard/internal/models"
)

var (
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_reports_total",
		Help: "Total number of dashboard reports built, by outcome",
	}, []string{"outcome"})

	joinedRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_joined_rows",
		Help: "Row count of the most recently joined observation table",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_cache_lookups_total",
		Help: "Report cache lookups, by result",
	}, []string{"result"})
)

// ReportCache stores finished reports. *cache.RedisClient implements it.
type ReportCache interface {
	GetReport(ctx context.Context, key string) (*models.Report, bool, error)
	StoreReport(ctx context.Context, key string, report *models.Report) error
}

// Request carries the user controls of one render. A nil Row selects the
// first row when one exists. OptionalExplanation drops the explanation
// instead of failing when the table has no collision risk column.
type Request struct {
	Threshold           float64
	Row                 *int
	OptionalExplanation bool
}

// Session is the explicit context of a single render cycle. It is created per
// request and discarded once the report is built.
type Session struct {
	ID                  string
	Threshold           float64
	Row                 *int
	OptionalExplanation bool
	Analyzer            *analytics.Analyzer
	Table               *models.Table
}

type Service struct {
	sources       dataset.Sources
	histogramBins int
	cache         ReportCache
	log           *logger.Logger
	now           func() time.Time
}

// NewService wires the pipeline. reportCache may be nil.
func NewService(sources dataset.Sources, histogramBins int, reportCache ReportCache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		sources:       sources,
		histogramBins: histogramBins,
		cache:         reportCache,
		log:           log,
		now:           time.Now,
	}
}

func (s *Service) Sources() dataset.Sources {
	return s.sources
}

// NewSession validates the controls and prepares an analyzer for them.
func (s *Service) NewSession(req Request) (*Session, error) {
	analyzer, err := analytics.NewAnalyzer(req.Threshold, s.histogramBins)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:                  uuid.NewString(),
		Threshold:           req.Threshold,
		Row:                 req.Row,
		OptionalExplanation: req.OptionalExplanation,
		Analyzer:            analyzer,
	}, nil
}

// Report runs load, align, derive and aggregate for one request.
func (s *Service) Report(ctx context.Context, req Request) (*models.Report, error) {
	report, err := s.report(ctx, req)
	reportsTotal.WithLabelValues(ErrorKind(err)).Inc()
	return report, err
}

func (s *Service) report(ctx context.Context, req Request) (*models.Report, error) {
	sess, err := s.NewSession(req)
	if err != nil {
		return nil, err
	}
	log := s.log.With("session_id", sess.ID, "threshold", sess.Threshold)

	var key string
	if s.cache != nil {
		fingerprint, err := dataset.Fingerprint(s.sources)
		if err != nil {
			log.Warn("source fingerprint failed", "error", err)
			return nil, err
		}
		key = cache.Key(fingerprint, sess.Threshold, rowKey(sess.Row))
		if sess.OptionalExplanation {
			key += ":optional"
		}
		cached, ok, err := s.cache.GetReport(ctx, key)
		switch {
		case err != nil:
			cacheLookups.WithLabelValues("error").Inc()
			log.Warn("report cache lookup failed", "error", err)
		case ok:
			cacheLookups.WithLabelValues("hit").Inc()
			cached.SessionID = sess.ID
			return cached, nil
		default:
			cacheLookups.WithLabelValues("miss").Inc()
		}
	}

	table, err := dataset.Load(s.sources)
	if err != nil {
		log.Error("failed to load sources", "error", err)
		return nil, err
	}
	sess.Table = table
	joinedRows.Set(float64(table.Len()))

	report, err := sess.Build(s.now())
	if err != nil {
		return nil, err
	}
	log.Info("report built",
		"rows", table.Len(),
		"source_rows", table.SourceRows,
		"capabilities", table.Capabilities)

	if s.cache != nil {
		if err := s.cache.StoreReport(ctx, key, report); err != nil {
			log.Warn("failed to cache report", "error", err)
		}
	}
	return report, nil
}

// Build derives every aggregate and panel from the session's table.
func (sess *Session) Build(at time.Time) (*models.Report, error) {
	table := sess.Table
	report := &models.Report{
		SessionID:    sess.ID,
		GeneratedAt:  at.UTC(),
		Threshold:    sess.Threshold,
		Capabilities: table.Capabilities,
		SourceRows:   table.SourceRows,
		Summary:      sess.Analyzer.Summarize(table),
		Charts:       sess.Analyzer.Charts(table),
	}

	switch {
	case sess.Row != nil && sess.OptionalExplanation && !table.Capabilities.CollisionRisk:
		// no explanation panel
	case sess.Row != nil:
		exp, err := sess.Analyzer.Explain(table, *sess.Row)
		if err != nil {
			return nil, err
		}
		report.Explanation = exp
	case table.Len() > 0 && table.Capabilities.CollisionRisk:
		exp, err := sess.Analyzer.Explain(table, 0)
		if err != nil {
			return nil, err
		}
		report.Explanation = exp
	}
	return report, nil
}

func rowKey(row *int) int {
	if row == nil {
		return -1
	}
	return *row
}
