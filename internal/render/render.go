package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"gateway-dashboard/internal/analytics"
	"gateway-dashboard/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const NotAvailable = "n/a"

type Renderer struct {
	tmpl *template.Template
}

type dashboardPage struct {
	Report       *models.Report
	MinThreshold float64
	MaxThreshold float64
	Step         float64
	MaxRow       int
	Row          int
}

type errorPage struct {
	Status  int
	Kind    string
	Message string
}

func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"metric": FormatMetric,
		"json":   toJSON,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Dashboard(w io.Writer, report *models.Report) error {
	page := dashboardPage{
		Report:       report,
		MinThreshold: analytics.MinThreshold,
		MaxThreshold: analytics.MaxThreshold,
		Step:         analytics.ThresholdStep,
		MaxRow:       report.Summary.Rows - 1,
	}
	if report.Explanation != nil {
		page.Row = report.Explanation.Step
	}
	return r.tmpl.ExecuteTemplate(w, "dashboard.html", page)
}

// Error renders a failure page carrying the error text verbatim.
func (r *Renderer) Error(w io.Writer, status int, kind string, err error) error {
	return r.tmpl.ExecuteTemplate(w, "error.html", errorPage{
		Status:  status,
		Kind:    kind,
		Message: err.Error(),
	})
}

// FormatMetric prints v with format, or "n/a" when v is not available.
func FormatMetric(format string, v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf(format, *v)
}

func toJSON(v interface{}) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}
