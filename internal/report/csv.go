package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

// CSVRenderer is the reference Renderer implementation: it writes one CSV
// file per report under dir and returns the file path as the download
// reference. PDF and spreadsheet formats are delegated to an external export
// service and are rejected here.
type CSVRenderer struct {
	dir string
}

// NewCSVRenderer creates a renderer writing report files under dir
func NewCSVRenderer(dir string) *CSVRenderer {
	return &CSVRenderer{dir: dir}
}

// Render writes the report as CSV and returns the file path
func (r *CSVRenderer) Render(ctx context.Context, report *domain.Report) (string, error) {
	if report.Format != "csv" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, report.Format)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(r.dir, report.ID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, section := range []domain.ReportSection{
		domain.SectionSummary,
		domain.SectionPipeline,
		domain.SectionSources,
		domain.SectionDiversity,
		domain.SectionTrends,
	} {
		payload, ok := report.Sections[section]
		if !ok {
			continue
		}
		if err := writeSection(w, section, payload); err != nil {
			return "", fmt.Errorf("failed to write section %q: %w", section, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush report file: %w", err)
	}
	return path, nil
}

func writeSection(w *csv.Writer, section domain.ReportSection, payload interface{}) error {
	if err := w.Write([]string{"section", string(section)}); err != nil {
		return err
	}

	switch v := payload.(type) {
	case domain.AnalyticsSummary:
		rows := [][]string{
			{"total_applications", strconv.Itoa(v.TotalApplications)},
			{"total_screened", strconv.Itoa(v.TotalScreened)},
			{"total_shortlisted", strconv.Itoa(v.TotalShortlisted)},
			{"total_hired", strconv.Itoa(v.TotalHired)},
			{"total_rejected", strconv.Itoa(v.TotalRejected)},
			{"overall_conversion", formatFloat(v.OverallConversion)},
			{"average_time_to_fill", formatFloat(v.AverageTimeToFill)},
		}
		return w.WriteAll(rows)
	case []domain.StageMetrics:
		if err := w.Write([]string{"stage", "count", "avg_time_in_stage"}); err != nil {
			return err
		}
		for _, s := range v {
			if err := w.Write([]string{string(s.Stage), strconv.Itoa(s.Count), formatFloat(s.AvgTimeInStage)}); err != nil {
				return err
			}
		}
		return nil
	case []domain.SourceAnalytics:
		if err := w.Write([]string{"source", "total_candidates", "hired_candidates", "conversion_rate", "quality_score", "cost_per_hire", "roi"}); err != nil {
			return err
		}
		for _, s := range v {
			if err := w.Write([]string{
				s.Source,
				strconv.Itoa(s.TotalCandidates),
				strconv.Itoa(s.HiredCandidates),
				formatFloat(s.ConversionRate),
				formatFloat(s.QualityScore),
				formatFloat(s.CostPerHire),
				formatFloat(s.ROI),
			}); err != nil {
				return err
			}
		}
		return nil
	case []domain.TrendPoint:
		if err := w.Write([]string{"date", "applications", "hires", "avg_time_to_fill"}); err != nil {
			return err
		}
		for _, p := range v {
			if err := w.Write([]string{p.Date.Format("2006-01-02"), strconv.Itoa(p.Applications), strconv.Itoa(p.Hires), formatFloat(p.AvgTimeToFill)}); err != nil {
				return err
			}
		}
		return nil
	default:
		// Diversity and any future sections carry nested distributions, so a
		// flat row layout does not fit. Encode them as a single JSON cell.
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return w.Write([]string{string(raw)})
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
