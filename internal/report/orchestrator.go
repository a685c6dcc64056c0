// Package report composes query engine outputs into dashboard and report
// payloads and hands them to the export renderer boundary.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/cache"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
	"github.com/Shar1q-codes/recruitment-analytics-service/internal/query"
)

// DashboardTTL is how long a composed dashboard payload stays cached. It is
// longer than the per-query TTL because the dashboard is the most expensive
// composite.
const DashboardTTL = 10 * time.Minute

// ErrUnsupportedFormat is returned when the renderer cannot produce the
// requested export format.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Renderer is the boundary to the external export service: it receives a
// composed report and returns a reference to the downloadable artifact.
type Renderer interface {
	Render(ctx context.Context, report *domain.Report) (string, error)
}

// Orchestrator builds dashboard and report payloads from the query engine.
type Orchestrator struct {
	queries  *query.Engine
	cache    *cache.Cache
	renderer Renderer
	log      *zap.Logger
}

// NewOrchestrator creates a new reporting orchestrator
func NewOrchestrator(queries *query.Engine, c *cache.Cache, renderer Renderer, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		queries:  queries,
		cache:    c,
		renderer: renderer,
		log:      log,
	}
}

// DashboardData fetches the analytics summary, bottlenecks, source
// performance, diversity analytics and the trend series in parallel and
// assembles them into one payload. The composite itself is cache-checked
// before recomputation and cache-written after.
func (o *Orchestrator) DashboardData(ctx context.Context, q domain.AnalyticsQuery) (*domain.DashboardData, error) {
	key := cache.Key("dashboard", q)
	if cached, ok := o.cache.Get(key); ok {
		if data, ok := cached.(*domain.DashboardData); ok {
			return data, nil
		}
	}

	var (
		data domain.DashboardData
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	fetch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	fetch("summary", func() error {
		out, err := o.queries.Summary(ctx, q)
		data.Summary = out
		return err
	})
	fetch("bottlenecks", func() error {
		out, err := o.queries.Bottlenecks(ctx, q)
		data.Bottlenecks = out
		return err
	})
	fetch("sources", func() error {
		out, err := o.queries.SourcePerformance(ctx, q)
		data.Sources = out
		return err
	})
	fetch("diversity", func() error {
		out, err := o.queries.DiversityAnalytics(ctx, q)
		data.Diversity = out
		return err
	})
	fetch("trends", func() error {
		out, err := o.queries.TrendSeries(ctx, q)
		data.Trends = out
		return err
	})

	wg.Wait()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to compose dashboard: %w", errs[0])
	}

	data.LastUpdated = time.Now().UTC()
	o.cache.Set(key, &data, DashboardTTL)
	return &data, nil
}

// GenerateReport runs the query engine method behind each requested section,
// bundles the results into a section-keyed report and hands it to the
// renderer. The returned report carries an opaque identifier and the
// renderer's download reference.
func (o *Orchestrator) GenerateReport(ctx context.Context, q domain.AnalyticsQuery, sections []domain.ReportSection, format string) (*domain.Report, error) {
	r := &domain.Report{
		ID:          uuid.NewString(),
		Format:      format,
		GeneratedAt: time.Now().UTC(),
		Sections:    make(map[domain.ReportSection]interface{}, len(sections)),
	}

	for _, section := range sections {
		payload, err := o.buildSection(ctx, q, section)
		if err != nil {
			return nil, fmt.Errorf("failed to build report section %q: %w", section, err)
		}
		r.Sections[section] = payload
	}

	ref, err := o.renderer.Render(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to render report %s: %w", r.ID, err)
	}
	r.DownloadRef = ref

	o.log.Info("Report generated",
		zap.String("report_id", r.ID),
		zap.String("format", format),
		zap.Int("sections", len(sections)))
	return r, nil
}

func (o *Orchestrator) buildSection(ctx context.Context, q domain.AnalyticsQuery, section domain.ReportSection) (interface{}, error) {
	switch section {
	case domain.SectionSummary:
		return o.queries.Summary(ctx, q)
	case domain.SectionPipeline:
		return o.queries.StagePerformance(ctx, q)
	case domain.SectionSources:
		return o.queries.SourcePerformance(ctx, q)
	case domain.SectionDiversity:
		return o.queries.DiversityAnalytics(ctx, q)
	case domain.SectionTrends:
		return o.queries.TrendSeries(ctx, q)
	default:
		return nil, fmt.Errorf("unknown report section %q", section)
	}
}
