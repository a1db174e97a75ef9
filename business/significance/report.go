package significance

import (
	"context"
	"fmt"

	exp "myEventReco/business/experiment"
	"myEventReco/domain"
	"myEventReco/pkg/logger"
	"myEventReco/pkg/trace"
)

type StatsRepository interface {
	AggregateVariantStats(ctx context.Context, experiment string) ([]domain.VariantStats, error)
}

type ConfigRepository interface {
	GetConfig(ctx context.Context, experiment string) (domain.ExperimentConfig, bool, error)
}

// Reporter builds per-experiment CTR reports. The first variant (config
// order when a config exists, otherwise name order) is the control.
type Reporter struct {
	stats   StatsRepository
	configs ConfigRepository
}

func NewReporter(stats StatsRepository, configs ConfigRepository) *Reporter {
	return &Reporter{stats: stats, configs: configs}
}

func (r *Reporter) Report(ctx context.Context, experiment string) (domain.ExperimentReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExperimentReport{}, fmt.Errorf("context error: %w", err)
	}

	experiment = exp.SanitizeKey(experiment)
	if experiment == "" {
		return domain.ExperimentReport{}, fmt.Errorf("%w: experiment key is required", exp.ErrInvalidExperiment)
	}

	rows, err := r.stats.AggregateVariantStats(ctx, experiment)
	if err != nil {
		return domain.ExperimentReport{}, fmt.Errorf("aggregate variant stats: %w", err)
	}

	var order []string
	if r.configs != nil {
		cfg, ok, err := r.configs.GetConfig(ctx, experiment)
		if err != nil {
			// the report is still useful in name order
			logger.Warn("report_config_lookup_failed",
				"trace_id", trace.TraceIDFromContext(ctx),
				"experiment", experiment,
				"error", err,
			)
		} else if ok {
			order = cfg.Variants
		}
	}

	variants := orderStats(experiment, rows, order)
	report := domain.ExperimentReport{
		Experiment:  experiment,
		Variants:    variants,
		Comparisons: make([]domain.VariantComparison, 0, len(variants)),
	}
	if len(variants) < 2 {
		return report, nil
	}

	control := variants[0]
	for _, treatment := range variants[1:] {
		report.Comparisons = append(report.Comparisons, domain.VariantComparison{
			Control:      control,
			Treatment:    treatment,
			Significance: Compare(control.Exposures, control.Clicks, treatment.Exposures, treatment.Clicks),
		})
	}
	return report, nil
}

// orderStats puts configured variants first, in config order, filling in
// zero rows for variants with no telemetry yet. Unconfigured variants follow
// in the repository's order.
func orderStats(experiment string, rows []domain.VariantStats, order []string) []domain.VariantStats {
	byVariant := make(map[string]domain.VariantStats, len(rows))
	for _, row := range rows {
		byVariant[row.Variant] = row
	}

	out := make([]domain.VariantStats, 0, len(rows)+len(order))
	seen := make(map[string]bool, len(order))
	for _, v := range order {
		if seen[v] {
			continue
		}
		seen[v] = true
		row, ok := byVariant[v]
		if !ok {
			row = domain.VariantStats{ExperimentKey: experiment, Variant: v}
		}
		out = append(out, row)
	}
	for _, row := range rows {
		if seen[row.Variant] {
			continue
		}
		seen[row.Variant] = true
		out = append(out, row)
	}
	return out
}
