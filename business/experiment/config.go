package experiment

import (
	"context"
	"fmt"

	"myEventReco/business/weights"
	"myEventReco/domain"
)

// ConfigService validates and stores experiment definitions for the admin
// API.
type ConfigService struct {
	repo ConfigRepository
}

func NewConfigService(repo ConfigRepository) *ConfigService {
	return &ConfigService{repo: repo}
}

func (s *ConfigService) GetConfig(ctx context.Context, experiment string) (domain.ExperimentConfig, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExperimentConfig{}, false, fmt.Errorf("context error: %w", err)
	}
	key := SanitizeKey(experiment)
	if key == "" {
		return domain.ExperimentConfig{}, false, fmt.Errorf("%w: experiment key is required", ErrInvalidExperiment)
	}
	return s.repo.GetConfig(ctx, key)
}

// UpsertConfig sanitizes cfg and rejects definitions with fewer than two
// variants or algorithm entries for unknown variants.
func (s *ConfigService) UpsertConfig(ctx context.Context, cfg domain.ExperimentConfig) (domain.ExperimentConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExperimentConfig{}, fmt.Errorf("context error: %w", err)
	}

	cfg.ExperimentKey = SanitizeKey(cfg.ExperimentKey)
	if cfg.ExperimentKey == "" {
		return domain.ExperimentConfig{}, fmt.Errorf("%w: experiment key is required", ErrInvalidExperiment)
	}
	cfg.Variants = normalizeVariants(cfg.Variants)
	if len(cfg.Variants) < 2 {
		return domain.ExperimentConfig{}, fmt.Errorf("%w: at least two distinct variants are required", ErrInvalidExperiment)
	}
	if cfg.Split == 0 {
		cfg.Split = DefaultSplit
	}
	cfg.Split = clampSplit(cfg.Split)

	for variant := range cfg.Algorithms {
		if !containsVariant(cfg.Variants, variant) {
			return domain.ExperimentConfig{}, fmt.Errorf("%w: algorithm set for unknown variant %q", ErrInvalidExperiment, variant)
		}
		if _, ok := cfg.AlgorithmFor(variant); !ok {
			return domain.ExperimentConfig{}, fmt.Errorf("%w: unknown algorithm for variant %q", ErrInvalidExperiment, variant)
		}
	}
	normalized := make(map[string]any, len(cfg.Weights))
	for variant := range cfg.Weights {
		if !containsVariant(cfg.Variants, variant) {
			return domain.ExperimentConfig{}, fmt.Errorf("%w: weights set for unknown variant %q", ErrInvalidExperiment, variant)
		}
		raw := cfg.WeightsFor(variant)
		if raw == nil {
			return domain.ExperimentConfig{}, fmt.Errorf("%w: weights for variant %q must be an object", ErrInvalidExperiment, variant)
		}
		algorithm, ok := cfg.AlgorithmFor(variant)
		if !ok {
			algorithm = domain.AlgorithmDefault
		}
		// stored normalized
		vector := make(map[string]any, len(weights.Keys))
		for k, w := range weights.ToMap(weights.NormalizeFor(algorithm, raw)) {
			vector[k] = w
		}
		normalized[variant] = vector
	}
	if len(normalized) > 0 {
		cfg.Weights = normalized
	}

	if err := s.repo.UpsertConfig(ctx, cfg); err != nil {
		return domain.ExperimentConfig{}, fmt.Errorf("failed to upsert experiment config: %w", err)
	}
	return cfg, nil
}
