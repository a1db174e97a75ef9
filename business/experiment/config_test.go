package experiment

import (
	"context"
	"testing"

	"myEventReco/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigService_Upsert(t *testing.T) {
	repo := &fakeConfigRepo{}
	svc := NewConfigService(repo)

	saved, err := svc.UpsertConfig(context.Background(), domain.ExperimentConfig{
		ExperimentKey: " Reco_Algo ",
		Variants:      []string{"A", "B", "A", "c!"},
		Algorithms:    map[string]any{"B": "configurable"},
		Weights:       map[string]any{"B": map[string]any{"similarity": 0.5}},
	})
	require.NoError(t, err)

	assert.Equal(t, "reco_algo", saved.ExperimentKey)
	assert.Equal(t, []string{"A", "B", "c"}, saved.Variants)
	assert.Equal(t, DefaultSplit, saved.Split)

	w := saved.WeightsFor("B")
	require.Len(t, w, 5)
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, w["similarity"], w["proximity"])

	got, ok, err := svc.GetConfig(context.Background(), "RECO_ALGO")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved.Variants, got.Variants)
}

func TestConfigService_SplitClamped(t *testing.T) {
	svc := NewConfigService(&fakeConfigRepo{})

	saved, err := svc.UpsertConfig(context.Background(), domain.ExperimentConfig{
		ExperimentKey: "x",
		Variants:      []string{"A", "B"},
		Split:         150,
	})
	require.NoError(t, err)
	assert.Equal(t, 99, saved.Split)
}

func TestConfigService_Rejects(t *testing.T) {
	cases := map[string]domain.ExperimentConfig{
		"empty key":         {ExperimentKey: "!!", Variants: []string{"A", "B"}},
		"one variant":       {ExperimentKey: "x", Variants: []string{"A", "A"}},
		"unknown algorithm": {ExperimentKey: "x", Variants: []string{"A", "B"}, Algorithms: map[string]any{"A": "bandit"}},
		"algorithm for ghost variant": {
			ExperimentKey: "x",
			Variants:      []string{"A", "B"},
			Algorithms:    map[string]any{"C": "default"},
		},
		"weights not an object": {
			ExperimentKey: "x",
			Variants:      []string{"A", "B"},
			Weights:       map[string]any{"A": 0.5},
		},
		"weights for ghost variant": {
			ExperimentKey: "x",
			Variants:      []string{"A", "B"},
			Weights:       map[string]any{"C": map[string]any{"recency": 1.0}},
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewConfigService(&fakeConfigRepo{}).UpsertConfig(context.Background(), cfg)
			assert.ErrorIs(t, err, ErrInvalidExperiment)
		})
	}
}

func TestConfigService_StoreError(t *testing.T) {
	svc := NewConfigService(&fakeConfigRepo{err: errStoreDown})

	_, err := svc.UpsertConfig(context.Background(), domain.ExperimentConfig{ExperimentKey: "x", Variants: []string{"A", "B"}})
	assert.ErrorIs(t, err, errStoreDown)
}
