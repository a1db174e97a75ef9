package experiment

import (
	"context"
	"errors"
	"sync"

	"myEventReco/domain"
)

type fakeAssignmentRepo struct {
	mu        sync.Mutex
	rows      map[string]domain.Assignment
	upserts   int
	fetchErr  error
	upsertErr error
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{rows: make(map[string]domain.Assignment)}
}

func rowKey(experiment, scope, subjectID string) string {
	return experiment + "/" + scope + "/" + subjectID
}

func (r *fakeAssignmentRepo) FetchAssignment(ctx context.Context, experiment, scope, subjectID string) (domain.Assignment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return domain.Assignment{}, false, r.fetchErr
	}
	row, ok := r.rows[rowKey(experiment, scope, subjectID)]
	return row, ok, nil
}

func (r *fakeAssignmentRepo) UpsertAssignment(ctx context.Context, a domain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.rows[rowKey(a.ExperimentKey, a.SubjectScope, a.SubjectID)] = a
	return nil
}

func (r *fakeAssignmentRepo) get(experiment, scope, subjectID string) (domain.Assignment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[rowKey(experiment, scope, subjectID)]
	return row, ok
}

type exposure struct {
	experiment, variant, subject string
}

type fakeExposureRecorder struct {
	mu     sync.Mutex
	events []exposure
	err    error
}

func (f *fakeExposureRecorder) RecordExposure(ctx context.Context, experiment, variant, subject string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, exposure{experiment, variant, subject})
	return f.err
}

func (f *fakeExposureRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeConfigRepo struct {
	configs map[string]domain.ExperimentConfig
	err     error
}

func (f *fakeConfigRepo) GetConfig(ctx context.Context, experiment string) (domain.ExperimentConfig, bool, error) {
	if f.err != nil {
		return domain.ExperimentConfig{}, false, f.err
	}
	cfg, ok := f.configs[experiment]
	return cfg, ok, nil
}

func (f *fakeConfigRepo) UpsertConfig(ctx context.Context, cfg domain.ExperimentConfig) error {
	if f.err != nil {
		return f.err
	}
	if f.configs == nil {
		f.configs = make(map[string]domain.ExperimentConfig)
	}
	f.configs[cfg.ExperimentKey] = cfg
	return nil
}

var errStoreDown = errors.New("store down")
