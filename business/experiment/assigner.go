package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myEventReco/domain"
	"myEventReco/pkg/logger"
	"myEventReco/pkg/metrics"
	"myEventReco/pkg/trace"
)

var (
	ErrInvalidExperiment = errors.New("invalid experiment configuration")
	ErrMissingSubject    = errors.New("missing subject identity")
)

// resolution sources, used for logging and metrics
const (
	sourceUser    = "user"
	sourceSession = "session"
	sourceToken   = "token"
	sourceHashed  = "hashed"
)

// ---- Repository interfaces ----

type AssignmentRepository interface {
	FetchAssignment(ctx context.Context, experiment, scope, subjectID string) (domain.Assignment, bool, error)
	UpsertAssignment(ctx context.Context, a domain.Assignment) error
}

// ConfigRepository reads admin-managed experiment definitions.
type ConfigRepository interface {
	GetConfig(ctx context.Context, experiment string) (domain.ExperimentConfig, bool, error)
	UpsertConfig(ctx context.Context, cfg domain.ExperimentConfig) error
}

// ExposureRecorder receives the single exposure of a newly created
// assignment.
type ExposureRecorder interface {
	RecordExposure(ctx context.Context, experiment, variant, subject string) error
}

type AssignInput struct {
	Identity    Identity
	Experiment  string
	Variants    []string
	Split       int
	StickyToken string
}

type Assigner struct {
	repo      AssignmentRepository
	configs   ConfigRepository
	exposures ExposureRecorder
	tokens    *TokenCodec
	now       func() time.Time
}

func NewAssigner(
	repo AssignmentRepository,
	configs ConfigRepository,
	exposures ExposureRecorder,
	tokens *TokenCodec,
) *Assigner {
	return &Assigner{
		repo:      repo,
		configs:   configs,
		exposures: exposures,
		tokens:    tokens,
		now:       time.Now,
	}
}

// Tokens exposes the sticky token codec so transports can issue cookies.
func (a *Assigner) Tokens() *TokenCodec {
	return a.tokens
}

// Assign resolves the variant of in.Experiment for in.Identity. Resolution
// order: user-scoped row, session-scoped row, sticky token, hash. Only the
// hash path creates an assignment (IsNew) and emits an exposure.
//
// Concurrent first-time calls may both reach the hash path; they compute the
// same variant, so the duplicate upsert is harmless.
func (a *Assigner) Assign(ctx context.Context, in AssignInput) (domain.AssignmentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.AssignmentResult{}, fmt.Errorf("context error: %w", err)
	}

	key := SanitizeKey(in.Experiment)
	if key == "" {
		return domain.AssignmentResult{}, fmt.Errorf("%w: experiment key is required", ErrInvalidExperiment)
	}
	if in.Identity.Empty() {
		return domain.AssignmentResult{}, ErrMissingSubject
	}

	variants, split, err := a.resolveDefinition(ctx, key, in.Variants, in.Split)
	if err != nil {
		return domain.AssignmentResult{}, err
	}

	id := in.Identity
	tid := trace.TraceIDFromContext(ctx)

	// 1) authenticated user
	if id.UserID != "" {
		row, ok, err := a.repo.FetchAssignment(ctx, key, domain.SubjectScopeUser, id.UserID)
		if err != nil {
			return domain.AssignmentResult{}, fmt.Errorf("fetch user assignment: %w", err)
		}
		if ok && containsVariant(variants, row.Variant) {
			return a.existing(key, row.Variant, sourceUser, tid), nil
		}
	}

	// 2) anonymous session, carried over to the user after login
	if id.SessionID != "" {
		row, ok, err := a.repo.FetchAssignment(ctx, key, domain.SubjectScopeSession, id.SessionID)
		if err != nil {
			return domain.AssignmentResult{}, fmt.Errorf("fetch session assignment: %w", err)
		}
		if ok && containsVariant(variants, row.Variant) {
			if id.UserID != "" {
				a.persist(ctx, key, domain.SubjectScopeUser, id.UserID, row.Variant)
			}
			return a.existing(key, row.Variant, sourceSession, tid), nil
		}
	}

	// 3) sticky token from a previous response
	if exp, variant, ok := a.tokens.Parse(in.StickyToken); ok && exp == key && containsVariant(variants, variant) {
		scope, subjectID := id.primaryScope()
		a.persist(ctx, key, scope, subjectID, variant)
		return a.existing(key, variant, sourceToken, tid), nil
	}

	// 4) deterministic hash
	variant := variants[Bucket(Seed(id.Subject(), key), len(variants), split)]
	scope, subjectID := id.primaryScope()
	a.persist(ctx, key, scope, subjectID, variant)

	if a.exposures != nil {
		if err := a.exposures.RecordExposure(ctx, key, variant, id.Subject()); err != nil {
			logger.Warn("experiment_exposure_failed", "trace_id", tid, "experiment", key, "variant", variant, "error", err)
		}
	}

	metrics.AssignmentsTotal.WithLabelValues(sourceHashed).Inc()
	logger.Debug("experiment_assign",
		"trace_id", tid,
		"experiment", key,
		"subject", id.Subject(),
		"variant", variant,
		"source", sourceHashed,
		"split", split,
	)

	return domain.AssignmentResult{
		Experiment: key,
		Variant:    variant,
		Source:     domain.AssignmentSourceNew,
		IsNew:      true,
	}, nil
}

// resolveDefinition fills variants and split from the stored config when
// the caller did not pass them, then validates.
func (a *Assigner) resolveDefinition(ctx context.Context, key string, variants []string, split int) ([]string, int, error) {
	if len(variants) == 0 && a.configs != nil {
		cfg, ok, err := a.configs.GetConfig(ctx, key)
		if err != nil {
			return nil, 0, fmt.Errorf("load experiment config: %w", err)
		}
		if ok {
			variants = cfg.Variants
			if split == 0 {
				split = cfg.Split
			}
		}
	}

	variants = normalizeVariants(variants)
	if len(variants) < 2 {
		return nil, 0, fmt.Errorf("%w: at least two distinct variants are required", ErrInvalidExperiment)
	}
	if split == 0 {
		split = DefaultSplit
	}
	return variants, split, nil
}

func (a *Assigner) existing(key, variant, source, tid string) domain.AssignmentResult {
	metrics.AssignmentsTotal.WithLabelValues(source).Inc()
	logger.Debug("experiment_assign",
		"trace_id", tid,
		"experiment", key,
		"variant", variant,
		"source", source,
	)
	return domain.AssignmentResult{
		Experiment: key,
		Variant:    variant,
		Source:     domain.AssignmentSourceExisting,
	}
}

// persist is best-effort: the caller still gets the computed variant when
// the store is unavailable.
func (a *Assigner) persist(ctx context.Context, key, scope, subjectID, variant string) {
	row := domain.Assignment{
		ExperimentKey: key,
		SubjectScope:  scope,
		SubjectID:     subjectID,
		Variant:       variant,
		AssignedAt:    a.now(),
	}
	if err := a.repo.UpsertAssignment(ctx, row); err != nil {
		metrics.StorageWriteFailures.WithLabelValues("assignment").Inc()
		logger.Warn("experiment_assignment_persist_failed",
			"trace_id", trace.TraceIDFromContext(ctx),
			"experiment", key,
			"scope", scope,
			"error", err,
		)
	}
}
