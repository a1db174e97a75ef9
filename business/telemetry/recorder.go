package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"myEventReco/business/experiment"
	"myEventReco/domain"
	"myEventReco/pkg/logger"
	"myEventReco/pkg/metrics"
	"myEventReco/pkg/trace"

	"gorm.io/datatypes"
)

// DefaultDedupWindow is how long repeated clicks on the same item by the
// same subject collapse into one row.
const DefaultDedupWindow = 10 * time.Second

const maxContextLen = 255

var (
	ErrInvalidClick = errors.New("item id and subject are required")
	ErrInvalidEvent = errors.New("subject and event name are required")
)

// ---- Repository interfaces ----

type Repository interface {
	InsertTelemetry(ctx context.Context, ev *domain.TelemetryEvent) error
	QueryRecentClick(ctx context.Context, itemID uint64, subject string) (time.Time, bool, error)
}

// ClickWindow is an optional fast pre-filter for duplicate clicks. Claim
// returns false when (item, subject) was already claimed inside window.
type ClickWindow interface {
	Claim(ctx context.Context, itemID uint64, subject string, window time.Duration) (bool, error)
}

type Recorder struct {
	repo        Repository
	clickWindow ClickWindow
	dedupWindow time.Duration
	now         func() time.Time
}

type Option func(*Recorder)

func WithClickWindow(w ClickWindow) Option {
	return func(r *Recorder) {
		r.clickWindow = w
	}
}

func WithDedupWindow(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.dedupWindow = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRecorder(repo Repository, opts ...Option) *Recorder {
	r := &Recorder{
		repo:        repo,
		dedupWindow: DefaultDedupWindow,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type ClickInput struct {
	ItemID     uint64
	Subject    string
	Experiment string
	Variant    string
	Context    string
}

// RecordClick stores a click unless the same subject clicked the same item
// within the dedup window. The check and the insert are not atomic; a burst
// of concurrent duplicates may store a few extra rows.
func (r *Recorder) RecordClick(ctx context.Context, in ClickInput) (domain.ClickResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClickResult{}, fmt.Errorf("context error: %w", err)
	}
	if in.ItemID == 0 || in.Subject == "" {
		return domain.ClickResult{}, ErrInvalidClick
	}

	tid := trace.TraceIDFromContext(ctx)
	now := r.now()

	if r.clickWindow != nil {
		claimed, err := r.clickWindow.Claim(ctx, in.ItemID, in.Subject, r.dedupWindow)
		if err != nil {
			logger.Warn("telemetry_click_window_failed", "trace_id", tid, "error", err)
		} else if !claimed {
			return r.duplicate(tid, in), nil
		}
	}

	last, ok, err := r.repo.QueryRecentClick(ctx, in.ItemID, in.Subject)
	if err != nil {
		return domain.ClickResult{}, fmt.Errorf("query recent click: %w", err)
	}
	if ok && now.Sub(last) < r.dedupWindow {
		return r.duplicate(tid, in), nil
	}

	ev := &domain.TelemetryEvent{
		ExperimentKey: experiment.SanitizeKey(in.Experiment),
		Variant:       experiment.SanitizeVariant(in.Variant),
		SubjectID:     in.Subject,
		ItemID:        in.ItemID,
		EventName:     domain.EventNameClick,
		Value:         1.0,
		Context:       truncate(in.Context, maxContextLen),
		CreatedAt:     now,
	}
	if err := r.insert(ctx, ev); err != nil {
		logger.Warn("telemetry_click_dropped", "trace_id", tid, "item_id", in.ItemID, "error", err)
		return domain.ClickResult{}, nil
	}

	logger.Debug("telemetry_click",
		"trace_id", tid,
		"item_id", in.ItemID,
		"subject", in.Subject,
		"experiment", ev.ExperimentKey,
		"variant", ev.Variant,
	)
	return domain.ClickResult{Stored: true}, nil
}

func (r *Recorder) duplicate(tid string, in ClickInput) domain.ClickResult {
	metrics.DuplicateClicksTotal.Inc()
	logger.Debug("telemetry_click_duplicate", "trace_id", tid, "item_id", in.ItemID, "subject", in.Subject)
	return domain.ClickResult{Duplicate: true}
}

type EventInput struct {
	Experiment string
	Variant    string
	Subject    string
	EventName  string
	// Value defaults to 1.0 when nil.
	Value   *float64
	Context string
}

// RecordEvent appends one telemetry row. There is no suppression; exposure
// idempotence is the assigner's job. A failed insert is logged and dropped.
func (r *Recorder) RecordEvent(ctx context.Context, in EventInput) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if in.Subject == "" || strings.TrimSpace(in.EventName) == "" {
		return ErrInvalidEvent
	}

	value := 1.0
	if in.Value != nil {
		value = *in.Value
	}
	name, meta := normalizeEventName(in.EventName)

	ev := &domain.TelemetryEvent{
		ExperimentKey: experiment.SanitizeKey(in.Experiment),
		Variant:       experiment.SanitizeVariant(in.Variant),
		SubjectID:     in.Subject,
		EventName:     name,
		Value:         value,
		Context:       truncate(in.Context, maxContextLen),
		Meta:          meta,
		CreatedAt:     r.now(),
	}
	if err := r.insert(ctx, ev); err != nil {
		logger.Warn("telemetry_event_dropped",
			"trace_id", trace.TraceIDFromContext(ctx),
			"experiment", ev.ExperimentKey,
			"event_name", name,
			"error", err,
		)
	}
	return nil
}

// RecordExposure implements experiment.ExposureRecorder. Unlike RecordEvent
// it reports insert failures to the caller.
func (r *Recorder) RecordExposure(ctx context.Context, experimentKey, variant, subject string) error {
	return r.insert(ctx, &domain.TelemetryEvent{
		ExperimentKey: experimentKey,
		Variant:       variant,
		SubjectID:     subject,
		EventName:     domain.EventNameExposure,
		Value:         1.0,
		CreatedAt:     r.now(),
	})
}

func (r *Recorder) insert(ctx context.Context, ev *domain.TelemetryEvent) error {
	if err := r.repo.InsertTelemetry(ctx, ev); err != nil {
		metrics.StorageWriteFailures.WithLabelValues("telemetry").Inc()
		return err
	}
	metrics.TelemetryEventsTotal.WithLabelValues(ev.EventName).Inc()
	return nil
}

// normalizeEventName folds anything other than exposure/click into custom,
// keeping the caller's name in meta.
func normalizeEventName(name string) (string, datatypes.JSONMap) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case domain.EventNameExposure, domain.EventNameClick, domain.EventNameCustom:
		return n, nil
	default:
		return domain.EventNameCustom, datatypes.JSONMap{"name": experiment.SanitizeKey(n)}
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
