package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventNameExposure = "exposure"
	EventNameClick    = "click"
	EventNameCustom   = "custom"
)

// CREATE TABLE public.telemetry_events (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     experiment_key  TEXT,
//     variant         TEXT,
//     subject_id      TEXT NOT NULL,
//     item_id         BIGINT,
//     event_name      TEXT NOT NULL,
//     value           NUMERIC NOT NULL DEFAULT 1,
//     context         TEXT,
//     meta            JSONB,
//     created_at      TIMESTAMPTZ DEFAULT NOW()
// );
// CREATE INDEX idx_telemetry_variant ON telemetry_events (experiment_key, variant, event_name, created_at);
// CREATE INDEX idx_telemetry_click ON telemetry_events (item_id, subject_id, created_at);

// TelemetryEvent rows are append-only.
type TelemetryEvent struct {
	ID            uint64            `gorm:"primaryKey" json:"id"`
	ExperimentKey string            `gorm:"column:experiment_key" json:"experiment,omitempty"`
	Variant       string            `gorm:"column:variant" json:"variant,omitempty"`
	SubjectID     string            `gorm:"column:subject_id;not null" json:"subject_id"`
	ItemID        uint64            `gorm:"column:item_id" json:"item_id,omitempty"`
	EventName     string            `gorm:"column:event_name;not null" json:"event_name"`
	Value         float64           `gorm:"column:value" json:"value"`
	Context       string            `gorm:"column:context" json:"context,omitempty"`
	Meta          datatypes.JSONMap `gorm:"column:meta;type:jsonb" json:"meta,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at" json:"created_at"`
}

func (TelemetryEvent) TableName() string {
	return "telemetry_events"
}

type ClickResult struct {
	Stored    bool `json:"stored"`
	Duplicate bool `json:"duplicate"`
}

// VariantStats is derived at query time, never stored.
type VariantStats struct {
	ExperimentKey string `gorm:"column:experiment_key" json:"experiment"`
	Variant       string `gorm:"column:variant" json:"variant"`
	Exposures     int64  `gorm:"column:exposures" json:"exposures"`
	Clicks        int64  `gorm:"column:clicks" json:"clicks"`
}

func (s VariantStats) CTR() float64 {
	if s.Exposures == 0 {
		return 0
	}
	return float64(s.Clicks) / float64(s.Exposures)
}
