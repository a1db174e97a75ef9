package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SubjectScopeUser    = "user"
	SubjectScopeSession = "session"
)

const (
	AssignmentSourceExisting = "existing"
	AssignmentSourceNew      = "newly-assigned"
)

// CREATE TABLE public.experiment_assignments (
//     experiment_key  TEXT NOT NULL,
//     subject_scope   TEXT NOT NULL,
//     subject_id      TEXT NOT NULL,
//     variant         TEXT NOT NULL,
//     assigned_at     TIMESTAMPTZ DEFAULT NOW(),
//     PRIMARY KEY (experiment_key, subject_scope, subject_id)
// );

type Assignment struct {
	ExperimentKey string    `gorm:"column:experiment_key;primaryKey" json:"experiment"`
	SubjectScope  string    `gorm:"column:subject_scope;primaryKey" json:"subject_scope"`
	SubjectID     string    `gorm:"column:subject_id;primaryKey" json:"subject_id"`
	Variant       string    `gorm:"column:variant;not null" json:"variant"`
	AssignedAt    time.Time `gorm:"column:assigned_at" json:"assigned_at"`
}

func (Assignment) TableName() string {
	return "experiment_assignments"
}

type AssignmentResult struct {
	Experiment string `json:"experiment"`
	Variant    string `json:"variant"`
	Source     string `json:"source"`
	IsNew      bool   `json:"-"`
}

// CREATE TABLE public.experiment_configs (
//     experiment_key  TEXT PRIMARY KEY,
//     variants        JSONB NOT NULL,
//     split           INT NOT NULL DEFAULT 50,
//     algorithms      JSONB,
//     weights         JSONB,
//     updated_at      TIMESTAMPTZ DEFAULT NOW()
// );

// ExperimentConfig is maintained from the admin API. Algorithms maps a
// variant name to an Algorithm; Weights maps a variant name to a raw weight
// override map.
type ExperimentConfig struct {
	ExperimentKey string            `gorm:"column:experiment_key;primaryKey" json:"experiment"`
	VariantsRaw   datatypes.JSON    `gorm:"column:variants;type:jsonb" json:"-"`
	Variants      []string          `gorm:"-" json:"variants"`
	Split         int               `gorm:"column:split" json:"split"`
	Algorithms    datatypes.JSONMap `gorm:"column:algorithms;type:jsonb" json:"algorithms,omitempty"`
	Weights       datatypes.JSONMap `gorm:"column:weights;type:jsonb" json:"weights,omitempty"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ExperimentConfig) TableName() string {
	return "experiment_configs"
}

// AlgorithmFor returns the algorithm configured for variant, if any.
func (c ExperimentConfig) AlgorithmFor(variant string) (Algorithm, bool) {
	raw, ok := c.Algorithms[variant].(string)
	if !ok {
		return "", false
	}
	a := Algorithm(raw)
	return a, a.Valid()
}

// WeightsFor returns the raw weight overrides configured for variant.
func (c ExperimentConfig) WeightsFor(variant string) map[string]float64 {
	raw, ok := c.Weights[variant].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}
