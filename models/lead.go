package models

import (
	"time"
)

// PipelineStage represents where a lead sits in the intake pipeline
type PipelineStage string

const (
	StageNew        PipelineStage = "new"
	StageMatchReady PipelineStage = "match_ready"
	StageMatched    PipelineStage = "matched"
	StageArchived   PipelineStage = "archived"
)

// ExclusivityMode controls whether a lead may be paired with one client or many
type ExclusivityMode string

const (
	ExclusivityExclusive    ExclusivityMode = "exclusive"
	ExclusivityNonExclusive ExclusivityMode = "non_exclusive"
)

// Lead represents a prospective agent awaiting placement with a client
type Lead struct {
	ID           int64           `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Email        string          `db:"email" json:"email,omitempty"`
	Phone        string          `db:"phone" json:"phone,omitempty"`
	City         string          `db:"city" json:"city"`
	State        string          `db:"state" json:"state"`
	Motivation   int             `db:"motivation" json:"motivation"`
	Wants        []string        `db:"wants" json:"wants"`
	CustomFields map[string]any  `db:"custom_fields" json:"custom_fields,omitempty"`
	Stage        PipelineStage   `db:"stage" json:"stage"`
	Exclusivity  ExclusivityMode `db:"exclusivity" json:"exclusivity"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
