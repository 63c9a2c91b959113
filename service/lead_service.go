package service

import (
	"context"
	"fmt"

	"owldoor/events"
	"owldoor/models"
)

// customFieldKind describes the accepted value type for a custom field key
type customFieldKind int

const (
	fieldKindString customFieldKind = iota
	fieldKindNumber
	fieldKindBool
)

// customFieldSchema is the allowlist for lead custom fields. Arbitrary keys
// are rejected at intake so free-form payloads never reach the store.
var customFieldSchema = map[string]customFieldKind{
	"source":           fieldKindString,
	"referrer":         fieldKindString,
	"license_number":   fieldKindString,
	"years_experience": fieldKindNumber,
	"team_size":        fieldKindNumber,
	"relocating":       fieldKindBool,
}

func validateCustomFields(fields map[string]any) error {
	for key, value := range fields {
		kind, ok := customFieldSchema[key]
		if !ok {
			return &ValidationError{Field: "custom_fields." + key, Reason: "unknown field"}
		}
		switch kind {
		case fieldKindString:
			if _, ok := value.(string); !ok {
				return &ValidationError{Field: "custom_fields." + key, Reason: "expected string"}
			}
		case fieldKindNumber:
			switch value.(type) {
			case float64, int, int64:
			default:
				return &ValidationError{Field: "custom_fields." + key, Reason: "expected number"}
			}
		case fieldKindBool:
			if _, ok := value.(bool); !ok {
				return &ValidationError{Field: "custom_fields." + key, Reason: "expected boolean"}
			}
		}
	}
	return nil
}

type leadService struct {
	uowFactory UnitOfWorkFactory
}

// NewLeadService creates a new lead service
func NewLeadService(uowFactory UnitOfWorkFactory) LeadService {
	return &leadService{
		uowFactory: uowFactory,
	}
}

// CreateLead validates and creates a new lead in the `new` stage
func (s *leadService) CreateLead(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if lead.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	if lead.City == "" || lead.State == "" {
		return nil, &ValidationError{Field: "location", Reason: "city and state are required"}
	}
	if lead.Motivation < 0 {
		return nil, &ValidationError{Field: "motivation", Reason: "must not be negative"}
	}
	if err := validateCustomFields(lead.CustomFields); err != nil {
		return nil, err
	}

	lead.Stage = models.StageNew
	if lead.Exclusivity == "" {
		lead.Exclusivity = models.ExclusivityExclusive
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.LeadRepository().Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	uow.EventBus().Publish(events.LeadCreatedEvent{
		LeadID: lead.ID,
		City:   lead.City,
		State:  lead.State,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return lead, nil
}

// GetLead retrieves a lead by ID
func (s *leadService) GetLead(ctx context.Context, leadID int64) (*models.Lead, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	lead, err := uow.LeadRepository().GetByID(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return lead, nil
}

// GetLeadsByStage returns leads in the given stage
func (s *leadService) GetLeadsByStage(ctx context.Context, stage models.PipelineStage) ([]*models.Lead, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	leads, err := uow.LeadRepository().GetByStage(ctx, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to get leads in stage %s: %w", stage, err)
	}

	return leads, nil
}

// MarkMatchReady transitions a lead from `new` to `match_ready`
func (s *leadService) MarkMatchReady(ctx context.Context, leadID int64) error {
	return s.transition(ctx, leadID, models.StageNew, models.StageMatchReady)
}

// ArchiveLead transitions a match-ready lead to `archived`
func (s *leadService) ArchiveLead(ctx context.Context, leadID int64) error {
	return s.transition(ctx, leadID, models.StageMatchReady, models.StageArchived)
}

func (s *leadService) transition(ctx context.Context, leadID int64, from, to models.PipelineStage) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.LeadRepository().UpdateStage(ctx, leadID, from, to); err != nil {
		return err
	}

	uow.EventBus().Publish(events.LeadStageChangedEvent{
		LeadID:   leadID,
		OldStage: from,
		NewStage: to,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
