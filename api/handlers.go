package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"owldoor/models"
	"owldoor/service"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.WithError(err).Error("Failed to encode response")
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Healthz reports liveness
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RunMatching triggers one auto-match invocation and returns its summary
func (s *Server) RunMatching(w http.ResponseWriter, r *http.Request) {
	summary, err := s.matchService.RunAutoMatch(r.Context(), ActorID(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			respondError(w, http.StatusForbidden, err.Error())
			return
		}
		log.WithError(err).Error("Auto-match run failed")
		respondError(w, http.StatusInternalServerError, "matching run failed")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

type createLeadRequest struct {
	Name         string         `json:"name" validate:"required"`
	Email        string         `json:"email" validate:"omitempty,email"`
	Phone        string         `json:"phone" validate:"omitempty,e164"`
	City         string         `json:"city" validate:"required"`
	State        string         `json:"state" validate:"required,len=2,uppercase"`
	Motivation   int            `json:"motivation" validate:"gte=0,lte=10"`
	Wants        []string       `json:"wants" validate:"dive,min=1"`
	CustomFields map[string]any `json:"custom_fields"`
	Exclusivity  string         `json:"exclusivity" validate:"omitempty,oneof=exclusive non_exclusive"`
}

// CreateLead handles lead intake
func (s *Server) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	lead := &models.Lead{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		City:         req.City,
		State:        req.State,
		Motivation:   req.Motivation,
		Wants:        req.Wants,
		CustomFields: req.CustomFields,
		Exclusivity:  models.ExclusivityMode(req.Exclusivity),
	}

	created, err := s.leadService.CreateLead(r.Context(), lead)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		log.WithError(err).Error("Failed to create lead")
		respondError(w, http.StatusInternalServerError, "failed to create lead")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// ListLeads returns leads, optionally filtered by pipeline stage
func (s *Server) ListLeads(w http.ResponseWriter, r *http.Request) {
	stage := models.PipelineStage(r.URL.Query().Get("stage"))
	if stage == "" {
		stage = models.StageMatchReady
	}

	leads, err := s.leadService.GetLeadsByStage(r.Context(), stage)
	if err != nil {
		log.WithError(err).Error("Failed to list leads")
		respondError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	respondJSON(w, http.StatusOK, leads)
}

// GetLead returns one lead by ID
func (s *Server) GetLead(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	lead, err := s.leadService.GetLead(r.Context(), id)
	if err != nil {
		log.WithError(err).Error("Failed to get lead")
		respondError(w, http.StatusInternalServerError, "failed to get lead")
		return
	}
	if lead == nil {
		respondError(w, http.StatusNotFound, "lead not found")
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// MarkLeadMatchReady transitions a lead into the matching pool
func (s *Server) MarkLeadMatchReady(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err := s.leadService.MarkMatchReady(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrStageConflict) {
			respondError(w, http.StatusConflict, "lead is not in the new stage")
			return
		}
		log.WithError(err).Error("Failed to mark lead match-ready")
		respondError(w, http.StatusInternalServerError, "failed to update lead")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"stage": string(models.StageMatchReady)})
}

// ArchiveLead retires a match-ready lead from the matching pool
func (s *Server) ArchiveLead(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err := s.leadService.ArchiveLead(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrStageConflict) {
			respondError(w, http.StatusConflict, "lead is not match-ready")
			return
		}
		log.WithError(err).Error("Failed to archive lead")
		respondError(w, http.StatusInternalServerError, "failed to archive lead")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"stage": string(models.StageArchived)})
}

type createClientRequest struct {
	Name           string   `json:"name" validate:"required"`
	CoverageCities []string `json:"coverage_cities" validate:"dive,min=1"`
	CoverageStates []string `json:"coverage_states" validate:"dive,len=2,uppercase"`
	Preferences    []string `json:"preferences" validate:"dive,min=1"`
	CostPerMatch   string   `json:"cost_per_match" validate:"omitempty,numeric"`
}

// CreateClient creates a new client with the configured initial credit grant
func (s *Server) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	client := &models.Client{
		Name:           req.Name,
		CoverageCities: req.CoverageCities,
		CoverageStates: req.CoverageStates,
		Preferences:    req.Preferences,
	}
	if req.CostPerMatch != "" {
		cost, err := decimal.NewFromString(req.CostPerMatch)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid cost_per_match")
			return
		}
		client.CostPerMatch = &cost
	}

	created, err := s.clientService.CreateClient(r.Context(), client)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		log.WithError(err).Error("Failed to create client")
		respondError(w, http.StatusInternalServerError, "failed to create client")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// GetClient returns one client by ID
func (s *Server) GetClient(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	client, err := s.clientService.GetClient(r.Context(), id)
	if err != nil {
		log.WithError(err).Error("Failed to get client")
		respondError(w, http.StatusInternalServerError, "failed to get client")
		return
	}
	if client == nil {
		respondError(w, http.StatusNotFound, "client not found")
		return
	}

	respondJSON(w, http.StatusOK, client)
}

type updateCriteriaRequest struct {
	CoverageCities []string `json:"coverage_cities" validate:"dive,min=1"`
	CoverageStates []string `json:"coverage_states" validate:"dive,len=2,uppercase"`
	Preferences    []string `json:"preferences" validate:"dive,min=1"`
	CostPerMatch   string   `json:"cost_per_match" validate:"omitempty,numeric"`
}

// UpdateClientCriteria replaces a client's coverage area and preference filters
func (s *Server) UpdateClientCriteria(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var req updateCriteriaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	client := &models.Client{
		ID:             id,
		CoverageCities: req.CoverageCities,
		CoverageStates: req.CoverageStates,
		Preferences:    req.Preferences,
	}
	if req.CostPerMatch != "" {
		cost, err := decimal.NewFromString(req.CostPerMatch)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid cost_per_match")
			return
		}
		client.CostPerMatch = &cost
	}

	if err := s.clientService.UpdateMatchingCriteria(r.Context(), client); err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		log.WithError(err).Error("Failed to update client criteria")
		respondError(w, http.StatusInternalServerError, "failed to update criteria")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type grantCreditsRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
	Note   string `json:"note"`
}

// GrantCredits adds credits to a client through the ledger
func (s *Server) GrantCredits(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var req grantCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		respondError(w, http.StatusBadRequest, "amount must be a positive number")
		return
	}

	metadata := map[string]any{
		"granted_by": ActorID(r.Context()),
	}
	if req.Note != "" {
		metadata["note"] = req.Note
	}

	entry, err := s.creditService.GrantCredits(r.Context(), id, amount, models.CreditReasonAdminGrant, metadata)
	if err != nil {
		log.WithError(err).Error("Failed to grant credits")
		respondError(w, http.StatusInternalServerError, "failed to grant credits")
		return
	}

	respondJSON(w, http.StatusCreated, entry)
}

// DeactivateClient marks a client inactive
func (s *Server) DeactivateClient(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err := s.clientService.DeactivateClient(r.Context(), id); err != nil {
		log.WithError(err).Error("Failed to deactivate client")
		respondError(w, http.StatusInternalServerError, "failed to deactivate client")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"active": false})
}

// GetLedger returns credit transactions for a client, either the most recent
// entries or a from/to RFC3339 window
func (s *Server) GetLedger(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if fromRaw := r.URL.Query().Get("from"); fromRaw != "" {
		from, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		to := time.Now()
		if toRaw := r.URL.Query().Get("to"); toRaw != "" {
			if to, err = time.Parse(time.RFC3339, toRaw); err != nil {
				respondError(w, http.StatusBadRequest, "to must be RFC3339")
				return
			}
		}

		entries, err := s.creditService.GetLedgerByDateRange(r.Context(), id, from, to)
		if err != nil {
			log.WithError(err).Error("Failed to get ledger")
			respondError(w, http.StatusInternalServerError, "failed to get ledger")
			return
		}
		respondJSON(w, http.StatusOK, entries)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 || parsed > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	entries, err := s.creditService.GetLedger(r.Context(), id, limit)
	if err != nil {
		log.WithError(err).Error("Failed to get ledger")
		respondError(w, http.StatusInternalServerError, "failed to get ledger")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// ListMatches returns matches created since the given RFC3339 timestamp,
// defaulting to the last 24 hours
func (s *Server) ListMatches(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	matches, err := s.matchService.ListMatchesSince(r.Context(), since)
	if err != nil {
		log.WithError(err).Error("Failed to list matches")
		respondError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}

	respondJSON(w, http.StatusOK, matches)
}
