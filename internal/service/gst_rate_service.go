package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gstbilling/internal/model"
	"gstbilling/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateGSTRateRequest struct {
	HSNCode       string `json:"hsn_code" binding:"required"`
	CGSTRate      string `json:"cgst_rate" binding:"required"`      // Percentage string, e.g. "9"
	SGSTRate      string `json:"sgst_rate" binding:"required"`
	IGSTRate      string `json:"igst_rate"`                         // Defaults to cgst + sgst
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
	EffectiveTo   string `json:"effective_to"`                      // YYYY-MM-DD, nullable
	Description   string `json:"description"`
}

type UpdateGSTRateRequest struct {
	HSNCode       string `json:"hsn_code" binding:"required"`
	CGSTRate      string `json:"cgst_rate" binding:"required"`
	SGSTRate      string `json:"sgst_rate" binding:"required"`
	IGSTRate      string `json:"igst_rate"`
	EffectiveFrom string `json:"effective_from" binding:"required"`
	EffectiveTo   string `json:"effective_to"`
	Description   string `json:"description"`
}

type GSTRateResponse struct {
	ID            string  `json:"id"`
	HSNCode       string  `json:"hsn_code"`
	CGSTRate      string  `json:"cgst_rate"`
	SGSTRate      string  `json:"sgst_rate"`
	IGSTRate      string  `json:"igst_rate"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
	Description   string  `json:"description"`
	CreatedAt     string  `json:"created_at"`
}

// --- Interface ---

type GSTRateService interface {
	ListGSTRates(ctx context.Context, hsnCode string, page, limit int) ([]GSTRateResponse, int64, error)
	CreateGSTRate(ctx context.Context, req CreateGSTRateRequest, userID string) (GSTRateResponse, error)
	UpdateGSTRate(ctx context.Context, id string, req UpdateGSTRateRequest, userID string) (GSTRateResponse, error)
	DeleteGSTRate(ctx context.Context, id string, userID string) error
	GetActiveGSTRate(ctx context.Context, hsnCode string, onDate string) (*GSTRateResponse, error)
}

type gstRateService struct {
	rateRepo  repository.GSTRateRepository
	auditRepo repository.AuditRepository
}

func NewGSTRateService(rateRepo repository.GSTRateRepository, auditRepo repository.AuditRepository) GSTRateService {
	return &gstRateService{rateRepo: rateRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *gstRateService) ListGSTRates(ctx context.Context, hsnCode string, page, limit int) ([]GSTRateResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	rules, total, err := s.rateRepo.List(ctx, hsnCode, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch GST rate rules: %w", err)
	}

	res := make([]GSTRateResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toGSTRateResponse(r))
	}
	return res, total, nil
}

func (s *gstRateService) CreateGSTRate(ctx context.Context, req CreateGSTRateRequest, userID string) (GSTRateResponse, error) {
	rule, err := parseGSTRateFields(req.HSNCode, req.CGSTRate, req.SGSTRate, req.IGSTRate, req.EffectiveFrom, req.EffectiveTo, req.Description)
	if err != nil {
		return GSTRateResponse{}, err
	}

	if err := s.checkOverlap(ctx, rule.HSNCode, rule.EffectiveFrom, rule.EffectiveTo, nil); err != nil {
		return GSTRateResponse{}, err
	}

	if err := s.rateRepo.Create(ctx, rule); err != nil {
		return GSTRateResponse{}, fmt.Errorf("failed to create GST rate rule: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionCreateGSTRate, rule.ID.String(), rule.HSNCode, req)

	return toGSTRateResponse(*rule), nil
}

func (s *gstRateService) UpdateGSTRate(ctx context.Context, id string, req UpdateGSTRateRequest, userID string) (GSTRateResponse, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return GSTRateResponse{}, fmt.Errorf("invalid GST rate rule id: %w", err)
	}

	existing, err := s.rateRepo.FindByID(ctx, ruleID)
	if err != nil {
		return GSTRateResponse{}, fmt.Errorf("GST rate rule not found: %w", err)
	}

	parsed, err := parseGSTRateFields(req.HSNCode, req.CGSTRate, req.SGSTRate, req.IGSTRate, req.EffectiveFrom, req.EffectiveTo, req.Description)
	if err != nil {
		return GSTRateResponse{}, err
	}

	if err := s.checkOverlap(ctx, parsed.HSNCode, parsed.EffectiveFrom, parsed.EffectiveTo, &ruleID); err != nil {
		return GSTRateResponse{}, err
	}

	existing.HSNCode = parsed.HSNCode
	existing.CGSTRate = parsed.CGSTRate
	existing.SGSTRate = parsed.SGSTRate
	existing.IGSTRate = parsed.IGSTRate
	existing.EffectiveFrom = parsed.EffectiveFrom
	existing.EffectiveTo = parsed.EffectiveTo
	existing.Description = parsed.Description

	if err := s.rateRepo.Update(ctx, existing); err != nil {
		return GSTRateResponse{}, fmt.Errorf("failed to update GST rate rule: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionUpdateGSTRate, existing.ID.String(), existing.HSNCode, req)

	return toGSTRateResponse(*existing), nil
}

func (s *gstRateService) DeleteGSTRate(ctx context.Context, id string, userID string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid GST rate rule id: %w", err)
	}

	rule, err := s.rateRepo.FindByID(ctx, ruleID)
	if err != nil {
		return fmt.Errorf("GST rate rule not found: %w", err)
	}

	if err := s.rateRepo.Delete(ctx, ruleID); err != nil {
		return fmt.Errorf("failed to delete GST rate rule: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionDeleteGSTRate, rule.ID.String(), rule.HSNCode, map[string]string{"deleted_id": id})

	return nil
}

// GetActiveGSTRate returns the rule active for an HSN code on a date
// (default today), or nil when none applies — absence is not an error here;
// invoice creation is where a missing rule fails.
func (s *gstRateService) GetActiveGSTRate(ctx context.Context, hsnCode string, onDate string) (*GSTRateResponse, error) {
	target := time.Now()
	if onDate != "" {
		parsed, err := time.Parse("2006-01-02", onDate)
		if err != nil {
			return nil, fmt.Errorf("invalid date (expected YYYY-MM-DD): %w", err)
		}
		target = parsed
	}

	rule, err := s.rateRepo.FindActiveByHSN(ctx, hsnCode, target)
	if err != nil {
		return nil, nil
	}

	resp := toGSTRateResponse(*rule)
	return &resp, nil
}

// --- Helpers ---

func parseGSTRateFields(hsnCode, cgstStr, sgstStr, igstStr, fromStr, toStr, description string) (*model.GSTRateRule, error) {
	cgst, err := decimal.NewFromString(cgstStr)
	if err != nil {
		return nil, fmt.Errorf("invalid cgst_rate value: %w", err)
	}
	sgst, err := decimal.NewFromString(sgstStr)
	if err != nil {
		return nil, fmt.Errorf("invalid sgst_rate value: %w", err)
	}

	igst := cgst.Add(sgst)
	if igstStr != "" {
		igst, err = decimal.NewFromString(igstStr)
		if err != nil {
			return nil, fmt.Errorf("invalid igst_rate value: %w", err)
		}
	}

	effectiveFrom, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return nil, fmt.Errorf("invalid effective_from date format (expected YYYY-MM-DD): %w", err)
	}

	var effectiveTo *time.Time
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return nil, fmt.Errorf("invalid effective_to date format (expected YYYY-MM-DD): %w", err)
		}
		effectiveTo = &t
	}

	return &model.GSTRateRule{
		HSNCode:       hsnCode,
		CGSTRate:      cgst,
		SGSTRate:      sgst,
		IGSTRate:      igst,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		Description:   description,
	}, nil
}

func (s *gstRateService) checkOverlap(ctx context.Context, hsnCode string, from time.Time, to *time.Time, excludeID *uuid.UUID) error {
	count, err := s.rateRepo.FindOverlapping(ctx, hsnCode, from, to, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check overlap: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("a GST rate rule for HSN '%s' already exists with overlapping effective dates", hsnCode)
	}
	return nil
}

func toGSTRateResponse(r model.GSTRateRule) GSTRateResponse {
	resp := GSTRateResponse{
		ID:            r.ID.String(),
		HSNCode:       r.HSNCode,
		CGSTRate:      r.CGSTRate.StringFixed(4),
		SGSTRate:      r.SGSTRate.StringFixed(4),
		IGSTRate:      r.IGSTRate.StringFixed(4),
		EffectiveFrom: r.EffectiveFrom.Format("2006-01-02"),
		Description:   r.Description,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.EffectiveTo != nil {
		s := r.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &s
	}
	return resp
}

func (s *gstRateService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}

	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			entry.UserID = &parsed
		}
	}

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}
