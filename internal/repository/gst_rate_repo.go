package repository

import (
	"context"
	"time"

	"gstbilling/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GSTRateRepository interface {
	Create(ctx context.Context, rule *model.GSTRateRule) error
	Update(ctx context.Context, rule *model.GSTRateRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GSTRateRule, error)
	List(ctx context.Context, hsnCode string, page, limit int) ([]model.GSTRateRule, int64, error)
	FindActiveByHSN(ctx context.Context, hsnCode string, targetDate time.Time) (*model.GSTRateRule, error)
	FindOverlapping(ctx context.Context, hsnCode string, from time.Time, to *time.Time, excludeID *uuid.UUID) (int64, error)
}

type gstRateRepository struct {
	db *gorm.DB
}

func NewGSTRateRepository(db *gorm.DB) GSTRateRepository {
	return &gstRateRepository{db: db}
}

func (r *gstRateRepository) Create(ctx context.Context, rule *model.GSTRateRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *gstRateRepository) Update(ctx context.Context, rule *model.GSTRateRule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *gstRateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.GSTRateRule{}).Error
}

func (r *gstRateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.GSTRateRule, error) {
	var rule model.GSTRateRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *gstRateRepository) List(ctx context.Context, hsnCode string, page, limit int) ([]model.GSTRateRule, int64, error) {
	var rules []model.GSTRateRule
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.GSTRateRule{})
	if hsnCode != "" {
		query = query.Where("hsn_code = ?", hsnCode)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("hsn_code, effective_from desc").Offset(offset).Limit(limit).Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

func (r *gstRateRepository) FindActiveByHSN(ctx context.Context, hsnCode string, targetDate time.Time) (*model.GSTRateRule, error) {
	var rule model.GSTRateRule
	if err := GetDB(ctx, r.db).
		Where("hsn_code = ? AND effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", hsnCode, targetDate, targetDate).
		Order("effective_from DESC").
		First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *gstRateRepository) FindOverlapping(ctx context.Context, hsnCode string, from time.Time, to *time.Time, excludeID *uuid.UUID) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.GSTRateRule{}).Where("hsn_code = ?", hsnCode)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	if to != nil {
		// New rule has end date: overlap if existing.from <= new.to AND (existing.to IS NULL OR existing.to >= new.from)
		query = query.Where("effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", *to, from)
	} else {
		// New rule has no end date: overlap if (existing.to IS NULL OR existing.to >= new.from)
		query = query.Where("(effective_to IS NULL OR effective_to >= ?)", from)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
