package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GSTRateRule stores per-HSN GST percentages with temporal validity. The
// standard tax pass resolves item rates from the rule active on the posting
// date; the recalculation engine itself never looks rates up.
type GSTRateRule struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HSNCode       string          `gorm:"type:varchar(10);not null;index" json:"hsn_code"`
	CGSTRate      decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"cgst_rate"` // Percentage, e.g. 9
	SGSTRate      decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"sgst_rate"`
	IGSTRate      decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"igst_rate"` // Usually cgst_rate + sgst_rate
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"`
	EffectiveTo   *time.Time      `gorm:"type:date;index" json:"effective_to"` // Nullable = currently active
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
