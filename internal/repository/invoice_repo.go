package repository

import (
	"context"

	"gstbilling/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceListFilter narrows invoice listings.
type InvoiceListFilter struct {
	DocStatus  *int // nil = all
	CustomerID *uuid.UUID
	InvoiceNo  string // partial match
	IsReturn   *bool
	Page       int
	Limit      int
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.SalesInvoice) error
	Save(ctx context.Context, invoice *model.SalesInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error)
	FindByIDWithChildren(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error)
	List(ctx context.Context, filter InvoiceListFilter) ([]model.SalesInvoice, int64, error)
	ReplaceChildren(ctx context.Context, invoice *model.SalesInvoice) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.SalesInvoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

// Save persists the invoice header and all item/tax rows. Child rows carry
// primary keys, so gorm's association save updates them in place.
func (r *invoiceRepository) Save(ctx context.Context, invoice *model.SalesInvoice) error {
	return GetDB(ctx, r.db).Session(&gorm.Session{FullSaveAssociations: true}).Save(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	var invoice model.SalesInvoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDWithChildren(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	var invoice model.SalesInvoice
	if err := GetDB(ctx, r.db).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Preload("Taxes", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceListFilter) ([]model.SalesInvoice, int64, error) {
	var invoices []model.SalesInvoice
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.SalesInvoice{})
	if filter.DocStatus != nil {
		query = query.Where("doc_status = ?", *filter.DocStatus)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.InvoiceNo != "" {
		query = query.Where("invoice_no ILIKE ?", "%"+filter.InvoiceNo+"%")
	}
	if filter.IsReturn != nil {
		query = query.Where("is_return = ?", *filter.IsReturn)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Customer").Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// ReplaceChildren deletes and reinserts the invoice's item and tax rows. Used
// when a draft is edited: the engine contract keeps one row per component, so
// a full rebuild is simpler than diffing.
func (r *invoiceRepository) ReplaceChildren(ctx context.Context, invoice *model.SalesInvoice) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&model.SalesInvoiceItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&model.SalesTaxCharge{}).Error; err != nil {
		return err
	}
	for i := range invoice.Items {
		invoice.Items[i].ID = uuid.Nil
		invoice.Items[i].InvoiceID = invoice.ID
	}
	for i := range invoice.Taxes {
		invoice.Taxes[i].ID = uuid.Nil
		invoice.Taxes[i].InvoiceID = invoice.ID
	}
	if len(invoice.Items) > 0 {
		if err := db.Create(&invoice.Items).Error; err != nil {
			return err
		}
	}
	if len(invoice.Taxes) > 0 {
		if err := db.Create(&invoice.Taxes).Error; err != nil {
			return err
		}
	}
	return db.Omit("Items", "Taxes", "Customer").Save(invoice).Error
}

func (r *invoiceRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.SalesInvoice{}).
		Where("invoice_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
