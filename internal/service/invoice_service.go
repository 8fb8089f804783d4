package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gstbilling/internal/gst"
	"gstbilling/internal/model"
	"gstbilling/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notifier pushes lifecycle events to connected dashboard clients.
type Notifier interface {
	BroadcastEvent(event string, payload interface{})
}

// --- DTOs ---

type InvoiceItemInput struct {
	ItemCode    string `json:"item_code" binding:"required"`
	Description string `json:"description"`
	HSNCode     string `json:"hsn_code"`
	Qty         string `json:"qty" binding:"required"`  // Decimal string
	Rate        string `json:"rate" binding:"required"` // Unit price, decimal string
	// Optional explicit percentages. When any is set the rate rule lookup is
	// skipped for this item.
	CGSTRate string `json:"cgst_rate"`
	SGSTRate string `json:"sgst_rate"`
	IGSTRate string `json:"igst_rate"`
}

type CreateInvoiceRequest struct {
	CustomerID    string             `json:"customer_id" binding:"required"`
	PostingDate   string             `json:"posting_date" binding:"required"` // YYYY-MM-DD
	PlaceOfSupply string             `json:"place_of_supply"`                 // Defaults to the customer's state code
	Remarks       string             `json:"remarks"`
	Items         []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateInvoiceRequest replaces a draft's content wholesale; items and taxes
// are rebuilt and the full validation cycle re-runs.
type UpdateInvoiceRequest struct {
	PostingDate   string             `json:"posting_date" binding:"required"`
	PlaceOfSupply string             `json:"place_of_supply"`
	Remarks       string             `json:"remarks"`
	Items         []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
}

type CreateReturnRequest struct {
	PostingDate string `json:"posting_date"` // YYYY-MM-DD, defaults to today
	Remarks     string `json:"remarks"`
}

type InvoiceFilter struct {
	DocStatus  *int   // 0 draft, 1 submitted, 2 cancelled, nil = all
	CustomerID string // uuid or empty
	InvoiceNo  string // partial match
	IsReturn   *bool
	Page       int
	Limit      int
}

type InvoiceItemResponse struct {
	ID          string `json:"id"`
	Idx         int    `json:"idx"`
	ItemCode    string `json:"item_code"`
	Description string `json:"description"`
	HSNCode     string `json:"hsn_code"`
	Qty         string `json:"qty"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
	CGSTRate    string `json:"cgst_rate"`
	SGSTRate    string `json:"sgst_rate"`
	IGSTRate    string `json:"igst_rate"`
	CGSTAmount  string `json:"cgst_amount"`
	SGSTAmount  string `json:"sgst_amount"`
	IGSTAmount  string `json:"igst_amount"`
}

type TaxChargeResponse struct {
	ID                string `json:"id"`
	Idx               int    `json:"idx"`
	GSTTaxType        string `json:"gst_tax_type"`
	AccountHead       string `json:"account_head"`
	Rate              string `json:"rate"`
	TaxAmount         string `json:"tax_amount"`
	ItemWiseTaxDetail string `json:"item_wise_tax_detail"`
	Total             string `json:"total"`
}

type InvoiceResponse struct {
	ID                   string                `json:"id"`
	InvoiceNo            string                `json:"invoice_no"`
	CustomerID           string                `json:"customer_id"`
	CustomerName         string                `json:"customer_name"`
	PostingDate          string                `json:"posting_date"`
	PlaceOfSupply        string                `json:"place_of_supply"`
	DocStatus            int                   `json:"docstatus"`
	IsReturn             bool                  `json:"is_return"`
	ReturnAgainst        *string               `json:"return_against"`
	Items                []InvoiceItemResponse `json:"items"`
	Taxes                []TaxChargeResponse   `json:"taxes"`
	NetTotal             string                `json:"net_total"`
	TotalTaxesAndCharges string                `json:"total_taxes_and_charges"`
	GrandTotal           string                `json:"grand_total"`
	RoundingAdjustment   string                `json:"rounding_adjustment"`
	RoundedTotal         string                `json:"rounded_total"`
	OutstandingAmount    string                `json:"outstanding_amount"`
	Remarks              string                `json:"remarks"`
	CreatedAt            string                `json:"created_at"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest, userID string) (InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest, userID string) (InvoiceResponse, error)
	RecalculateInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error)
	SubmitInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error)
	CancelInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error)
	CreateReturn(ctx context.Context, id string, req CreateReturnRequest, userID string) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
}

type invoiceService struct {
	invoiceRepo      repository.InvoiceRepository
	customerRepo     repository.CustomerRepository
	gstRateRepo      repository.GSTRateRepository
	auditRepo        repository.AuditRepository
	txManager        repository.TransactionManager
	notifier         Notifier // nil when websocket is disabled
	companyStateCode string
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	customerRepo repository.CustomerRepository,
	gstRateRepo repository.GSTRateRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	companyStateCode string,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:      invoiceRepo,
		customerRepo:     customerRepo,
		gstRateRepo:      gstRateRepo,
		auditRepo:        auditRepo,
		txManager:        txManager,
		notifier:         notifier,
		companyStateCode: companyStateCode,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest, userID string) (InvoiceResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid customer_id: %w", err)
	}

	postingDate, err := time.Parse("2006-01-02", req.PostingDate)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid posting_date (expected YYYY-MM-DD): %w", err)
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("customer not found: %w", err)
	}

	placeOfSupply := req.PlaceOfSupply
	if placeOfSupply == "" {
		placeOfSupply = customer.StateCode
	}
	interstate := placeOfSupply != s.companyStateCode

	items, err := s.buildItems(ctx, req.Items, postingDate, interstate)
	if err != nil {
		return InvoiceResponse{}, err
	}

	invoice := model.SalesInvoice{
		CustomerID:    customerID,
		PostingDate:   postingDate,
		PlaceOfSupply: placeOfSupply,
		DocStatus:     model.DocStatusDraft,
		Items:         items,
		Taxes:         buildTaxRows(items, interstate),
		Remarks:       req.Remarks,
	}

	// Full validation cycle: conventional pass first, then the Tally-style
	// override on eligible documents.
	gst.ComputeTaxesAndTotals(&invoice)
	if gst.ShouldRecalculate(&invoice) {
		gst.Recalculate(&invoice)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoiceNo, genErr := s.generateInvoiceNo(txCtx)
		if genErr != nil {
			return fmt.Errorf("failed to generate invoice number: %w", genErr)
		}
		invoice.InvoiceNo = invoiceNo

		if createErr := s.invoiceRepo.Create(txCtx, &invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}

		s.writeAuditLog(txCtx, userID, model.ActionCreateInvoice, invoice.ID.String(), invoice.InvoiceNo, map[string]string{
			"customer_id": req.CustomerID,
			"grand_total": invoice.GrandTotal.StringFixed(2),
		})
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return s.reload(ctx, invoice.ID)
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest, userID string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	postingDate, err := time.Parse("2006-01-02", req.PostingDate)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid posting_date (expected YYYY-MM-DD): %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByIDWithChildren(txCtx, invoiceID)
		if findErr != nil {
			return fmt.Errorf("invoice not found: %w", findErr)
		}

		if invoice.DocStatus != model.DocStatusDraft {
			return fmt.Errorf("only draft invoices can be edited")
		}
		if invoice.IsReturn {
			return fmt.Errorf("returns cannot be edited; cancel and re-issue against the original")
		}

		placeOfSupply := req.PlaceOfSupply
		if placeOfSupply == "" {
			placeOfSupply = invoice.PlaceOfSupply
		}
		interstate := placeOfSupply != s.companyStateCode

		items, buildErr := s.buildItems(txCtx, req.Items, postingDate, interstate)
		if buildErr != nil {
			return buildErr
		}

		invoice.PostingDate = postingDate
		invoice.PlaceOfSupply = placeOfSupply
		invoice.Remarks = req.Remarks
		invoice.Items = items
		invoice.Taxes = buildTaxRows(items, interstate)

		gst.ComputeTaxesAndTotals(invoice)
		if gst.ShouldRecalculate(invoice) {
			gst.Recalculate(invoice)
		}

		if saveErr := s.invoiceRepo.ReplaceChildren(txCtx, invoice); saveErr != nil {
			return fmt.Errorf("failed to update invoice: %w", saveErr)
		}

		s.writeAuditLog(txCtx, userID, model.ActionUpdateInvoice, invoice.ID.String(), invoice.InvoiceNo, map[string]string{
			"grand_total": invoice.GrandTotal.StringFixed(2),
		})
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return s.reload(ctx, invoiceID)
}

// RecalculateInvoice re-runs the validation cycle on a draft explicitly, for
// documents whose items or rates were changed outside the normal edit path.
func (s *invoiceService) RecalculateInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByIDWithChildren(txCtx, invoiceID)
		if findErr != nil {
			return fmt.Errorf("invoice not found: %w", findErr)
		}

		if !gst.ShouldRecalculate(invoice) {
			return fmt.Errorf("only draft non-return invoices can be recalculated")
		}

		gst.ComputeTaxesAndTotals(invoice)
		gst.Recalculate(invoice)

		if saveErr := s.invoiceRepo.Save(txCtx, invoice); saveErr != nil {
			return fmt.Errorf("failed to save invoice: %w", saveErr)
		}

		s.writeAuditLog(txCtx, userID, model.ActionRecalculateInvoice, invoice.ID.String(), invoice.InvoiceNo, map[string]string{
			"grand_total": invoice.GrandTotal.StringFixed(2),
		})
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return s.reload(ctx, invoiceID)
}

func (s *invoiceService) SubmitInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	var invoiceNo string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByID(txCtx, invoiceID)
		if findErr != nil {
			return fmt.Errorf("invoice not found: %w", findErr)
		}

		if invoice.DocStatus != model.DocStatusDraft {
			return fmt.Errorf("only draft invoices can be submitted")
		}

		invoice.DocStatus = model.DocStatusSubmitted
		invoiceNo = invoice.InvoiceNo

		if saveErr := s.invoiceRepo.Save(txCtx, invoice); saveErr != nil {
			return fmt.Errorf("failed to submit invoice: %w", saveErr)
		}

		s.writeAuditLog(txCtx, userID, model.ActionSubmitInvoice, invoice.ID.String(), invoice.InvoiceNo, nil)
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.broadcast("invoice_submitted", invoiceID.String(), invoiceNo)
	return s.reload(ctx, invoiceID)
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	var invoiceNo string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, findErr := s.invoiceRepo.FindByID(txCtx, invoiceID)
		if findErr != nil {
			return fmt.Errorf("invoice not found: %w", findErr)
		}

		if invoice.DocStatus != model.DocStatusSubmitted {
			return fmt.Errorf("only submitted invoices can be cancelled")
		}

		invoice.DocStatus = model.DocStatusCancelled
		invoice.OutstandingAmount = decimal.Zero
		invoiceNo = invoice.InvoiceNo

		if saveErr := s.invoiceRepo.Save(txCtx, invoice); saveErr != nil {
			return fmt.Errorf("failed to cancel invoice: %w", saveErr)
		}

		s.writeAuditLog(txCtx, userID, model.ActionCancelInvoice, invoice.ID.String(), invoice.InvoiceNo, nil)
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.broadcast("invoice_cancelled", invoiceID.String(), invoiceNo)
	return s.reload(ctx, invoiceID)
}

// CreateReturn issues a credit note: a negated draft copy referencing the
// original. Returns keep the conventional tax pass numbers and are never
// recalculated.
func (s *invoiceService) CreateReturn(ctx context.Context, id string, req CreateReturnRequest, userID string) (InvoiceResponse, error) {
	originalID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	postingDate := time.Now()
	if req.PostingDate != "" {
		postingDate, err = time.Parse("2006-01-02", req.PostingDate)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("invalid posting_date (expected YYYY-MM-DD): %w", err)
		}
	}

	var returnID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		original, findErr := s.invoiceRepo.FindByIDWithChildren(txCtx, originalID)
		if findErr != nil {
			return fmt.Errorf("invoice not found: %w", findErr)
		}

		if original.DocStatus != model.DocStatusSubmitted {
			return fmt.Errorf("returns can only be issued against submitted invoices")
		}
		if original.IsReturn {
			return fmt.Errorf("cannot issue a return against a return")
		}

		ret := model.SalesInvoice{
			CustomerID:    original.CustomerID,
			PostingDate:   postingDate,
			PlaceOfSupply: original.PlaceOfSupply,
			DocStatus:     model.DocStatusDraft,
			IsReturn:      true,
			ReturnAgainst: &original.ID,
			Remarks:       req.Remarks,
		}

		for _, item := range original.Items {
			ret.Items = append(ret.Items, model.SalesInvoiceItem{
				Idx:         item.Idx,
				ItemCode:    item.ItemCode,
				Description: item.Description,
				HSNCode:     item.HSNCode,
				Qty:         item.Qty.Neg(),
				Rate:        item.Rate,
				CGSTRate:    item.CGSTRate,
				SGSTRate:    item.SGSTRate,
				IGSTRate:    item.IGSTRate,
			})
		}
		for _, tax := range original.Taxes {
			ret.Taxes = append(ret.Taxes, model.SalesTaxCharge{
				Idx:         tax.Idx,
				GSTTaxType:  tax.GSTTaxType,
				AccountHead: tax.AccountHead,
				Rate:        tax.Rate,
			})
		}

		// Conventional pass only: ShouldRecalculate is false for returns.
		gst.ComputeTaxesAndTotals(&ret)

		invoiceNo, genErr := s.generateInvoiceNo(txCtx)
		if genErr != nil {
			return fmt.Errorf("failed to generate invoice number: %w", genErr)
		}
		ret.InvoiceNo = invoiceNo

		if createErr := s.invoiceRepo.Create(txCtx, &ret); createErr != nil {
			return fmt.Errorf("failed to create return: %w", createErr)
		}
		returnID = ret.ID

		s.writeAuditLog(txCtx, userID, model.ActionCreateReturn, ret.ID.String(), ret.InvoiceNo, map[string]string{
			"return_against": original.InvoiceNo,
			"grand_total":    ret.GrandTotal.StringFixed(2),
		})
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return s.reload(ctx, returnID)
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	return s.reload(ctx, invoiceID)
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.InvoiceListFilter{
		DocStatus: filter.DocStatus,
		InvoiceNo: filter.InvoiceNo,
		IsReturn:  filter.IsReturn,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if filter.CustomerID != "" {
		customerID, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid customer_id: %w", err)
		}
		repoFilter.CustomerID = &customerID
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		result = append(result, toInvoiceResponse(&invoices[i]))
	}
	return result, total, nil
}

// --- Helpers ---

// buildItems converts item inputs into model rows with resolved GST
// percentages. Explicit percentages win; otherwise the rate rule active for
// the item's HSN code on the posting date supplies them, split by the
// interstate decision. Items without an HSN code and without explicit rates
// are treated as exempt.
func (s *invoiceService) buildItems(ctx context.Context, inputs []InvoiceItemInput, postingDate time.Time, interstate bool) ([]model.SalesInvoiceItem, error) {
	items := make([]model.SalesInvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		qty, err := decimal.NewFromString(in.Qty)
		if err != nil {
			return nil, fmt.Errorf("item %d: invalid qty: %w", i+1, err)
		}
		rate, err := decimal.NewFromString(in.Rate)
		if err != nil {
			return nil, fmt.Errorf("item %d: invalid rate: %w", i+1, err)
		}

		item := model.SalesInvoiceItem{
			Idx:         i + 1,
			ItemCode:    in.ItemCode,
			Description: in.Description,
			HSNCode:     in.HSNCode,
			Qty:         qty,
			Rate:        rate,
		}

		if in.CGSTRate != "" || in.SGSTRate != "" || in.IGSTRate != "" {
			if item.CGSTRate, err = parseOptionalRate(in.CGSTRate); err != nil {
				return nil, fmt.Errorf("item %d: invalid cgst_rate: %w", i+1, err)
			}
			if item.SGSTRate, err = parseOptionalRate(in.SGSTRate); err != nil {
				return nil, fmt.Errorf("item %d: invalid sgst_rate: %w", i+1, err)
			}
			if item.IGSTRate, err = parseOptionalRate(in.IGSTRate); err != nil {
				return nil, fmt.Errorf("item %d: invalid igst_rate: %w", i+1, err)
			}
		} else if in.HSNCode != "" {
			rule, ruleErr := s.gstRateRepo.FindActiveByHSN(ctx, in.HSNCode, postingDate)
			if ruleErr != nil {
				return nil, fmt.Errorf("item %d: no GST rate rule active for HSN %s on %s", i+1, in.HSNCode, postingDate.Format("2006-01-02"))
			}
			if interstate {
				item.IGSTRate = rule.IGSTRate
			} else {
				item.CGSTRate = rule.CGSTRate
				item.SGSTRate = rule.SGSTRate
			}
		}

		items = append(items, item)
	}
	return items, nil
}

// buildTaxRows constructs the component rows the engine will later fill:
// CGST then SGST intrastate, a single IGST row interstate. The row rate is
// the highest item percentage for that component; per-item rates drive the
// recalculated amounts, so the row rate is display-level only. Components
// with no charged item get no row.
func buildTaxRows(items []model.SalesInvoiceItem, interstate bool) []model.SalesTaxCharge {
	maxRate := func(pick func(model.SalesInvoiceItem) decimal.Decimal) decimal.Decimal {
		max := decimal.Zero
		for _, item := range items {
			if r := pick(item); r.GreaterThan(max) {
				max = r
			}
		}
		return max
	}

	var rows []model.SalesTaxCharge
	if interstate {
		if rate := maxRate(func(i model.SalesInvoiceItem) decimal.Decimal { return i.IGSTRate }); rate.IsPositive() {
			rows = append(rows, model.SalesTaxCharge{
				Idx:         1,
				GSTTaxType:  model.GSTTaxTypeIGST,
				AccountHead: "Output Tax IGST",
				Rate:        rate,
			})
		}
		return rows
	}

	if rate := maxRate(func(i model.SalesInvoiceItem) decimal.Decimal { return i.CGSTRate }); rate.IsPositive() {
		rows = append(rows, model.SalesTaxCharge{
			Idx:         1,
			GSTTaxType:  model.GSTTaxTypeCGST,
			AccountHead: "Output Tax CGST",
			Rate:        rate,
		})
	}
	if rate := maxRate(func(i model.SalesInvoiceItem) decimal.Decimal { return i.SGSTRate }); rate.IsPositive() {
		rows = append(rows, model.SalesTaxCharge{
			Idx:         len(rows) + 1,
			GSTTaxType:  model.GSTTaxTypeSGST,
			AccountHead: "Output Tax SGST",
			Rate:        rate,
		})
	}
	return rows
}

func parseOptionalRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func (s *invoiceService) generateInvoiceNo(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "SINV-" + today + "-"

	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *invoiceService) reload(ctx context.Context, id uuid.UUID) (InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDWithChildren(ctx, id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}
	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) broadcast(event, invoiceID, invoiceNo string) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastEvent(event, map[string]string{
		"invoice_id": invoiceID,
		"invoice_no": invoiceNo,
	})
}

func (s *invoiceService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
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

// --- Mapping ---

func toInvoiceResponse(inv *model.SalesInvoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                   inv.ID.String(),
		InvoiceNo:            inv.InvoiceNo,
		CustomerID:           inv.CustomerID.String(),
		PostingDate:          inv.PostingDate.Format("2006-01-02"),
		PlaceOfSupply:        inv.PlaceOfSupply,
		DocStatus:            inv.DocStatus,
		IsReturn:             inv.IsReturn,
		NetTotal:             inv.NetTotal.StringFixed(2),
		TotalTaxesAndCharges: inv.TotalTaxesAndCharges.StringFixed(2),
		GrandTotal:           inv.GrandTotal.StringFixed(2),
		RoundingAdjustment:   inv.RoundingAdjustment.StringFixed(2),
		RoundedTotal:         inv.RoundedTotal.StringFixed(2),
		OutstandingAmount:    inv.OutstandingAmount.StringFixed(2),
		Remarks:              inv.Remarks,
		CreatedAt:            inv.CreatedAt.Format(time.RFC3339),
	}

	if inv.Customer != nil {
		resp.CustomerName = inv.Customer.Name
	}
	if inv.ReturnAgainst != nil {
		s := inv.ReturnAgainst.String()
		resp.ReturnAgainst = &s
	}

	resp.Items = make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			ID:          item.ID.String(),
			Idx:         item.Idx,
			ItemCode:    item.ItemCode,
			Description: item.Description,
			HSNCode:     item.HSNCode,
			Qty:         item.Qty.StringFixed(3),
			Rate:        item.Rate.StringFixed(2),
			Amount:      item.Amount.StringFixed(2),
			CGSTRate:    item.CGSTRate.StringFixed(4),
			SGSTRate:    item.SGSTRate.StringFixed(4),
			IGSTRate:    item.IGSTRate.StringFixed(4),
			CGSTAmount:  item.CGSTAmount.StringFixed(2),
			SGSTAmount:  item.SGSTAmount.StringFixed(2),
			IGSTAmount:  item.IGSTAmount.StringFixed(2),
		})
	}

	resp.Taxes = make([]TaxChargeResponse, 0, len(inv.Taxes))
	for _, tax := range inv.Taxes {
		resp.Taxes = append(resp.Taxes, TaxChargeResponse{
			ID:                tax.ID.String(),
			Idx:               tax.Idx,
			GSTTaxType:        tax.GSTTaxType,
			AccountHead:       tax.AccountHead,
			Rate:              tax.Rate.StringFixed(4),
			TaxAmount:         tax.TaxAmount.StringFixed(2),
			ItemWiseTaxDetail: tax.ItemWiseTaxDetail,
			Total:             tax.Total.StringFixed(2),
		})
	}

	return resp
}
