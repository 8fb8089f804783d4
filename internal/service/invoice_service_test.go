package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"gstbilling/internal/model"
	"gstbilling/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockInvoiceRepo struct {
	mock.Mock
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *model.SalesInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceRepo) Save(ctx context.Context, invoice *model.SalesInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesInvoice), args.Error(1)
}

func (m *mockInvoiceRepo) FindByIDWithChildren(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesInvoice), args.Error(1)
}

func (m *mockInvoiceRepo) List(ctx context.Context, filter repository.InvoiceListFilter) ([]model.SalesInvoice, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.SalesInvoice), args.Get(1).(int64), args.Error(2)
}

func (m *mockInvoiceRepo) ReplaceChildren(ctx context.Context, invoice *model.SalesInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceRepo) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepo) Update(ctx context.Context, customer *model.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *mockCustomerRepo) List(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error) {
	args := m.Called(ctx, search, page, limit)
	return args.Get(0).([]model.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *mockCustomerRepo) DeleteAddressesByCustomerID(ctx context.Context, customerID uuid.UUID) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *mockCustomerRepo) CreateAddresses(ctx context.Context, addresses []model.CustomerAddress) error {
	return m.Called(ctx, addresses).Error(0)
}

type mockGSTRateRepo struct {
	mock.Mock
}

func (m *mockGSTRateRepo) Create(ctx context.Context, rule *model.GSTRateRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockGSTRateRepo) Update(ctx context.Context, rule *model.GSTRateRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockGSTRateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGSTRateRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.GSTRateRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GSTRateRule), args.Error(1)
}

func (m *mockGSTRateRepo) List(ctx context.Context, hsnCode string, page, limit int) ([]model.GSTRateRule, int64, error) {
	args := m.Called(ctx, hsnCode, page, limit)
	return args.Get(0).([]model.GSTRateRule), args.Get(1).(int64), args.Error(2)
}

func (m *mockGSTRateRepo) FindActiveByHSN(ctx context.Context, hsnCode string, targetDate time.Time) (*model.GSTRateRule, error) {
	args := m.Called(ctx, hsnCode, targetDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GSTRateRule), args.Error(1)
}

func (m *mockGSTRateRepo) FindOverlapping(ctx context.Context, hsnCode string, from time.Time, to *time.Time, excludeID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, hsnCode, from, to, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAuditRepo) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, action, page, limit)
	return args.Get(0).([]model.AuditLog), args.Get(1).(int64), args.Error(2)
}

// fakeTxManager runs the unit of work directly, no real transaction.
type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// stubNotifier records broadcast events for assertions.
type stubNotifier struct {
	events   []string
	payloads []interface{}
}

func (s *stubNotifier) BroadcastEvent(event string, payload interface{}) {
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
}

// --- Fixtures ---

type invoiceServiceFixture struct {
	invoiceRepo  *mockInvoiceRepo
	customerRepo *mockCustomerRepo
	gstRateRepo  *mockGSTRateRepo
	auditRepo    *mockAuditRepo
	notifier     *stubNotifier
	svc          InvoiceService
}

func newInvoiceServiceFixture(companyStateCode string) *invoiceServiceFixture {
	f := &invoiceServiceFixture{
		invoiceRepo:  new(mockInvoiceRepo),
		customerRepo: new(mockCustomerRepo),
		gstRateRepo:  new(mockGSTRateRepo),
		auditRepo:    new(mockAuditRepo),
		notifier:     new(stubNotifier),
	}
	f.svc = NewInvoiceService(f.invoiceRepo, f.customerRepo, f.gstRateRepo, f.auditRepo, &fakeTxManager{}, f.notifier, companyStateCode)
	return f
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// --- Tests ---

func TestCreateInvoiceIntrastate(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	customerID := uuid.New()
	invoiceID := uuid.New()

	customer := &model.Customer{ID: customerID, Name: "Acme Traders", StateCode: "27"}
	rule := &model.GSTRateRule{HSNCode: "8471", CGSTRate: d("9"), SGSTRate: d("9"), IGSTRate: d("18")}

	f.customerRepo.On("FindByID", mock.Anything, customerID).Return(customer, nil)
	f.gstRateRepo.On("FindActiveByHSN", mock.Anything, "8471", mock.Anything).Return(rule, nil)
	f.invoiceRepo.On("CountByPrefix", mock.Anything, mock.Anything).Return(int64(2), nil)
	f.auditRepo.On("Log", mock.Anything, mock.Anything).Return(nil)

	reloaded := &model.SalesInvoice{}
	f.invoiceRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inv := args.Get(1).(*model.SalesInvoice)
		inv.ID = invoiceID
		*reloaded = *inv
		reloaded.Customer = customer
	}).Return(nil)
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, invoiceID).Return(reloaded, nil)

	resp, err := f.svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		CustomerID:  customerID.String(),
		PostingDate: "2026-08-20",
		Items: []InvoiceItemInput{
			{ItemCode: "WIDGET", HSNCode: "8471", Qty: "1", Rate: "102.50"},
		},
	}, uuid.NewString())
	require.NoError(t, err)

	// Per-item half-up: 102.50 * 9% = 9.225 -> 9.23 for each component.
	require.Equal(t, "102.50", resp.NetTotal)
	require.Equal(t, "18.46", resp.TotalTaxesAndCharges)
	require.Equal(t, "120.96", resp.GrandTotal)
	require.Equal(t, "121.00", resp.RoundedTotal)
	require.Equal(t, "0.04", resp.RoundingAdjustment)
	require.Equal(t, "121.00", resp.OutstandingAmount)
	require.Equal(t, "Acme Traders", resp.CustomerName)

	require.True(t, strings.HasPrefix(resp.InvoiceNo, "SINV-"))
	require.True(t, strings.HasSuffix(resp.InvoiceNo, "-00003"))

	require.Len(t, resp.Items, 1)
	require.Equal(t, "9.23", resp.Items[0].CGSTAmount)
	require.Equal(t, "9.23", resp.Items[0].SGSTAmount)
	require.Equal(t, "0.00", resp.Items[0].IGSTAmount)

	require.Len(t, resp.Taxes, 2)
	require.Equal(t, model.GSTTaxTypeCGST, resp.Taxes[0].GSTTaxType)
	require.Equal(t, "9.23", resp.Taxes[0].TaxAmount)
	require.Equal(t, "111.73", resp.Taxes[0].Total)
	require.Equal(t, model.GSTTaxTypeSGST, resp.Taxes[1].GSTTaxType)
	require.Equal(t, "9.23", resp.Taxes[1].TaxAmount)
	require.Equal(t, "120.96", resp.Taxes[1].Total)
	require.Contains(t, resp.Taxes[0].ItemWiseTaxDetail, "WIDGET")

	f.invoiceRepo.AssertExpectations(t)
	f.customerRepo.AssertExpectations(t)
}

func TestCreateInvoiceInterstate(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	customerID := uuid.New()
	invoiceID := uuid.New()

	customer := &model.Customer{ID: customerID, Name: "Southern Supplies", StateCode: "29"}
	rule := &model.GSTRateRule{HSNCode: "8471", CGSTRate: d("9"), SGSTRate: d("9"), IGSTRate: d("18")}

	f.customerRepo.On("FindByID", mock.Anything, customerID).Return(customer, nil)
	f.gstRateRepo.On("FindActiveByHSN", mock.Anything, "8471", mock.Anything).Return(rule, nil)
	f.invoiceRepo.On("CountByPrefix", mock.Anything, mock.Anything).Return(int64(0), nil)
	f.auditRepo.On("Log", mock.Anything, mock.Anything).Return(nil)

	reloaded := &model.SalesInvoice{}
	f.invoiceRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inv := args.Get(1).(*model.SalesInvoice)
		inv.ID = invoiceID
		*reloaded = *inv
		reloaded.Customer = customer
	}).Return(nil)
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, invoiceID).Return(reloaded, nil)

	resp, err := f.svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		CustomerID:  customerID.String(),
		PostingDate: "2026-08-20",
		Items: []InvoiceItemInput{
			{ItemCode: "WIDGET", HSNCode: "8471", Qty: "1", Rate: "102.50"},
		},
	}, uuid.NewString())
	require.NoError(t, err)

	// Place of supply defaults to the customer's state, which differs from the
	// seller's, so the rule's IGST rate applies and one IGST row is built.
	require.Equal(t, "29", resp.PlaceOfSupply)
	require.Len(t, resp.Taxes, 1)
	require.Equal(t, model.GSTTaxTypeIGST, resp.Taxes[0].GSTTaxType)
	require.Equal(t, "18.45", resp.Taxes[0].TaxAmount)

	require.Equal(t, "18.0000", resp.Items[0].IGSTRate)
	require.Equal(t, "18.45", resp.Items[0].IGSTAmount)
	require.Equal(t, "0.00", resp.Items[0].CGSTAmount)
	require.Equal(t, "120.95", resp.GrandTotal)
	require.Equal(t, "121.00", resp.RoundedTotal)
	require.Equal(t, "0.05", resp.RoundingAdjustment)
}

func TestCreateInvoiceCustomerNotFound(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	customerID := uuid.New()
	f.customerRepo.On("FindByID", mock.Anything, customerID).Return(nil, context.DeadlineExceeded)

	_, err := f.svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		CustomerID:  customerID.String(),
		PostingDate: "2026-08-20",
		Items:       []InvoiceItemInput{{ItemCode: "X", Qty: "1", Rate: "10"}},
	}, "")
	require.ErrorContains(t, err, "customer not found")
}

func TestUpdateInvoiceRejectsNonDraft(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	invoiceID := uuid.New()
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, invoiceID).Return(&model.SalesInvoice{
		ID:        invoiceID,
		DocStatus: model.DocStatusSubmitted,
	}, nil)

	_, err := f.svc.UpdateInvoice(context.Background(), invoiceID.String(), UpdateInvoiceRequest{
		PostingDate: "2026-08-20",
		Items:       []InvoiceItemInput{{ItemCode: "X", Qty: "1", Rate: "10"}},
	}, "")
	require.ErrorContains(t, err, "only draft invoices can be edited")
}

func TestUpdateInvoiceRejectsReturns(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	invoiceID := uuid.New()
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, invoiceID).Return(&model.SalesInvoice{
		ID:        invoiceID,
		DocStatus: model.DocStatusDraft,
		IsReturn:  true,
	}, nil)

	_, err := f.svc.UpdateInvoice(context.Background(), invoiceID.String(), UpdateInvoiceRequest{
		PostingDate: "2026-08-20",
		Items:       []InvoiceItemInput{{ItemCode: "X", Qty: "1", Rate: "10"}},
	}, "")
	require.ErrorContains(t, err, "returns cannot be edited")
}

func TestRecalculateInvoiceRejectsSubmitted(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	invoiceID := uuid.New()
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, invoiceID).Return(&model.SalesInvoice{
		ID:        invoiceID,
		DocStatus: model.DocStatusSubmitted,
	}, nil)

	_, err := f.svc.RecalculateInvoice(context.Background(), invoiceID.String(), "")
	require.ErrorContains(t, err, "only draft non-return invoices can be recalculated")
}

func TestSubmitInvoiceBroadcasts(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	invoiceID := uuid.New()
	invoice := &model.SalesInvoice{
		ID:        invoiceID,
		InvoiceNo: "SINV-20260820-00001",
		DocStatus: model.DocStatusDraft,
	}

	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(invoice, nil)
	f.invoiceRepo.On("Save", mock.Anything, invoice).Return(nil)
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, invoiceID).Return(invoice, nil)
	f.auditRepo.On("Log", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.SubmitInvoice(context.Background(), invoiceID.String(), "")
	require.NoError(t, err)
	require.Equal(t, model.DocStatusSubmitted, resp.DocStatus)

	require.Equal(t, []string{"invoice_submitted"}, f.notifier.events)
	payload := f.notifier.payloads[0].(map[string]string)
	require.Equal(t, "SINV-20260820-00001", payload["invoice_no"])
}

func TestCancelInvoiceZeroesOutstanding(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	invoiceID := uuid.New()
	invoice := &model.SalesInvoice{
		ID:                invoiceID,
		InvoiceNo:         "SINV-20260820-00002",
		DocStatus:         model.DocStatusSubmitted,
		OutstandingAmount: d("121"),
	}

	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(invoice, nil)
	f.invoiceRepo.On("Save", mock.Anything, invoice).Return(nil)
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, invoiceID).Return(invoice, nil)
	f.auditRepo.On("Log", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.CancelInvoice(context.Background(), invoiceID.String(), "")
	require.NoError(t, err)
	require.Equal(t, model.DocStatusCancelled, resp.DocStatus)
	require.Equal(t, "0.00", resp.OutstandingAmount)
	require.Equal(t, []string{"invoice_cancelled"}, f.notifier.events)
}

func TestCancelInvoiceRejectsDraft(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	invoiceID := uuid.New()
	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(&model.SalesInvoice{
		ID:        invoiceID,
		DocStatus: model.DocStatusDraft,
	}, nil)

	_, err := f.svc.CancelInvoice(context.Background(), invoiceID.String(), "")
	require.ErrorContains(t, err, "only submitted invoices can be cancelled")
	require.Empty(t, f.notifier.events)
}

func TestCreateReturnNegatesWithoutRecalculation(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	originalID := uuid.New()
	returnID := uuid.New()

	original := &model.SalesInvoice{
		ID:            originalID,
		InvoiceNo:     "SINV-20260810-00007",
		CustomerID:    uuid.New(),
		PlaceOfSupply: "27",
		DocStatus:     model.DocStatusSubmitted,
		Items: []model.SalesInvoiceItem{
			{Idx: 1, ItemCode: "WIDGET", Qty: d("2"), Rate: d("100"), CGSTRate: d("9"), SGSTRate: d("9")},
		},
		Taxes: []model.SalesTaxCharge{
			{Idx: 1, GSTTaxType: model.GSTTaxTypeCGST, AccountHead: "Output Tax CGST", Rate: d("9")},
			{Idx: 2, GSTTaxType: model.GSTTaxTypeSGST, AccountHead: "Output Tax SGST", Rate: d("9")},
		},
	}

	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, originalID).Return(original, nil)
	f.invoiceRepo.On("CountByPrefix", mock.Anything, mock.Anything).Return(int64(0), nil)
	f.auditRepo.On("Log", mock.Anything, mock.Anything).Return(nil)

	reloaded := &model.SalesInvoice{}
	f.invoiceRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inv := args.Get(1).(*model.SalesInvoice)
		inv.ID = returnID
		*reloaded = *inv
	}).Return(nil)
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, returnID).Return(reloaded, nil)

	resp, err := f.svc.CreateReturn(context.Background(), originalID.String(), CreateReturnRequest{
		PostingDate: "2026-08-21",
	}, "")
	require.NoError(t, err)

	require.True(t, resp.IsReturn)
	require.NotNil(t, resp.ReturnAgainst)
	require.Equal(t, originalID.String(), *resp.ReturnAgainst)
	require.Equal(t, model.DocStatusDraft, resp.DocStatus)

	// Conventional pass only: rate-on-net-total, no per-item rounding override.
	require.Equal(t, "-2.000", resp.Items[0].Qty)
	require.Equal(t, "-200.00", resp.NetTotal)
	require.Equal(t, "-36.00", resp.TotalTaxesAndCharges)
	require.Equal(t, "-236.00", resp.GrandTotal)
	require.Equal(t, "-236.00", resp.RoundedTotal)
	require.Equal(t, "0.00", resp.RoundingAdjustment)
}

func TestCreateReturnRejectsDraftOriginal(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	originalID := uuid.New()
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, originalID).Return(&model.SalesInvoice{
		ID:        originalID,
		DocStatus: model.DocStatusDraft,
	}, nil)

	_, err := f.svc.CreateReturn(context.Background(), originalID.String(), CreateReturnRequest{}, "")
	require.ErrorContains(t, err, "returns can only be issued against submitted invoices")
}

func TestCreateReturnRejectsReturnOriginal(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	originalID := uuid.New()
	f.invoiceRepo.On("FindByIDWithChildren", mock.Anything, originalID).Return(&model.SalesInvoice{
		ID:        originalID,
		DocStatus: model.DocStatusSubmitted,
		IsReturn:  true,
	}, nil)

	_, err := f.svc.CreateReturn(context.Background(), originalID.String(), CreateReturnRequest{}, "")
	require.ErrorContains(t, err, "cannot issue a return against a return")
}

func TestBuildItemsExplicitRatesSkipLookup(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	svc := f.svc.(*invoiceService)

	items, err := svc.buildItems(context.Background(), []InvoiceItemInput{
		{ItemCode: "A", HSNCode: "9999", Qty: "1", Rate: "50", CGSTRate: "2.5", SGSTRate: "2.5"},
	}, time.Now(), false)
	require.NoError(t, err)
	require.Equal(t, "2.5", items[0].CGSTRate.String())
	require.Equal(t, "2.5", items[0].SGSTRate.String())
	// No FindActiveByHSN expectation was set; the mock would panic if called.
	f.gstRateRepo.AssertExpectations(t)
}

func TestBuildItemsNoHSNIsExempt(t *testing.T) {
	f := newInvoiceServiceFixture("27")
	svc := f.svc.(*invoiceService)

	items, err := svc.buildItems(context.Background(), []InvoiceItemInput{
		{ItemCode: "EXEMPT", Qty: "3", Rate: "10"},
	}, time.Now(), false)
	require.NoError(t, err)
	require.True(t, items[0].CGSTRate.IsZero())
	require.True(t, items[0].SGSTRate.IsZero())
	require.True(t, items[0].IGSTRate.IsZero())
}

func TestBuildTaxRows(t *testing.T) {
	items := []model.SalesInvoiceItem{
		{ItemCode: "A", CGSTRate: d("2.5"), SGSTRate: d("2.5"), IGSTRate: d("5")},
		{ItemCode: "B", CGSTRate: d("9"), SGSTRate: d("9"), IGSTRate: d("18")},
	}

	intra := buildTaxRows(items, false)
	require.Len(t, intra, 2)
	require.Equal(t, model.GSTTaxTypeCGST, intra[0].GSTTaxType)
	require.Equal(t, 1, intra[0].Idx)
	require.Equal(t, "9", intra[0].Rate.String())
	require.Equal(t, model.GSTTaxTypeSGST, intra[1].GSTTaxType)
	require.Equal(t, 2, intra[1].Idx)

	inter := buildTaxRows(items, true)
	require.Len(t, inter, 1)
	require.Equal(t, model.GSTTaxTypeIGST, inter[0].GSTTaxType)
	require.Equal(t, "18", inter[0].Rate.String())

	none := buildTaxRows([]model.SalesInvoiceItem{{ItemCode: "EXEMPT"}}, false)
	require.Empty(t, none)
}
