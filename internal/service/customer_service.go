package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"gstbilling/internal/model"
	"gstbilling/internal/repository"

	"github.com/google/uuid"
)

// --- Address DTO ---

type AddressPayload struct {
	AddressType string `json:"address_type"`
	FullAddress string `json:"full_address"`
	IsDefault   bool   `json:"is_default"`
}

type AddressResponse struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	AddressType string    `json:"address_type"`
	FullAddress string    `json:"full_address"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Customer DTOs ---

type CreateCustomerRequest struct {
	Name          string           `json:"name" binding:"required"`
	GSTIN         string           `json:"gstin"`                           // Empty for unregistered buyers
	StateCode     string           `json:"state_code" binding:"required"` // Default place of supply
	CompanyName   string           `json:"company_name"`
	ContactPerson string           `json:"contact_person"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email"`
	Addresses     []AddressPayload `json:"addresses"`
}

type UpdateCustomerRequest struct {
	Name          *string           `json:"name"`
	GSTIN         *string           `json:"gstin"`
	StateCode     *string           `json:"state_code"`
	CompanyName   *string           `json:"company_name"`
	ContactPerson *string           `json:"contact_person"`
	Phone         *string           `json:"phone"`
	Email         *string           `json:"email"`
	IsActive      *bool             `json:"is_active"`
	Addresses     *[]AddressPayload `json:"addresses"` // pointer so nil = not sent, [] = clear all
}

type CustomerResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	GSTIN         string            `json:"gstin"`
	StateCode     string            `json:"state_code"`
	CompanyName   string            `json:"company_name"`
	ContactPerson string            `json:"contact_person"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	IsActive      bool              `json:"is_active"`
	Addresses     []AddressResponse `json:"addresses"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// --- Interface ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest, userID string) (CustomerResponse, error)
	UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest, userID string) (CustomerResponse, error)
	DeleteCustomer(ctx context.Context, id string, userID string) error
	GetCustomers(ctx context.Context, search string, page, limit int) ([]CustomerResponse, int64, error)
	GetCustomer(ctx context.Context, id string) (CustomerResponse, error)
}

// --- Implementation ---

type customerService struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(customerRepo repository.CustomerRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) CustomerService {
	return &customerService{customerRepo: customerRepo, auditRepo: auditRepo, txManager: txManager}
}

// --- Validation helpers ---

var validAddressTypes = map[string]bool{
	model.AddressTypeBilling:  true,
	model.AddressTypeShipping: true,
}

// GSTIN layout: 2-digit state code, 10-char PAN, entity digit, 'Z', checksum.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)

var stateCodePattern = regexp.MustCompile(`^[0-9]{2}$`)

func validateGSTIN(gstin, stateCode string) error {
	if gstin == "" {
		return nil
	}
	if !gstinPattern.MatchString(gstin) {
		return fmt.Errorf("invalid GSTIN format")
	}
	if stateCode != "" && gstin[:2] != stateCode {
		return fmt.Errorf("GSTIN state code %s does not match state_code %s", gstin[:2], stateCode)
	}
	return nil
}

func validateAddresses(addresses []AddressPayload) error {
	for i, addr := range addresses {
		if !validAddressTypes[addr.AddressType] {
			return fmt.Errorf("addresses[%d]: address_type must be one of: BILLING, SHIPPING", i)
		}
		if addr.FullAddress == "" {
			return fmt.Errorf("addresses[%d]: full_address is required", i)
		}
	}
	return nil
}

func toAddressModels(customerID uuid.UUID, payloads []AddressPayload) []model.CustomerAddress {
	addresses := make([]model.CustomerAddress, 0, len(payloads))
	for _, p := range payloads {
		addresses = append(addresses, model.CustomerAddress{
			CustomerID:  customerID,
			AddressType: p.AddressType,
			FullAddress: p.FullAddress,
			IsDefault:   p.IsDefault,
		})
	}
	return addresses
}

// --- CRUD ---

func (s *customerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest, userID string) (CustomerResponse, error) {
	if !stateCodePattern.MatchString(req.StateCode) {
		return CustomerResponse{}, fmt.Errorf("state_code must be a two-digit GST state code")
	}
	if err := validateGSTIN(req.GSTIN, req.StateCode); err != nil {
		return CustomerResponse{}, err
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return CustomerResponse{}, fmt.Errorf("invalid email format")
		}
	}
	if err := validateAddresses(req.Addresses); err != nil {
		return CustomerResponse{}, err
	}

	customer := &model.Customer{
		Name:          req.Name,
		GSTIN:         req.GSTIN,
		StateCode:     req.StateCode,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
		Addresses:     toAddressModels(uuid.Nil, req.Addresses), // GORM fills CustomerID on cascade create
	}

	// GORM creates customer + addresses in a single Create because of the association
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return CustomerResponse{}, fmt.Errorf("failed to create customer: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionCreateCustomer, customer.ID.String(), customer.Name, req)

	return toCustomerResponse(*customer), nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest, userID string) (CustomerResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("invalid customer ID")
	}

	customer, err := s.customerRepo.FindByID(ctx, uid)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("customer not found: %w", err)
	}

	// Apply field updates
	if req.Name != nil {
		if *req.Name == "" {
			return CustomerResponse{}, fmt.Errorf("name cannot be empty")
		}
		customer.Name = *req.Name
	}
	if req.StateCode != nil {
		if !stateCodePattern.MatchString(*req.StateCode) {
			return CustomerResponse{}, fmt.Errorf("state_code must be a two-digit GST state code")
		}
		customer.StateCode = *req.StateCode
	}
	if req.GSTIN != nil {
		if err := validateGSTIN(*req.GSTIN, customer.StateCode); err != nil {
			return CustomerResponse{}, err
		}
		customer.GSTIN = *req.GSTIN
	}
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return CustomerResponse{}, fmt.Errorf("invalid email format")
		}
		customer.Email = *req.Email
	} else if req.Email != nil {
		customer.Email = ""
	}
	if req.CompanyName != nil {
		customer.CompanyName = *req.CompanyName
	}
	if req.ContactPerson != nil {
		customer.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	// Validate addresses if provided
	if req.Addresses != nil {
		if err := validateAddresses(*req.Addresses); err != nil {
			return CustomerResponse{}, err
		}
	}

	// Run update + address replacement in a transaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.customerRepo.Update(txCtx, customer); err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}

		// Replace addresses if provided (delete-all + re-create strategy)
		if req.Addresses != nil {
			if err := s.customerRepo.DeleteAddressesByCustomerID(txCtx, uid); err != nil {
				return fmt.Errorf("failed to delete old addresses: %w", err)
			}
			newAddrs := toAddressModels(uid, *req.Addresses)
			if err := s.customerRepo.CreateAddresses(txCtx, newAddrs); err != nil {
				return fmt.Errorf("failed to create addresses: %w", err)
			}
			customer.Addresses = newAddrs
		}

		s.writeAuditLog(txCtx, userID, model.ActionUpdateCustomer, customer.ID.String(), customer.Name, req)
		return nil
	})
	if err != nil {
		return CustomerResponse{}, err
	}

	return toCustomerResponse(*customer), nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id string, userID string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid customer ID")
	}
	if err := s.customerRepo.Delete(ctx, uid); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	s.writeAuditLog(ctx, userID, model.ActionDeleteCustomer, id, "", map[string]string{"deleted_id": id})
	return nil
}

func (s *customerService) GetCustomers(ctx context.Context, search string, page, limit int) ([]CustomerResponse, int64, error) {
	customers, total, err := s.customerRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch customers: %w", err)
	}

	res := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		res = append(res, toCustomerResponse(c))
	}

	return res, total, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (CustomerResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("invalid customer ID")
	}

	customer, err := s.customerRepo.FindByID(ctx, uid)
	if err != nil {
		return CustomerResponse{}, fmt.Errorf("customer not found: %w", err)
	}

	return toCustomerResponse(*customer), nil
}

// --- Response mappers ---

func toCustomerResponse(c model.Customer) CustomerResponse {
	addresses := make([]AddressResponse, 0, len(c.Addresses))
	for _, a := range c.Addresses {
		addresses = append(addresses, AddressResponse{
			ID:          a.ID,
			CustomerID:  a.CustomerID,
			AddressType: a.AddressType,
			FullAddress: a.FullAddress,
			IsDefault:   a.IsDefault,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   a.UpdatedAt,
		})
	}

	return CustomerResponse{
		ID:            c.ID,
		Name:          c.Name,
		GSTIN:         c.GSTIN,
		StateCode:     c.StateCode,
		CompanyName:   c.CompanyName,
		ContactPerson: c.ContactPerson,
		Phone:         c.Phone,
		Email:         c.Email,
		IsActive:      c.IsActive,
		Addresses:     addresses,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (s *customerService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
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
