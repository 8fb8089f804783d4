package service

import (
	"context"
	"testing"

	"gstbilling/internal/model"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCustomerService(customerRepo *mockCustomerRepo, auditRepo *mockAuditRepo) CustomerService {
	return NewCustomerService(customerRepo, auditRepo, &fakeTxManager{})
}

func TestValidateGSTIN(t *testing.T) {
	require.NoError(t, validateGSTIN("", "27"))
	require.NoError(t, validateGSTIN("27AAPFU0939F1ZV", "27"))
	require.ErrorContains(t, validateGSTIN("27AAPFU0939F1ZV", "29"), "does not match state_code")
	require.ErrorContains(t, validateGSTIN("not-a-gstin", "27"), "invalid GSTIN format")
	require.ErrorContains(t, validateGSTIN("27AAPFU0939F1XV", "27"), "invalid GSTIN format")
}

func TestCreateCustomer(t *testing.T) {
	customerRepo := new(mockCustomerRepo)
	auditRepo := new(mockAuditRepo)
	svc := newCustomerService(customerRepo, auditRepo)

	customerRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	auditRepo.On("Log", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
		Name:      "Acme Traders",
		GSTIN:     "27AAPFU0939F1ZV",
		StateCode: "27",
		Addresses: []AddressPayload{
			{AddressType: model.AddressTypeBilling, FullAddress: "12 MG Road, Mumbai", IsDefault: true},
		},
	}, "")
	require.NoError(t, err)
	require.Equal(t, "Acme Traders", resp.Name)
	require.Equal(t, "27", resp.StateCode)
	require.True(t, resp.IsActive)
	require.Len(t, resp.Addresses, 1)
	customerRepo.AssertExpectations(t)
}

func TestCreateCustomerRejectsMismatchedGSTIN(t *testing.T) {
	svc := newCustomerService(new(mockCustomerRepo), new(mockAuditRepo))

	_, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
		Name:      "Acme Traders",
		GSTIN:     "29AAPFU0939F1ZV",
		StateCode: "27",
	}, "")
	require.ErrorContains(t, err, "does not match state_code")
}

func TestCreateCustomerRejectsBadAddressType(t *testing.T) {
	svc := newCustomerService(new(mockCustomerRepo), new(mockAuditRepo))

	_, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
		Name:      "Acme Traders",
		StateCode: "27",
		Addresses: []AddressPayload{{AddressType: "WAREHOUSE", FullAddress: "x"}},
	}, "")
	require.ErrorContains(t, err, "address_type must be one of")
}
