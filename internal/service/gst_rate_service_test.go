package service

import (
	"context"
	"testing"

	"gstbilling/internal/model"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateGSTRateDefaultsIGST(t *testing.T) {
	rateRepo := new(mockGSTRateRepo)
	auditRepo := new(mockAuditRepo)
	svc := NewGSTRateService(rateRepo, auditRepo)

	rateRepo.On("FindOverlapping", mock.Anything, "8471", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	rateRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	auditRepo.On("Log", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.CreateGSTRate(context.Background(), CreateGSTRateRequest{
		HSNCode:       "8471",
		CGSTRate:      "9",
		SGSTRate:      "9",
		EffectiveFrom: "2026-04-01",
	}, "")
	require.NoError(t, err)
	require.Equal(t, "9.0000", resp.CGSTRate)
	require.Equal(t, "18.0000", resp.IGSTRate)
	require.Nil(t, resp.EffectiveTo)
}

func TestCreateGSTRateRejectsOverlap(t *testing.T) {
	rateRepo := new(mockGSTRateRepo)
	auditRepo := new(mockAuditRepo)
	svc := NewGSTRateService(rateRepo, auditRepo)

	rateRepo.On("FindOverlapping", mock.Anything, "8471", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	_, err := svc.CreateGSTRate(context.Background(), CreateGSTRateRequest{
		HSNCode:       "8471",
		CGSTRate:      "9",
		SGSTRate:      "9",
		EffectiveFrom: "2026-04-01",
	}, "")
	require.ErrorContains(t, err, "overlapping effective dates")
	rateRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateGSTRateRejectsBadDate(t *testing.T) {
	svc := NewGSTRateService(new(mockGSTRateRepo), new(mockAuditRepo))

	_, err := svc.CreateGSTRate(context.Background(), CreateGSTRateRequest{
		HSNCode:       "8471",
		CGSTRate:      "9",
		SGSTRate:      "9",
		EffectiveFrom: "01-04-2026",
	}, "")
	require.ErrorContains(t, err, "invalid effective_from date format")
}

func TestGetActiveGSTRateAbsenceIsNotError(t *testing.T) {
	rateRepo := new(mockGSTRateRepo)
	svc := NewGSTRateService(rateRepo, new(mockAuditRepo))

	rateRepo.On("FindActiveByHSN", mock.Anything, "0000", mock.Anything).Return(nil, context.DeadlineExceeded)

	resp, err := svc.GetActiveGSTRate(context.Background(), "0000", "2026-08-20")
	require.NoError(t, err)
	require.Nil(t, resp)
}

func TestGetActiveGSTRateReturnsRule(t *testing.T) {
	rateRepo := new(mockGSTRateRepo)
	svc := NewGSTRateService(rateRepo, new(mockAuditRepo))

	rule := &model.GSTRateRule{HSNCode: "8471", CGSTRate: d("9"), SGSTRate: d("9"), IGSTRate: d("18")}
	rateRepo.On("FindActiveByHSN", mock.Anything, "8471", mock.Anything).Return(rule, nil)

	resp, err := svc.GetActiveGSTRate(context.Background(), "8471", "")
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, "18.0000", resp.IGSTRate)
}
