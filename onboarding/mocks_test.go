package onboarding

import (
	"context"

	"github.com/stretchr/testify/mock"

	"customer-onboarding/gateways"
	"customer-onboarding/shared"
	"customer-onboarding/upload"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateAccount(ctx context.Context, login shared.LoginDetails, roleID string) (gateways.Account, error) {
	args := m.Called(ctx, login, roleID)
	return args.Get(0).(gateways.Account), args.Error(1)
}

func (m *mockGateway) LinkIntakeRecord(ctx context.Context, intakeID, customerID string) error {
	return m.Called(ctx, intakeID, customerID).Error(0)
}

func (m *mockGateway) UpsertCompanyProfile(ctx context.Context, customerID string, profile shared.CompanyProfile) (gateways.ProfileOutcome, error) {
	args := m.Called(ctx, customerID, profile)
	return args.Get(0).(gateways.ProfileOutcome), args.Error(1)
}

func (m *mockGateway) UpdateIntakeStatus(ctx context.Context, intakeID, status string) error {
	return m.Called(ctx, intakeID, status).Error(0)
}

type mockRoles struct {
	mock.Mock
}

func (m *mockRoles) ListRoles(ctx context.Context) ([]shared.Role, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).([]shared.Role)
	return roles, args.Error(1)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, req upload.Request) (shared.UploadedDocument, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(shared.UploadedDocument), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PublishOnboarded(ctx context.Context, result shared.OnboardingResult) error {
	return m.Called(ctx, result).Error(0)
}

// documentNamed matches an upload request for the named document.
func documentNamed(name string) interface{} {
	return mock.MatchedBy(func(req upload.Request) bool { return req.Document.Name == name })
}
