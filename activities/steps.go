package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"customer-onboarding/gateways"
	"customer-onboarding/shared"
	"customer-onboarding/upload"
)

// CreateAccount creates the customer account.
// Idempotency: none. A second attempt creates a second account, which is why
// the workflow never retries it.
func (a *Activities) CreateAccount(ctx context.Context, req shared.CreateAccountRequest) (gateways.Account, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Creating customer account", "email", req.Login.Email, "roleId", req.RoleID)

	acct, err := a.Gateway.CreateAccount(ctx, req.Login, req.RoleID)
	if err != nil {
		logger.Error("Account creation failed", "error", err)
		return gateways.Account{}, nonRetryable(err)
	}

	logger.Info("Customer account created", "customerId", acct.CustomerID)
	return acct, nil
}

// LinkIntakeRecord assigns the intake record to the new customer.
// Idempotency: unverified. The intake service does not document what a second
// link to the same owner does, so a failure is not retried here; a resumed run
// skips the link once it is recorded as done.
func (a *Activities) LinkIntakeRecord(ctx context.Context, req shared.LinkIntakeRequest) error {
	activity.GetLogger(ctx).Info("Linking intake record", "intakeId", req.IntakeID, "customerId", req.CustomerID)
	if err := a.Gateway.LinkIntakeRecord(ctx, req.IntakeID, req.CustomerID); err != nil {
		return nonRetryable(err)
	}
	return nil
}

// SaveCompanyProfile creates or updates the company profile.
func (a *Activities) SaveCompanyProfile(ctx context.Context, req shared.SaveProfileRequest) (gateways.ProfileOutcome, error) {
	logger := activity.GetLogger(ctx)
	outcome, err := a.Gateway.UpsertCompanyProfile(ctx, req.CustomerID, req.Company)
	if err != nil {
		return "", nonRetryable(err)
	}
	logger.Info("Company profile saved", "customerId", req.CustomerID, "outcome", outcome)
	return outcome, nil
}

// UploadDocument runs initiate, transfer and confirm for one document.
func (a *Activities) UploadDocument(ctx context.Context, req upload.Request) (shared.UploadedDocument, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Uploading document",
		"customerId", req.CustomerID,
		"document", req.Document.Name,
		"size", req.Document.File.Size(),
	)

	doc, err := a.Uploader.Upload(ctx, req)
	if err != nil {
		logger.Error("Document upload failed", "document", req.Document.Name, "error", err)
		return shared.UploadedDocument{}, nonRetryable(err)
	}
	return doc, nil
}

// UpdateIntakeStatus sets the intake record's status.
// Idempotency: unverified, treated like LinkIntakeRecord.
func (a *Activities) UpdateIntakeStatus(ctx context.Context, req shared.UpdateStatusRequest) error {
	activity.GetLogger(ctx).Info("Updating intake status", "intakeId", req.IntakeID, "status", req.Status)
	if err := a.Gateway.UpdateIntakeStatus(ctx, req.IntakeID, req.Status); err != nil {
		return nonRetryable(err)
	}
	return nil
}
