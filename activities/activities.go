package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"customer-onboarding/gateways"
	"customer-onboarding/journal"
	"customer-onboarding/onboarding"
	"customer-onboarding/shared"
)

// Activities is the receiver for all activity methods. Registering the struct
// lets the worker discover every method, and the fields carry the remote
// clients each step needs. Nil Journal or Notifier turns the matching activity
// into a no-op.
type Activities struct {
	Gateway  onboarding.Gateway
	Roles    onboarding.RoleCatalog
	Uploader onboarding.Uploader
	Journal  journal.Recorder
	Notifier onboarding.Notifier
}

// ResolveRole picks the role id for the new account. It never fails.
func (a *Activities) ResolveRole(ctx context.Context, explicit string) (string, error) {
	return onboarding.ResolveRoleID(ctx, a.Roles, explicit, activity.GetLogger(ctx)), nil
}

// RecordJournal stores the latest state of a run.
func (a *Activities) RecordJournal(ctx context.Context, e journal.Entry) error {
	if a.Journal == nil {
		return nil
	}
	return a.Journal.Record(ctx, e)
}

// PublishOnboarded announces a completed run.
func (a *Activities) PublishOnboarded(ctx context.Context, result shared.OnboardingResult) error {
	if a.Notifier == nil {
		return nil
	}
	return a.Notifier.PublishOnboarded(ctx, result)
}

// nonRetryable converts a step failure into an ApplicationError. Remote
// failures carry the HTTP status as their only detail.
func nonRetryable(err error) error {
	if errors.Is(err, gateways.ErrContractViolation) {
		return temporal.NewNonRetryableApplicationError(err.Error(), shared.ErrTypeContractViolation, nil, 0)
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), shared.ErrTypeRemoteCall, nil, onboarding.StatusCode(err))
}
