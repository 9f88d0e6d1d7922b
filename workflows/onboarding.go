package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"customer-onboarding/gateways"
	"customer-onboarding/journal"
	"customer-onboarding/shared"
	"customer-onboarding/upload"
)

// activityTimeout bounds a single step, including a full document transfer.
const activityTimeout = 2 * time.Minute

// onboardingWorkflow holds the run state and provides one method per step.
type onboardingWorkflow struct {
	// Business state
	partial shared.PartialResult
	roleID  string
	step    string
	message string

	// Workflow context
	in     shared.OnboardingInput
	runID  string
	logger log.Logger
	actCtx workflow.Context
}

// newOnboardingWorkflow initializes the workflow struct, registers the
// progress query handler and sets up activity options.
func newOnboardingWorkflow(ctx workflow.Context, in shared.OnboardingInput) (*onboardingWorkflow, error) {
	runID := workflow.GetInfo(ctx).WorkflowExecution.ID
	w := &onboardingWorkflow{
		partial: shared.PartialResult{UploadedDocuments: []shared.UploadedDocument{}},
		roleID:  in.Login.RoleID,
		in:      in,
		runID:   runID,
		logger:  log.With(workflow.GetLogger(ctx), "runId", runID),
	}

	err := workflow.SetQueryHandler(ctx, shared.QueryOnboardingProgress, func() (shared.OnboardingProgress, error) {
		return shared.OnboardingProgress{
			Step:    w.step,
			Message: w.message,
			Partial: w.partial.Snapshot(),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set query handler: %w", err)
	}

	// No step is retried automatically. Account creation has no idempotency
	// key, and a failed run is resumed by the caller from its partial result.
	actOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: activityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	w.actCtx = workflow.WithActivityOptions(ctx, actOpts)

	return w, nil
}

func (w *onboardingWorkflow) progress(step, message string) {
	w.step = step
	w.message = message
	w.logger.Info(message, "step", step)
}

func (w *onboardingWorkflow) createAccount(ctx workflow.Context) error {
	if err := workflow.ExecuteActivity(w.actCtx, a.ResolveRole, w.in.Login.RoleID).Get(ctx, &w.roleID); err != nil {
		w.logger.Warn("Role resolution failed, using fallback role", "error", err)
		w.roleID = shared.FallbackCustomerRoleID
	}

	w.progress(shared.StepCreateAccount, "Creating customer account")
	var acct gateways.Account
	req := shared.CreateAccountRequest{Login: w.in.Login, RoleID: w.roleID}
	if err := workflow.ExecuteActivity(w.actCtx, a.CreateAccount, req).Get(ctx, &acct); err != nil {
		return w.fail(ctx, shared.StepCreateAccount, err)
	}
	w.partial.CustomerID = acct.CustomerID
	w.partial.CustomerEmail = acct.CustomerEmail
	w.partial.RoleID = w.roleID
	w.record(ctx, shared.StepCreateAccount)
	return nil
}

func (w *onboardingWorkflow) linkIntake(ctx workflow.Context) error {
	if w.in.RegistrationID == "" {
		return nil
	}
	w.progress(shared.StepLinkRecord, "Linking registration record")
	req := shared.LinkIntakeRequest{IntakeID: w.in.RegistrationID, CustomerID: w.partial.CustomerID}
	if err := workflow.ExecuteActivity(w.actCtx, a.LinkIntakeRecord, req).Get(ctx, nil); err != nil {
		return w.fail(ctx, shared.StepLinkRecord, err)
	}
	w.partial.RegistrationLinked = true
	w.record(ctx, shared.StepLinkRecord)
	return nil
}

func (w *onboardingWorkflow) saveProfile(ctx workflow.Context) error {
	w.progress(shared.StepSaveProfile, "Saving company profile")
	req := shared.SaveProfileRequest{CustomerID: w.partial.CustomerID, Company: w.in.Company}
	if err := workflow.ExecuteActivity(w.actCtx, a.SaveCompanyProfile, req).Get(ctx, nil); err != nil {
		return w.fail(ctx, shared.StepSaveProfile, err)
	}
	w.partial.CompanyProfileSaved = true
	w.record(ctx, shared.StepSaveProfile)
	return nil
}

// uploadDocuments uploads in input order. The first failure stops the loop.
func (w *onboardingWorkflow) uploadDocuments(ctx workflow.Context) error {
	total := len(w.in.Documents)
	for i, doc := range w.in.Documents {
		step := shared.DocumentStep(doc.Name)
		w.progress(step, fmt.Sprintf("Uploading document %d of %d: %s", i+1, total, doc.Name))

		req := upload.Request{
			CustomerID:     w.partial.CustomerID,
			RegistrationID: w.in.RegistrationID,
			Document:       doc,
		}
		var uploaded shared.UploadedDocument
		if err := workflow.ExecuteActivity(w.actCtx, a.UploadDocument, req).Get(ctx, &uploaded); err != nil {
			return w.fail(ctx, step, err)
		}
		w.partial.UploadedDocuments = append(w.partial.UploadedDocuments, uploaded)
		w.record(ctx, step)
	}
	return nil
}

func (w *onboardingWorkflow) updateStatus(ctx workflow.Context) error {
	if w.in.RegistrationStatusToSet == "" {
		return nil
	}
	if w.in.RegistrationID == "" {
		w.logger.Warn("Registration status requested without a registration id, skipping",
			"status", w.in.RegistrationStatusToSet,
		)
		return nil
	}
	w.progress(shared.StepUpdateStatus, "Updating registration status")
	req := shared.UpdateStatusRequest{IntakeID: w.in.RegistrationID, Status: w.in.RegistrationStatusToSet}
	if err := workflow.ExecuteActivity(w.actCtx, a.UpdateIntakeStatus, req).Get(ctx, nil); err != nil {
		return w.fail(ctx, shared.StepUpdateStatus, err)
	}
	w.partial.RegistrationStatusUpdated = true
	w.record(ctx, shared.StepUpdateStatus)
	return nil
}

func (w *onboardingWorkflow) complete(ctx workflow.Context) shared.OnboardingResult {
	result := shared.OnboardingResult{
		PartialResult: w.partial.Snapshot(),
		RunID:         w.runID,
	}
	w.write(ctx, journal.Entry{Step: shared.StepDone, Status: journal.StatusCompleted})

	if err := workflow.ExecuteActivity(w.actCtx, a.PublishOnboarded, result).Get(ctx, nil); err != nil {
		w.logger.Warn("Failed to publish onboarded event", "error", err)
	}

	w.progress(shared.StepDone, "Onboarding complete")
	return result
}

// fail stops the run at step. The returned error carries the OnboardingError
// as its details so clients can recover the partial result.
func (w *onboardingWorkflow) fail(ctx workflow.Context, step string, err error) error {
	oe := shared.OnboardingError{
		RunID:   w.runID,
		Step:    step,
		Message: err.Error(),
		Partial: w.partial.Snapshot(),
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		oe.Message = appErr.Message()
		if appErr.HasDetails() {
			_ = appErr.Details(&oe.StatusCode)
		}
	}

	w.logger.Error("Onboarding step failed",
		"step", step,
		"statusCode", oe.StatusCode,
		"customerId", oe.Partial.CustomerID,
		"error", oe.Message,
	)
	w.write(ctx, journal.Entry{
		Step:       step,
		Status:     journal.StatusFailed,
		Error:      oe.Message,
		StatusCode: oe.StatusCode,
	})

	return temporal.NewNonRetryableApplicationError(oe.Error(), shared.ErrTypeOnboardingFailed, nil, oe)
}

func (w *onboardingWorkflow) record(ctx workflow.Context, step string) {
	w.write(ctx, journal.Entry{Step: step, Status: journal.StatusRunning})
}

// write journals the current state. A journal failure never stops the run.
func (w *onboardingWorkflow) write(ctx workflow.Context, e journal.Entry) {
	e.RunID = w.runID
	e.Partial = w.partial.Snapshot()
	e.UpdatedAt = workflow.Now(ctx).UTC()
	if err := workflow.ExecuteActivity(w.actCtx, a.RecordJournal, e).Get(ctx, nil); err != nil {
		w.logger.Warn("Failed to record onboarding journal entry", "step", e.Step, "error", err)
	}
}

// OnboardingWorkflow onboards one customer durably.
//
// Steps run strictly in order and each runs exactly once:
//
//	resolve role → create account → link intake record (when a registration
//	id is given) → save company profile → upload each document → update
//	intake status (when requested)
//
// A failed step ends the workflow with an ApplicationError of type
// OnboardingFailed whose details hold a shared.OnboardingError. Completed
// steps are not rolled back.
//
// Temporal features used:
//   - Queries (query-onboarding-progress)
//   - Non-retryable application errors carrying typed details
func OnboardingWorkflow(ctx workflow.Context, in shared.OnboardingInput) (shared.OnboardingResult, error) {
	w, err := newOnboardingWorkflow(ctx, in)
	if err != nil {
		return shared.OnboardingResult{}, err
	}

	w.logger.Info("Onboarding workflow started",
		"email", in.Login.Email,
		"registrationId", in.RegistrationID,
		"documents", len(in.Documents),
	)

	steps := []func(workflow.Context) error{
		w.createAccount,
		w.linkIntake,
		w.saveProfile,
		w.uploadDocuments,
		w.updateStatus,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return shared.OnboardingResult{}, err
		}
	}
	return w.complete(ctx), nil
}
