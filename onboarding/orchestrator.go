// Package onboarding runs the customer onboarding sequence in-process:
// create the account, link the intake record, save the company profile,
// upload documents and update the intake status, reporting either a complete
// result or an *shared.OnboardingError carrying everything done so far.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/log"

	"customer-onboarding/authclient"
	"customer-onboarding/gateways"
	"customer-onboarding/journal"
	"customer-onboarding/shared"
	"customer-onboarding/upload"
)

// Gateway is the subset of remote resources the orchestrator sequences.
type Gateway interface {
	CreateAccount(ctx context.Context, login shared.LoginDetails, roleID string) (gateways.Account, error)
	LinkIntakeRecord(ctx context.Context, intakeID, customerID string) error
	UpsertCompanyProfile(ctx context.Context, customerID string, profile shared.CompanyProfile) (gateways.ProfileOutcome, error)
	UpdateIntakeStatus(ctx context.Context, intakeID, status string) error
}

// Uploader runs the upload protocol for one document.
type Uploader interface {
	Upload(ctx context.Context, req upload.Request) (shared.UploadedDocument, error)
}

// Notifier announces a completed run.
type Notifier interface {
	PublishOnboarded(ctx context.Context, result shared.OnboardingResult) error
}

// Orchestrator is stateless between runs and safe for concurrent use; every
// run allocates its own PartialResult.
type Orchestrator struct {
	gateway  Gateway
	roles    RoleCatalog
	uploader Uploader
	journal  journal.Recorder
	notifier Notifier
	logger   log.Logger
	newRunID func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJournal records every step transition. Journal failures are logged and
// never affect the run.
func WithJournal(r journal.Recorder) Option {
	return func(o *Orchestrator) { o.journal = r }
}

// WithNotifier publishes an event after a successful run. Publish failures are
// logged and never affect the result.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an orchestrator.
func New(gateway Gateway, roles RoleCatalog, uploader Uploader, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:  gateway,
		roles:    roles,
		uploader: uploader,
		logger:   log.NewStructuredLogger(slog.Default()),
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run onboards a new customer. On failure the returned error is an
// *shared.OnboardingError naming the failed step.
func (o *Orchestrator) Run(ctx context.Context, in shared.OnboardingInput) (*shared.OnboardingResult, error) {
	r := o.newRun(o.newRunID(), in, shared.PartialResult{})
	return r.execute(ctx)
}

// Resume continues a run that previously failed. Steps recorded as done in
// prior are skipped: the account is not created again and documents already
// uploaded under the same name are not uploaded again.
func (o *Orchestrator) Resume(ctx context.Context, runID string, in shared.OnboardingInput, prior shared.PartialResult) (*shared.OnboardingResult, error) {
	if runID == "" {
		runID = o.newRunID()
	}
	r := o.newRun(runID, in, prior.Snapshot())
	return r.execute(ctx)
}

type run struct {
	o       *Orchestrator
	id      string
	in      shared.OnboardingInput
	partial shared.PartialResult
	logger  log.Logger
}

func (o *Orchestrator) newRun(id string, in shared.OnboardingInput, partial shared.PartialResult) *run {
	return &run{
		o:       o,
		id:      id,
		in:      in,
		partial: partial,
		logger:  log.With(o.logger, "runId", id),
	}
}

func (r *run) execute(ctx context.Context) (*shared.OnboardingResult, error) {
	o := r.o
	in := r.in

	if r.partial.CustomerID == "" {
		roleID := ResolveRoleID(ctx, o.roles, in.Login.RoleID, r.logger)

		r.progress("Creating customer account")
		acct, err := o.gateway.CreateAccount(ctx, in.Login, roleID)
		if err != nil {
			return nil, r.fail(ctx, shared.StepCreateAccount, err)
		}
		r.partial.CustomerID = acct.CustomerID
		r.partial.CustomerEmail = acct.CustomerEmail
		r.partial.RoleID = roleID
		r.record(ctx, shared.StepCreateAccount)
		r.logger.Info("Customer account created", "customerId", acct.CustomerID, "roleId", roleID)
	} else if r.partial.RoleID == "" {
		// Prior results journaled before the role was recorded.
		r.partial.RoleID = in.Login.RoleID
	}

	if in.RegistrationID != "" && !r.partial.RegistrationLinked {
		r.progress("Linking registration record")
		if err := o.gateway.LinkIntakeRecord(ctx, in.RegistrationID, r.partial.CustomerID); err != nil {
			return nil, r.fail(ctx, shared.StepLinkRecord, err)
		}
		r.partial.RegistrationLinked = true
		r.record(ctx, shared.StepLinkRecord)
	}

	if !r.partial.CompanyProfileSaved {
		r.progress("Saving company profile")
		outcome, err := o.gateway.UpsertCompanyProfile(ctx, r.partial.CustomerID, in.Company)
		if err != nil {
			return nil, r.fail(ctx, shared.StepSaveProfile, err)
		}
		r.partial.CompanyProfileSaved = true
		r.record(ctx, shared.StepSaveProfile)
		r.logger.Info("Company profile saved", "customerId", r.partial.CustomerID, "outcome", outcome)
	}

	// Documents already uploaded under a name are skipped as many times as
	// they appear in the prior result.
	done := make(map[string]int, len(r.partial.UploadedDocuments))
	for _, d := range r.partial.UploadedDocuments {
		done[d.Name]++
	}
	total := len(in.Documents)
	for i, doc := range in.Documents {
		if done[doc.Name] > 0 {
			done[doc.Name]--
			continue
		}
		step := shared.DocumentStep(doc.Name)
		r.progressf("Uploading document %d of %d: %s", i+1, total, doc.Name)
		uploaded, err := o.uploader.Upload(ctx, upload.Request{
			CustomerID:     r.partial.CustomerID,
			RegistrationID: in.RegistrationID,
			Document:       doc,
		})
		if err != nil {
			return nil, r.fail(ctx, step, err)
		}
		r.partial.UploadedDocuments = append(r.partial.UploadedDocuments, uploaded)
		r.record(ctx, step)
	}

	if in.RegistrationID != "" && in.RegistrationStatusToSet != "" && !r.partial.RegistrationStatusUpdated {
		r.progress("Updating registration status")
		if err := o.gateway.UpdateIntakeStatus(ctx, in.RegistrationID, in.RegistrationStatusToSet); err != nil {
			return nil, r.fail(ctx, shared.StepUpdateStatus, err)
		}
		r.partial.RegistrationStatusUpdated = true
		r.record(ctx, shared.StepUpdateStatus)
	} else if in.RegistrationStatusToSet != "" && in.RegistrationID == "" {
		r.logger.Warn("Registration status requested without a registration id, skipping", "status", in.RegistrationStatusToSet)
	}

	result := &shared.OnboardingResult{
		PartialResult: r.partial.Snapshot(),
		RunID:         r.id,
	}
	r.complete(ctx, result)
	r.progress("Onboarding complete")
	return result, nil
}

func (r *run) progress(message string) {
	if r.in.OnProgress != nil {
		r.in.OnProgress(message)
	}
}

func (r *run) progressf(format string, args ...any) {
	if r.in.OnProgress != nil {
		r.in.OnProgress(fmt.Sprintf(format, args...))
	}
}

func (r *run) record(ctx context.Context, step string) {
	r.write(ctx, journal.Entry{RunID: r.id, Step: step, Status: journal.StatusRunning, Partial: r.partial})
}

func (r *run) fail(ctx context.Context, step string, cause error) error {
	oe := shared.NewOnboardingError(step, StatusCode(cause), r.partial, cause)
	oe.RunID = r.id
	r.logger.Error("Onboarding step failed",
		"step", step,
		"statusCode", oe.StatusCode,
		"customerId", r.partial.CustomerID,
		"error", cause,
	)
	r.write(ctx, journal.Entry{
		RunID:      r.id,
		Step:       step,
		Status:     journal.StatusFailed,
		Partial:    r.partial,
		Error:      oe.Message,
		StatusCode: oe.StatusCode,
	})
	return oe
}

func (r *run) complete(ctx context.Context, result *shared.OnboardingResult) {
	r.write(ctx, journal.Entry{RunID: r.id, Step: shared.StepDone, Status: journal.StatusCompleted, Partial: r.partial})
	r.logger.Info("Onboarding completed",
		"customerId", result.CustomerID,
		"documents", len(result.UploadedDocuments),
	)
	if r.o.notifier == nil {
		return
	}
	if err := r.o.notifier.PublishOnboarded(ctx, *result); err != nil {
		r.logger.Warn("Failed to publish onboarded event", "error", err)
	}
}

func (r *run) write(ctx context.Context, e journal.Entry) {
	if r.o.journal == nil {
		return
	}
	e.Partial = e.Partial.Snapshot()
	e.UpdatedAt = time.Now().UTC()
	if err := r.o.journal.Record(ctx, e); err != nil {
		r.logger.Warn("Failed to record onboarding journal entry", "step", e.Step, "error", err)
	}
}

// StatusCode returns the remote or storage status behind err, or 0.
func StatusCode(err error) int {
	if code := authclient.StatusCode(err); code != 0 {
		return code
	}
	var se *upload.StorageError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
