package shared

// Task queue names.
const (
	OnboardingWorkflowTaskQueue = "onboarding-workflow-tq"
	ActivityTaskQueue           = "activity-tq"
)

// Query names.
const (
	QueryOnboardingProgress = "query-onboarding-progress"
)

// Step identifiers reported in OnboardingError.Step.
const (
	StepCreateAccount  = "create-account"
	StepLinkRecord     = "link-record"
	StepSaveProfile    = "save-profile"
	StepUploadDocument = "upload-document"
	StepUpdateStatus   = "update-status"
	StepDone           = "done"
)

// DocumentStep returns the step identifier for uploading the named document.
func DocumentStep(name string) string {
	return StepUploadDocument + ":" + name
}

// FallbackCustomerRoleID is used when no role id was supplied and none could be
// resolved from the role catalog.
const FallbackCustomerRoleID = "customer"

// Error types for non-retryable failures.
const (
	ErrTypeRemoteCall        = "RemoteCallFailed"
	ErrTypeContractViolation = "ContractViolation"
	ErrTypeOnboardingFailed  = "OnboardingFailed"
)
