package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"customer-onboarding/activities"
	"customer-onboarding/gateways"
	"customer-onboarding/shared"
	"customer-onboarding/upload"
)

func defaultInput(docs ...string) shared.OnboardingInput {
	in := shared.OnboardingInput{
		Login: shared.LoginDetails{
			FirstName: "Ada",
			LastName:  "Okafor",
			Email:     "ada@acme.test",
			Password:  "s3cret!",
		},
		Company: shared.CompanyProfile{
			Name:              "Acme Ltd",
			NatureOfBusiness:  "Logistics",
			BusinessEmail:     "ops@acme.test",
			Phone:             "+2348000000000",
			RegisteredAddress: "1 Harbour Rd",
		},
	}
	for _, name := range docs {
		in.Documents = append(in.Documents, shared.DocumentInput{
			Name:     name,
			Category: "kyc",
			File:     shared.FileData{FileName: name + ".pdf", Content: []byte("%PDF")},
		})
	}
	return in
}

// registerActivities registers a struct with no dependencies, so the journal
// and publish activities run as no-ops unless mocked.
func registerActivities(env *testsuite.TestWorkflowEnvironment) *activities.Activities {
	acts := &activities.Activities{}
	env.RegisterActivity(acts)
	return acts
}

func mockAccountSteps(env *testsuite.TestWorkflowEnvironment, acts *activities.Activities) {
	env.OnActivity(acts.ResolveRole, mock.Anything, "").Return("r-cust", nil)
	env.OnActivity(acts.CreateAccount, mock.Anything, mock.MatchedBy(func(req shared.CreateAccountRequest) bool {
		return req.RoleID == "r-cust" && req.Login.Email == "ada@acme.test"
	})).Return(gateways.Account{CustomerID: "cus_1", CustomerEmail: "ada@acme.test"}, nil)
	env.OnActivity(acts.SaveCompanyProfile, mock.Anything, mock.Anything).Return(gateways.ProfileCreated, nil)
}

func TestOnboardingWorkflow_IntakeWithStatusNoDocuments(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	acts := registerActivities(env)
	mockAccountSteps(env, acts)

	env.OnActivity(acts.LinkIntakeRecord, mock.Anything, shared.LinkIntakeRequest{IntakeID: "REG-42", CustomerID: "cus_1"}).Return(nil)
	env.OnActivity(acts.UpdateIntakeStatus, mock.Anything, shared.UpdateStatusRequest{IntakeID: "REG-42", Status: "completed"}).Return(nil)

	in := defaultInput()
	in.RegistrationID = "REG-42"
	in.RegistrationStatusToSet = "completed"
	env.ExecuteWorkflow(OnboardingWorkflow, in)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result shared.OnboardingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "cus_1", result.CustomerID)
	assert.Equal(t, "r-cust", result.RoleID)
	assert.NotEmpty(t, result.RunID)
	assert.True(t, result.RegistrationLinked)
	assert.True(t, result.CompanyProfileSaved)
	assert.True(t, result.RegistrationStatusUpdated)
	assert.Empty(t, result.UploadedDocuments)
}

func TestOnboardingWorkflow_NoIntakeSkipsIntakeSteps(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	acts := registerActivities(env)
	mockAccountSteps(env, acts)
	env.OnActivity(acts.LinkIntakeRecord, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(acts.UpdateIntakeStatus, mock.Anything, mock.Anything).Return(nil)

	in := defaultInput()
	in.RegistrationStatusToSet = "completed"
	env.ExecuteWorkflow(OnboardingWorkflow, in)

	require.NoError(t, env.GetWorkflowError())
	var result shared.OnboardingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.False(t, result.RegistrationLinked)
	assert.False(t, result.RegistrationStatusUpdated)
	env.AssertNumberOfCalls(t, "LinkIntakeRecord", 0)
	env.AssertNumberOfCalls(t, "UpdateIntakeStatus", 0)
}

func TestOnboardingWorkflow_FailsOnSecondOfThreeDocuments(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	acts := registerActivities(env)
	mockAccountSteps(env, acts)

	named := func(name string) interface{} {
		return mock.MatchedBy(func(req upload.Request) bool { return req.Document.Name == name })
	}
	env.OnActivity(acts.LinkIntakeRecord, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(acts.UploadDocument, mock.Anything, named("Licence")).
		Return(shared.UploadedDocument{DocumentID: "d1", Name: "Licence"}, nil)
	env.OnActivity(acts.UploadDocument, mock.Anything, named("Passport")).
		Return(shared.UploadedDocument{}, temporal.NewNonRetryableApplicationError(
			"storage upload failed (status 403)", shared.ErrTypeRemoteCall, nil, 403,
		))
	env.OnActivity(acts.UpdateIntakeStatus, mock.Anything, mock.Anything).Return(nil)

	in := defaultInput("Licence", "Passport", "Utility Bill")
	in.RegistrationID = "REG-42"
	in.RegistrationStatusToSet = "completed"
	env.ExecuteWorkflow(OnboardingWorkflow, in)

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, shared.ErrTypeOnboardingFailed, appErr.Type())
	assert.True(t, appErr.NonRetryable())

	var oe shared.OnboardingError
	require.NoError(t, appErr.Details(&oe))
	assert.NotEmpty(t, oe.RunID)
	assert.Equal(t, "upload-document:Passport", oe.Step)
	assert.Equal(t, 403, oe.StatusCode)
	assert.Equal(t, "storage upload failed (status 403)", oe.Message)
	assert.Equal(t, "cus_1", oe.Partial.CustomerID)
	assert.True(t, oe.Partial.RegistrationLinked)
	assert.True(t, oe.Partial.CompanyProfileSaved)
	assert.Equal(t, []shared.UploadedDocument{{DocumentID: "d1", Name: "Licence"}}, oe.Partial.UploadedDocuments)
	assert.False(t, oe.Partial.RegistrationStatusUpdated)

	env.AssertNumberOfCalls(t, "UploadDocument", 2)
	env.AssertNumberOfCalls(t, "UpdateIntakeStatus", 0)
}

func TestOnboardingWorkflow_CreateAccountRejected(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	acts := registerActivities(env)

	env.OnActivity(acts.ResolveRole, mock.Anything, "r-explicit").Return("r-explicit", nil)
	env.OnActivity(acts.CreateAccount, mock.Anything, mock.Anything).Return(gateways.Account{},
		temporal.NewNonRetryableApplicationError("email already registered", shared.ErrTypeRemoteCall, nil, 400))
	env.OnActivity(acts.SaveCompanyProfile, mock.Anything, mock.Anything).Return(gateways.ProfileCreated, nil)

	in := defaultInput("Licence")
	in.Login.RoleID = "r-explicit"
	env.ExecuteWorkflow(OnboardingWorkflow, in)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, env.GetWorkflowError(), &appErr)

	var oe shared.OnboardingError
	require.NoError(t, appErr.Details(&oe))
	assert.Equal(t, shared.StepCreateAccount, oe.Step)
	assert.Equal(t, 400, oe.StatusCode)
	assert.Empty(t, oe.Partial.CustomerID)
	assert.False(t, oe.Partial.CompanyProfileSaved)
	env.AssertNumberOfCalls(t, "CreateAccount", 1)
	env.AssertNumberOfCalls(t, "SaveCompanyProfile", 0)
}

func TestOnboardingWorkflow_JournalAndPublishFailuresAreIgnored(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	acts := registerActivities(env)
	mockAccountSteps(env, acts)

	env.OnActivity(acts.RecordJournal, mock.Anything, mock.Anything).Return(temporal.NewApplicationError("db down", "JournalUnavailable"))
	env.OnActivity(acts.PublishOnboarded, mock.Anything, mock.Anything).Return(temporal.NewApplicationError("broker down", "PublishFailed"))

	env.ExecuteWorkflow(OnboardingWorkflow, defaultInput())

	require.NoError(t, env.GetWorkflowError())
	var result shared.OnboardingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.CompanyProfileSaved)
	env.AssertNumberOfCalls(t, "PublishOnboarded", 1)
}

func TestOnboardingWorkflow_QueryProgress(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	acts := registerActivities(env)
	mockAccountSteps(env, acts)
	env.OnActivity(acts.UploadDocument, mock.Anything, mock.Anything).
		Return(shared.UploadedDocument{DocumentID: "d1", Name: "Licence"}, nil)

	env.ExecuteWorkflow(OnboardingWorkflow, defaultInput("Licence"))
	require.NoError(t, env.GetWorkflowError())

	res, err := env.QueryWorkflow(shared.QueryOnboardingProgress)
	require.NoError(t, err)
	var progress shared.OnboardingProgress
	require.NoError(t, res.Get(&progress))
	assert.Equal(t, shared.StepDone, progress.Step)
	assert.Equal(t, "Onboarding complete", progress.Message)
	assert.Equal(t, "cus_1", progress.Partial.CustomerID)
	assert.Len(t, progress.Partial.UploadedDocuments, 1)
}
