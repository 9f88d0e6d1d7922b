package workflows

import "customer-onboarding/activities"

// a provides method references for workflow.ExecuteActivity. The worker
// registers the real struct.
var a *activities.Activities
