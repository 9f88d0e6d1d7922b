package shared

// CreateAccountRequest is the input of the CreateAccount activity.
type CreateAccountRequest struct {
	Login  LoginDetails `json:"login"`
	RoleID string       `json:"roleId"`
}

// LinkIntakeRequest is the input of the LinkIntakeRecord activity.
type LinkIntakeRequest struct {
	IntakeID   string `json:"intakeId"`
	CustomerID string `json:"customerId"`
}

// SaveProfileRequest is the input of the SaveCompanyProfile activity.
type SaveProfileRequest struct {
	CustomerID string         `json:"customerId"`
	Company    CompanyProfile `json:"company"`
}

// UpdateStatusRequest is the input of the UpdateIntakeStatus activity.
type UpdateStatusRequest struct {
	IntakeID string `json:"intakeId"`
	Status   string `json:"status"`
}
