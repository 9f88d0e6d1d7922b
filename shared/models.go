package shared

// LoginDetails are the credentials and name of the account being created.
type LoginDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleID    string `json:"roleId,omitempty"`
}

// CompanyProfile is the company record persisted for a new customer.
type CompanyProfile struct {
	Name               string `json:"name"`
	NatureOfBusiness   string `json:"natureOfBusiness"`
	BusinessEmail      string `json:"businessEmail"`
	Phone              string `json:"phone"`
	RegisteredAddress  string `json:"registeredAddress"`
	Type               string `json:"type,omitempty"`
	Country            string `json:"country,omitempty"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	IncorporationDate  string `json:"incorporationDate,omitempty"`
}

// FileData is one physical file. Content is base64 encoded on the wire.
type FileData struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType,omitempty"`
	Content  []byte `json:"content"`
}

// Size returns the file size in bytes.
func (f FileData) Size() int64 {
	return int64(len(f.Content))
}

// DocumentInput is a supporting document plus its classification metadata.
type DocumentInput struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	DocumentType  string   `json:"documentType,omitempty"`
	File          FileData `json:"file"`
	StakeholderID string   `json:"stakeholderId,omitempty"`
}

// OnboardingInput is the caller-supplied input to one onboarding run.
type OnboardingInput struct {
	RegistrationID          string          `json:"registrationId,omitempty"`
	Login                   LoginDetails    `json:"login"`
	Company                 CompanyProfile  `json:"company"`
	Documents               []DocumentInput `json:"documents,omitempty"`
	RegistrationStatusToSet string          `json:"registrationStatusToSet,omitempty"`

	// OnProgress is called once per step transition. Not serialized.
	OnProgress func(message string) `json:"-"`
}

// UploadedDocument identifies a document that completed the upload protocol.
type UploadedDocument struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
}

// PartialResult records which onboarding steps have durably completed.
type PartialResult struct {
	CustomerID                string             `json:"customerId,omitempty"`
	CustomerEmail             string             `json:"customerEmail,omitempty"`
	RoleID                    string             `json:"roleId,omitempty"`
	RegistrationLinked        bool               `json:"registrationLinked"`
	CompanyProfileSaved       bool               `json:"companyProfileSaved"`
	UploadedDocuments         []UploadedDocument `json:"uploadedDocuments"`
	RegistrationStatusUpdated bool               `json:"registrationStatusUpdated"`
}

// Snapshot returns a copy that shares no memory with p.
func (p PartialResult) Snapshot() PartialResult {
	docs := make([]UploadedDocument, len(p.UploadedDocuments))
	copy(docs, p.UploadedDocuments)
	p.UploadedDocuments = docs
	return p
}

// HasDocument reports whether a document with the given name was already uploaded.
func (p PartialResult) HasDocument(name string) bool {
	for _, d := range p.UploadedDocuments {
		if d.Name == name {
			return true
		}
	}
	return false
}

// OnboardingResult is returned by a successful run. The role the account was
// created with travels in the embedded PartialResult so that a resumed run
// reports it too.
type OnboardingResult struct {
	PartialResult
	RunID string `json:"runId"`
}

// UploadTicket is produced by upload-init and consumed by upload-complete.
type UploadTicket struct {
	DocumentID      string            `json:"documentId"`
	UploadURL       string            `json:"uploadUrl"`
	UploadMethod    string            `json:"uploadMethod"`
	RequiredHeaders map[string]string `json:"requiredHeaders"`
}

// Role is one entry in the role catalog.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// OnboardingProgress is returned by the progress query handler.
type OnboardingProgress struct {
	Step    string        `json:"step"`
	Message string        `json:"message"`
	Partial PartialResult `json:"partial"`
}
