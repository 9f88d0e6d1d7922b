package gateways

import (
	"context"
	"net/http"

	"customer-onboarding/shared"
)

// UploadInit is the metadata sent to open an upload.
type UploadInit struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	DocumentType   string `json:"documentType,omitempty"`
	FileName       string `json:"fileName"`
	MimeType       string `json:"mimeType,omitempty"`
	Size           int64  `json:"size"`
	StakeholderID  string `json:"stakeholderId,omitempty"`
	RegistrationID string `json:"registrationId,omitempty"`
}

type uploadTicketResponse struct {
	DocumentID      remoteID          `json:"documentId"`
	UploadURL       string            `json:"uploadUrl"`
	UploadMethod    string            `json:"uploadMethod"`
	RequiredHeaders map[string]string `json:"requiredHeaders"`
}

type completeUploadRequest struct {
	ETag string `json:"etag,omitempty"`
}

// InitiateUpload opens an upload for one document and returns its ticket. The
// ticket is returned as received; the upload pipeline validates it.
func (c *Client) InitiateUpload(ctx context.Context, customerID string, init UploadInit) (shared.UploadTicket, error) {
	var resp uploadTicketResponse
	if err := c.api.JSON(ctx, http.MethodPost, path("documents", customerID, "upload-init"), init, &resp); err != nil {
		return shared.UploadTicket{}, err
	}
	return shared.UploadTicket{
		DocumentID:      string(resp.DocumentID),
		UploadURL:       resp.UploadURL,
		UploadMethod:    resp.UploadMethod,
		RequiredHeaders: resp.RequiredHeaders,
	}, nil
}

// CompleteUpload confirms a transferred document. An empty etag sends {}.
func (c *Client) CompleteUpload(ctx context.Context, customerID, documentID, etag string) error {
	return c.api.JSON(ctx, http.MethodPost, path("documents", customerID, documentID, "upload-complete"), completeUploadRequest{ETag: etag}, nil)
}
