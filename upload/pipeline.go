// Package upload moves one document through the presigned upload protocol:
// initiate with the document service, transfer the bytes straight to object
// storage, then confirm with the document service.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.temporal.io/sdk/log"

	"customer-onboarding/gateways"
	"customer-onboarding/shared"
)

// ErrIncompleteTicket is returned when upload-init answers without a document
// id or upload URL. Storage is never contacted in that case.
var ErrIncompleteTicket = fmt.Errorf("upload ticket is missing documentId or uploadUrl: %w", gateways.ErrContractViolation)

// Stage is how far a document has progressed.
type Stage string

const (
	StageInitiated   Stage = "initiated"
	StageTransferred Stage = "transferred"
	StageConfirmed   Stage = "confirmed"
)

// StorageError is a non-2xx answer from object storage.
type StorageError struct {
	Status int
	Body   string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage upload failed (status %d)", e.Status)
}

// Gateway is the document service side of the protocol.
type Gateway interface {
	InitiateUpload(ctx context.Context, customerID string, init gateways.UploadInit) (shared.UploadTicket, error)
	CompleteUpload(ctx context.Context, customerID, documentID, etag string) error
}

// Request is one document to upload on behalf of a customer.
type Request struct {
	CustomerID     string               `json:"customerId"`
	RegistrationID string               `json:"registrationId,omitempty"`
	Document       shared.DocumentInput `json:"document"`
}

// Pipeline uploads documents. It holds no per-document state; each ticket lives
// only for the duration of one Upload call.
type Pipeline struct {
	gateway Gateway
	storage *http.Client
	logger  log.Logger
}

// NewPipeline creates a pipeline. storage is the HTTP client used for the
// direct transfer leg and must not attach API credentials.
func NewPipeline(gateway Gateway, storage *http.Client, logger log.Logger) *Pipeline {
	if storage == nil {
		storage = &http.Client{Timeout: 5 * time.Minute}
	}
	if logger == nil {
		logger = log.NewStructuredLogger(slog.Default())
	}
	return &Pipeline{gateway: gateway, storage: storage, logger: logger}
}

// Upload runs initiate, transfer and confirm for req.Document, in that order,
// stopping at the first failure.
func (p *Pipeline) Upload(ctx context.Context, req Request) (shared.UploadedDocument, error) {
	doc := req.Document

	ticket, err := p.initiate(ctx, req)
	if err != nil {
		return shared.UploadedDocument{}, err
	}
	p.logger.Debug("Upload initiated", "document", doc.Name, "documentId", ticket.DocumentID, "stage", StageInitiated)

	etag, err := p.transfer(ctx, ticket, doc.File)
	if err != nil {
		return shared.UploadedDocument{}, err
	}
	p.logger.Debug("Upload transferred", "document", doc.Name, "documentId", ticket.DocumentID, "stage", StageTransferred)

	if err := p.gateway.CompleteUpload(ctx, req.CustomerID, ticket.DocumentID, etag); err != nil {
		return shared.UploadedDocument{}, err
	}
	p.logger.Info("Document uploaded", "document", doc.Name, "documentId", ticket.DocumentID, "stage", StageConfirmed)

	return shared.UploadedDocument{DocumentID: ticket.DocumentID, Name: doc.Name}, nil
}

func (p *Pipeline) initiate(ctx context.Context, req Request) (shared.UploadTicket, error) {
	doc := req.Document
	ticket, err := p.gateway.InitiateUpload(ctx, req.CustomerID, gateways.UploadInit{
		Name:           doc.Name,
		Category:       doc.Category,
		DocumentType:   doc.DocumentType,
		FileName:       doc.File.FileName,
		MimeType:       doc.File.MimeType,
		Size:           doc.File.Size(),
		StakeholderID:  doc.StakeholderID,
		RegistrationID: req.RegistrationID,
	})
	if err != nil {
		return shared.UploadTicket{}, err
	}
	if ticket.DocumentID == "" || ticket.UploadURL == "" {
		return shared.UploadTicket{}, ErrIncompleteTicket
	}
	return ticket, nil
}

// transfer sends the file bytes to the presigned URL and returns the storage
// ETag, which may be empty.
func (p *Pipeline) transfer(ctx context.Context, ticket shared.UploadTicket, file shared.FileData) (string, error) {
	method := strings.ToUpper(strings.TrimSpace(ticket.UploadMethod))
	if method == "" {
		method = http.MethodPut
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, ticket.UploadURL, bytes.NewReader(file.Content))
	if err != nil {
		return "", fmt.Errorf("failed to create storage request: %w", err)
	}
	for k, v := range ticket.RequiredHeaders {
		httpReq.Header.Set(k, v)
	}
	if !hasHeader(ticket.RequiredHeaders, "Content-Type") {
		httpReq.Header.Set("Content-Type", contentType(file))
	}

	resp, err := p.storage.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send file to storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		p.logger.Error("Storage rejected upload", "status", resp.StatusCode, "documentId", ticket.DocumentID)
		return "", &StorageError{Status: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.Header.Get("ETag"), nil
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// contentType prefers the declared mime type, then the file extension, then
// content sniffing.
func contentType(f shared.FileData) string {
	if f.MimeType != "" {
		return f.MimeType
	}
	if ext := filepath.Ext(f.FileName); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}
	return http.DetectContentType(f.Content)
}
