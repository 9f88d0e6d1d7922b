package authclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorBodyKind tags which known error-body convention a response followed.
type ErrorBodyKind int

const (
	// KindRawStatus means the body carried no recognizable error field.
	KindRawStatus ErrorBodyKind = iota
	// KindMessage is {"message": "..."}.
	KindMessage
	// KindErrorString is {"error": "..."}.
	KindErrorString
	// KindErrorObject is {"error": {"message": "..."}}.
	KindErrorObject
	// KindErrorList is {"errors": [{"message": "..."}]} or with "detail" entries.
	KindErrorList
	// KindDetail is {"detail": "..."}.
	KindDetail
)

func (k ErrorBodyKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindErrorString:
		return "error"
	case KindErrorObject:
		return "error.message"
	case KindErrorList:
		return "errors"
	case KindDetail:
		return "detail"
	default:
		return "raw-status"
	}
}

// ErrorBody is the decoded error payload of a non-success response.
type ErrorBody struct {
	Kind    ErrorBodyKind
	Message string
}

// ParseErrorBody matches raw against the known error shapes in order and falls
// back to a generic message naming the status.
func ParseErrorBody(status int, raw []byte) ErrorBody {
	var probe struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
		Errors  json.RawMessage `json:"errors"`
		Detail  json.RawMessage `json:"detail"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &probe) == nil {
		if msg, ok := stringField(probe.Message); ok {
			return ErrorBody{Kind: KindMessage, Message: msg}
		}
		if msg, ok := stringField(probe.Error); ok {
			return ErrorBody{Kind: KindErrorString, Message: msg}
		}
		var nested struct {
			Message string `json:"message"`
		}
		if len(probe.Error) > 0 && json.Unmarshal(probe.Error, &nested) == nil && nested.Message != "" {
			return ErrorBody{Kind: KindErrorObject, Message: nested.Message}
		}
		var list []struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		}
		if len(probe.Errors) > 0 && json.Unmarshal(probe.Errors, &list) == nil {
			msgs := make([]string, 0, len(list))
			for _, e := range list {
				switch {
				case e.Message != "":
					msgs = append(msgs, e.Message)
				case e.Detail != "":
					msgs = append(msgs, e.Detail)
				}
			}
			if len(msgs) > 0 {
				return ErrorBody{Kind: KindErrorList, Message: strings.Join(msgs, "; ")}
			}
		}
		if msg, ok := stringField(probe.Detail); ok {
			return ErrorBody{Kind: KindDetail, Message: msg}
		}
	}
	return ErrorBody{Kind: KindRawStatus, Message: fmt.Sprintf("request failed (status %d)", status)}
}

func stringField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// RemoteCallError is returned for any non-2xx response.
type RemoteCallError struct {
	Status int
	Body   ErrorBody
	Raw    []byte
}

func newRemoteCallError(status int, raw []byte) *RemoteCallError {
	return &RemoteCallError{
		Status: status,
		Body:   ParseErrorBody(status, raw),
		Raw:    raw,
	}
}

func (e *RemoteCallError) Error() string {
	return e.Body.Message
}

// StatusCode returns the remote status carried by err, or 0 when err did not
// come from a remote response.
func StatusCode(err error) int {
	var rce *RemoteCallError
	if errors.As(err, &rce) {
		return rce.Status
	}
	return 0
}
