// Package gateways holds one typed call-site per remote resource. Gateways are
// stateless; every call goes through the authenticated request client.
package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"go.temporal.io/sdk/log"
)

// ErrContractViolation marks a success response that is missing fields the
// protocol guarantees. It is never worth retrying.
var ErrContractViolation = errors.New("remote response violates contract")

// Requester sends a JSON request and decodes the JSON response.
type Requester interface {
	JSON(ctx context.Context, method, path string, in, out any) error
}

// Client exposes the account, intake, profile, document and role gateways.
type Client struct {
	api    Requester
	logger log.Logger
}

// New creates a gateway client. A nil logger uses slog's default logger.
func New(api Requester, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewStructuredLogger(slog.Default())
	}
	return &Client{api: api, logger: logger}
}

func path(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// remoteID accepts identifiers encoded either as JSON strings or numbers.
type remoteID string

func (id *remoteID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = remoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = remoteID(n.String())
	return nil
}
