package gateways

import (
	"context"
	"net/http"
)

type linkOwnerRequest struct {
	CustomerID string `json:"customerId"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// LinkIntakeRecord associates the customer account with an intake record.
func (c *Client) LinkIntakeRecord(ctx context.Context, intakeID, customerID string) error {
	return c.api.JSON(ctx, http.MethodPatch, path("intake", intakeID, "owner"), linkOwnerRequest{CustomerID: customerID}, nil)
}

// UpdateIntakeStatus sets the intake record's status field.
func (c *Client) UpdateIntakeStatus(ctx context.Context, intakeID, status string) error {
	return c.api.JSON(ctx, http.MethodPatch, path("intake", intakeID), updateStatusRequest{Status: status}, nil)
}
