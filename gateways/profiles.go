package gateways

import (
	"context"
	"net/http"

	"customer-onboarding/authclient"
	"customer-onboarding/shared"
)

// ProfileOutcome says which call persisted the company profile.
type ProfileOutcome string

const (
	ProfileCreated ProfileOutcome = "created"
	ProfileUpdated ProfileOutcome = "updated"
)

// UpsertCompanyProfile creates the customer's company profile, falling back to
// an update with the same payload when the service reports a conflict.
func (c *Client) UpsertCompanyProfile(ctx context.Context, customerID string, profile shared.CompanyProfile) (ProfileOutcome, error) {
	p := path("profiles", customerID)

	err := c.api.JSON(ctx, http.MethodPost, p, profile, nil)
	if err == nil {
		return ProfileCreated, nil
	}
	if authclient.StatusCode(err) != http.StatusConflict {
		return "", err
	}

	c.logger.Info("Company profile already exists, updating instead", "customerId", customerID)
	if err := c.api.JSON(ctx, http.MethodPatch, p, profile, nil); err != nil {
		return "", err
	}
	return ProfileUpdated, nil
}
