package gateways

import (
	"context"
	"net/http"

	"customer-onboarding/shared"
)

type roleEntry struct {
	ID          remoteID `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
}

type rolesResponse struct {
	Roles []roleEntry `json:"roles"`
}

// ListRoles returns the role catalog.
func (c *Client) ListRoles(ctx context.Context) ([]shared.Role, error) {
	var resp rolesResponse
	if err := c.api.JSON(ctx, http.MethodGet, "/roles", nil, &resp); err != nil {
		return nil, err
	}
	roles := make([]shared.Role, 0, len(resp.Roles))
	for _, r := range resp.Roles {
		roles = append(roles, shared.Role{ID: string(r.ID), Name: r.Name, DisplayName: r.DisplayName})
	}
	return roles, nil
}
