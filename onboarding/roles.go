package onboarding

import (
	"context"
	"strings"

	"go.temporal.io/sdk/log"

	"customer-onboarding/shared"
)

// customerRoleKeywords are matched case-insensitively against a role's name and
// display name.
var customerRoleKeywords = []string{"customer", "client"}

// RoleCatalog lists the roles an account can be created with.
type RoleCatalog interface {
	ListRoles(ctx context.Context) ([]shared.Role, error)
}

// MatchCustomerRole returns the id of the first role whose label mentions a
// customer or client.
func MatchCustomerRole(roles []shared.Role) (string, bool) {
	for _, r := range roles {
		if r.ID == "" {
			continue
		}
		label := strings.ToLower(r.Name + " " + r.DisplayName)
		for _, kw := range customerRoleKeywords {
			if strings.Contains(label, kw) {
				return r.ID, true
			}
		}
	}
	return "", false
}

// ResolveRoleID picks the role for a new account. It never fails: an explicit
// id wins, then a catalog match, then shared.FallbackCustomerRoleID.
func ResolveRoleID(ctx context.Context, catalog RoleCatalog, explicit string, logger log.Logger) string {
	if explicit != "" {
		return explicit
	}
	if catalog == nil {
		return shared.FallbackCustomerRoleID
	}

	roles, err := catalog.ListRoles(ctx)
	if err != nil {
		logger.Warn("Role catalog unavailable, using fallback role", "error", err, "roleId", shared.FallbackCustomerRoleID)
		return shared.FallbackCustomerRoleID
	}
	if id, ok := MatchCustomerRole(roles); ok {
		return id
	}

	logger.Info("No customer role in catalog, using fallback role", "roles", len(roles), "roleId", shared.FallbackCustomerRoleID)
	return shared.FallbackCustomerRoleID
}
