package gateways

import (
	"context"
	"fmt"
	"net/http"

	"customer-onboarding/shared"
)

type createAccountRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleID    string `json:"roleId"`
}

type accountResponse struct {
	ID    remoteID `json:"id"`
	Email string   `json:"email"`
}

// Account identifies a newly created customer account.
type Account struct {
	CustomerID    string `json:"customerId"`
	CustomerEmail string `json:"customerEmail"`
}

// CreateAccount creates a customer account. There is no idempotency key:
// calling it twice creates two accounts.
func (c *Client) CreateAccount(ctx context.Context, login shared.LoginDetails, roleID string) (Account, error) {
	req := createAccountRequest{
		FirstName: login.FirstName,
		LastName:  login.LastName,
		Email:     login.Email,
		Password:  login.Password,
		RoleID:    roleID,
	}

	var resp accountResponse
	if err := c.api.JSON(ctx, http.MethodPost, "/accounts", req, &resp); err != nil {
		return Account{}, err
	}
	if resp.ID == "" {
		return Account{}, fmt.Errorf("create account response has no id: %w", ErrContractViolation)
	}

	email := resp.Email
	if email == "" {
		email = login.Email
	}
	return Account{CustomerID: string(resp.ID), CustomerEmail: email}, nil
}
