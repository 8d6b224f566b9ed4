package client

import (
	"github.com/musicstore/store-contract-tests/servicedef"
)

// AuthEndpoints are the paths used by RegisterOrLogin.
type AuthEndpoints struct {
	Register string
	Login    string
}

// AuthMethod says how RegisterOrLogin obtained its token.
type AuthMethod string

const (
	AuthRegistered AuthMethod = "registered"
	AuthLoggedIn   AuthMethod = "logged-in"
)

// RegisterOrLogin tries to register a new account with the given credentials. If that fails
// for any reason, most commonly because the account already exists, it logs in with the same
// username and password instead. If both fail, the error is an *AuthUnavailableError that
// carries both underlying errors.
func RegisterOrLogin(
	c *Client,
	endpoints AuthEndpoints,
	creds servicedef.Credentials,
) (servicedef.AuthResponse, AuthMethod, error) {
	if err := creds.Validate(); err != nil {
		return servicedef.AuthResponse{}, "", &AuthUnavailableError{Username: creds.Username, RegisterErr: err, LoginErr: err}
	}

	var resp servicedef.AuthResponse
	registerErr := c.Post(endpoints.Register, creds.RegisterParams(), &resp)
	if registerErr == nil {
		return resp, AuthRegistered, nil
	}
	c.logger.Printf("Registration of %q failed, trying to log in: %s", creds.Username, registerErr)

	resp = servicedef.AuthResponse{}
	loginErr := c.Post(endpoints.Login, creds.LoginParams(), &resp)
	if loginErr == nil {
		return resp, AuthLoggedIn, nil
	}

	return servicedef.AuthResponse{}, "", &AuthUnavailableError{
		Username:    creds.Username,
		RegisterErr: registerErr,
		LoginErr:    loginErr,
	}
}
