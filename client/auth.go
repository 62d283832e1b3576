package client

import (
	"context"
	"encoding/json"
	"net/http"

	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/constraints"
)

// SignIn exchanges credentials for an access token. It does not touch the
// session; storing the token is the caller's decision.
func (c *Client) SignIn(ctx context.Context, username, password string) (string, error) {
	body, err := c.send(ctx, constraints.EndpointSignIn, RequestOptions{
		Method: http.MethodPost,
		Body:   v1.LoginRequest{Username: username, Password: password},
	}, "")
	if err != nil {
		return "", err
	}

	var res v1.TokenResponse
	if err := json.Unmarshal(body, &res); err != nil || res.AccessToken == "" {
		return "", &Error{Kind: ErrLoginResponseInvalid, Status: http.StatusOK, Path: constraints.EndpointSignIn, Body: body}
	}
	return res.AccessToken, nil
}

// SignOut tells the backend to drop the refresh cookie.
func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.send(ctx, constraints.EndpointLogout, RequestOptions{Method: http.MethodPost}, c.session.Token())
	return err
}

// Me fetches the current principal. It goes through Do, so an expired
// access token is refreshed first.
func (c *Client) Me(ctx context.Context) (*v1.Principal, error) {
	var p v1.Principal
	if err := c.Get(ctx, constraints.EndpointMe, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
