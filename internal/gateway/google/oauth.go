package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"child-growth-go/internal/config"
	calendardomain "child-growth-go/internal/domain/calendar"
	"golang.org/x/oauth2"
)

// OAuthClient talks to the Google OAuth2 token endpoint. Each call issues exactly one request.
type OAuthClient struct {
	conf       oauth2.Config
	httpClient *http.Client
}

func NewOAuthClient(cfg config.CalendarConfig) *OAuthClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &OAuthClient{
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: cfg.Scopes,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *OAuthClient) AuthCodeURL(state, redirectURI string) string {
	conf := c.conf
	conf.RedirectURL = redirectURI
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (c *OAuthClient) Exchange(ctx context.Context, code, redirectURI string) (*calendardomain.TokenGrant, error) {
	conf := c.conf
	conf.RedirectURL = redirectURI

	token, err := conf.Exchange(c.withClient(ctx), code)
	if err != nil {
		return nil, toUpstreamError(err)
	}
	return toGrant(token, ""), nil
}

func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*calendardomain.TokenGrant, error) {
	source := c.conf.TokenSource(c.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, toUpstreamError(err)
	}
	return toGrant(token, refreshToken), nil
}

func (c *OAuthClient) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// toGrant reports a refresh token only when it differs from the one presented;
// the oauth2 package echoes the request's refresh token when the provider omits it.
func toGrant(token *oauth2.Token, presented string) *calendardomain.TokenGrant {
	grant := calendardomain.TokenGrant{
		AccessToken: token.AccessToken,
		ExpiresIn:   expiresIn(token),
	}
	if token.RefreshToken != presented {
		grant.RefreshToken = token.RefreshToken
	}
	return &grant
}

func expiresIn(token *oauth2.Token) time.Duration {
	if token.ExpiresIn > 0 {
		return time.Duration(token.ExpiresIn) * time.Second
	}

	switch value := token.Extra("expires_in").(type) {
	case float64:
		return time.Duration(value) * time.Second
	case json.Number:
		if seconds, err := value.Int64(); err == nil {
			return time.Duration(seconds) * time.Second
		}
	case string:
		if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	if !token.Expiry.IsZero() {
		return time.Until(token.Expiry).Round(time.Second)
	}
	return 0
}

func toUpstreamError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return &calendardomain.UpstreamError{Status: http.StatusBadGateway, Message: err.Error()}
	}

	status := http.StatusBadGateway
	if retrieveErr.Response != nil {
		status = retrieveErr.Response.StatusCode
	}
	message := retrieveErr.ErrorDescription
	if message == "" {
		message = retrieveErr.ErrorCode
	}
	if message == "" {
		message = "token endpoint error"
	}

	return &calendardomain.UpstreamError{
		Status:  status,
		Body:    string(retrieveErr.Body),
		Message: message,
	}
}
