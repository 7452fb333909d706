package googleauth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgellow/google-auth/internal/autherr"
	"github.com/dgellow/google-auth/internal/log"
	"golang.org/x/oauth2"
)

// normalizeToken maps an x/oauth2 token to the stable response shape shared
// by sign-in and refresh. x/oauth2 has already converted the provider's
// relative expires_in into an absolute Expiry at response-receipt time, and
// carries Google's id_token extension and granted scope string as extras.
func normalizeToken(tok *oauth2.Token) *TokenResponse {
	resp := &TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scopes:       []string{},
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		resp.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		resp.Scopes = strings.Fields(scope)
	}
	if !tok.Expiry.IsZero() {
		resp.ExpiresAt = tok.Expiry.Unix()
	}
	return resp
}

// revokeToken posts the access token to the revocation endpoint. The HTTP
// status is deliberately ignored: the token may already be invalid or
// expired, and local sign-out never blocks on provider state. Only transport
// failures are reported.
func revokeToken(ctx context.Context, revocationURL, accessToken string) error {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return autherr.Wrap(autherr.KindNetwork, "failed to build revocation request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := newHardenedClient().Do(req)
	if err != nil {
		return autherr.Wrap(autherr.KindNetwork, "failed to revoke token", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.LogDebugWithFields("revocation", "Revocation endpoint returned non-OK status", map[string]any{
			"status": resp.StatusCode,
		})
	}
	return nil
}
