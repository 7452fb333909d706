package googleauth

// FlowType selects the platform sign-in path. The desktop flow ignores it;
// it stays on the wire for parity with the mobile bridge payloads.
type FlowType string

const (
	FlowTypeNative FlowType = "native"
	FlowTypeWeb    FlowType = "web"
)

// SignInRequest is the input to one complete sign-in flow. Treated as
// immutable once validation begins.
type SignInRequest struct {
	ClientID string `json:"clientId"`
	// ClientSecret is required for the desktop flow: it performs a direct
	// code exchange instead of delegating to a native SDK.
	ClientSecret string   `json:"clientSecret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	HostedDomain string   `json:"hostedDomain,omitempty"`
	LoginHint    string   `json:"loginHint,omitempty"`
	// RedirectURI must point at localhost or 127.0.0.1 when set. The port is
	// optional; without one the OS assigns an ephemeral port.
	RedirectURI         string   `json:"redirectUri,omitempty"`
	SuccessHTMLResponse string   `json:"successHtmlResponse,omitempty"`
	FlowType            FlowType `json:"flowType,omitempty"`
}

// TokenResponse is the normalized result of sign-in and refresh.
type TokenResponse struct {
	IDToken     string   `json:"idToken,omitempty"`
	AccessToken string   `json:"accessToken"`
	Scopes      []string `json:"scopes"`
	// RefreshToken is only present when the provider granted offline access.
	RefreshToken string `json:"refreshToken,omitempty"`
	// ExpiresAt is an absolute Unix timestamp derived from the provider's
	// relative expires_in at response-receipt time. Zero when the provider
	// did not report an expiry.
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

// SignOutRequest optionally names an access token to revoke.
type SignOutRequest struct {
	AccessToken string   `json:"accessToken,omitempty"`
	FlowType    FlowType `json:"flowType,omitempty"`
}

// SignOutResponse always reports success: local sign-out is what is being
// torn down, and provider-side revocation is best-effort.
type SignOutResponse struct {
	Success bool `json:"success"`
}

// RefreshTokenRequest is the input to a refresh flow.
type RefreshTokenRequest struct {
	RefreshToken string   `json:"refreshToken,omitempty"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	FlowType     FlowType `json:"flowType,omitempty"`
}
